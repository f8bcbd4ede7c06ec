package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"identity-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks one account through its whole life: provisioning with partial
// metadata, device registration, the duplicate-token rejection, a foreign
// caller bouncing off the ownership policy, and the cascading teardown.
func TestAccountLifecycle(t *testing.T) {
	mock := installMockDB(t)

	// u1 is created at the provider with an email but no display name
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users" .* ON CONFLICT \("id"\) DO NOTHING`).
		WithArgs("u1", "a@example.com", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doRequest(t, request{
		method: http.MethodPost,
		path:   "/hooks/identity",
		body:   `{"type":"account.created","account":{"id":"u1","email":"a@example.com"}}`,
	}, IdentityWebhook)
	require.Equal(t, http.StatusOK, rec.Code)

	// the mirrored profile has the email set and the display name unset
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(profileRows("u1", "a@example.com"))

	rec = doRequest(t, request{
		method:   http.MethodGet,
		path:     "/api/users/me",
		identity: "u1",
	}, GetProfile)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.NotNil(t, profile.Email)
	assert.Equal(t, "a@example.com", *profile.Email)
	assert.Nil(t, profile.DisplayName)

	// u1 registers tok-1
	deviceID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE user_id = \$1 AND push_token = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "devices"`).
		WithArgs(sqlmock.AnyArg(), "u1", "tok-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec = doRequest(t, request{
		method:   http.MethodPost,
		path:     "/api/devices",
		body:     `{"push_token":"tok-1"}`,
		identity: "u1",
	}, RegisterDevice)
	require.Equal(t, http.StatusCreated, rec.Code)

	// registering tok-1 again is a duplicate
	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE user_id = \$1 AND push_token = \$2`).
		WillReturnRows(registrationRows(deviceID, "u1", "tok-1"))

	rec = doRequest(t, request{
		method:   http.MethodPost,
		path:     "/api/devices",
		body:     `{"push_token":"tok-1"}`,
		identity: "u1",
	}, RegisterDevice)
	require.Equal(t, http.StatusConflict, rec.Code)

	// u2 cannot read u1's device
	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec = doRequest(t, request{
		method:   http.MethodGet,
		path:     "/api/devices/" + deviceID.String(),
		identity: "u2",
		params:   map[string]string{"id": deviceID.String()},
	}, GetDevice)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// the provider deletes u1; the device goes with the user
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "devices" WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec = doRequest(t, request{
		method: http.MethodPost,
		path:   "/hooks/identity",
		body:   `{"type":"account.deleted","account":{"id":"u1"}}`,
	}, IdentityWebhook)
	require.Equal(t, http.StatusOK, rec.Code)

	// nothing is left for u1
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec = doRequest(t, request{
		method:   http.MethodGet,
		path:     "/api/users/me",
		identity: "u1",
	}, GetProfile)
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
