package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserBeforeSaveOverridesUpdatedAt(t *testing.T) {
	stale := time.Now().Add(-24 * time.Hour)
	u := &User{ID: "u1", UpdatedAt: stale}

	require.NoError(t, u.BeforeSave(nil))
	assert.True(t, u.UpdatedAt.After(stale), "supplied updated_at must be overwritten")
}

func TestDeviceBeforeSaveOverridesUpdatedAt(t *testing.T) {
	stale := time.Now().Add(-24 * time.Hour)
	d := &Device{UserID: "u1", PushToken: "tok-1", UpdatedAt: stale}

	require.NoError(t, d.BeforeSave(nil))
	assert.True(t, d.UpdatedAt.After(stale), "supplied updated_at must be overwritten")
}

func TestDeviceBeforeCreateAssignsID(t *testing.T) {
	d := &Device{UserID: "u1", PushToken: "tok-1"}

	require.NoError(t, d.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, d.ID)
}

func TestDeviceBeforeCreateKeepsExistingID(t *testing.T) {
	id := uuid.New()
	d := &Device{ID: id, UserID: "u1", PushToken: "tok-1"}

	require.NoError(t, d.BeforeCreate(nil))
	assert.Equal(t, id, d.ID)
}
