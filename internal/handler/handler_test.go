package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"identity-service/internal/middleware"
	"identity-service/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// installMockDB points the global database handle at a sqlmock-backed
// connection for the duration of the test.
func installMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() {
		database.DB = prev
		sqlDB.Close()
	})

	return mock
}

type request struct {
	method   string
	path     string
	body     string
	identity string
	params   map[string]string
}

func doRequest(t *testing.T, r request, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var reader *strings.Reader
	if r.body != "" {
		reader = strings.NewReader(r.body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(r.method, r.path, reader)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.identity != "" {
		c.Set(middleware.IdentityKey, r.identity)
	}
	for k, v := range r.params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}

	require.NoError(t, h(c))
	return rec
}
