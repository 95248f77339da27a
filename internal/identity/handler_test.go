package identity

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithWriters(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func authRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(sqlx.NewDb(db, "sqlmock"), testSecret)
	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	return router, mock
}

func postAuth(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func residentColumns() []string {
	return []string{"id", "address", "name", "email", "password_hash", "role", "created_at"}
}

func TestRegister(t *testing.T) {
	router, mock := authRouter(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO residents").
		WillReturnRows(sqlmock.NewRows(residentColumns()).
			AddRow(1, testAddress, "Pat", "pat@example.com", "hash", RoleResident, time.Now()))

	w := postAuth(router, "/auth/register", RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "hunter22!",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, testAddress, resp.Resident.Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, mock := authRouter(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := postAuth(router, "/auth/register", RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "hunter22!",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router, _ := authRouter(t)

	w := postAuth(router, "/auth/register", RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	router, mock := authRouter(t)

	hash, err := HashPassword("hunter22!")
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, address, name, email, password_hash, role, created_at").
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows(residentColumns()).
			AddRow(1, testAddress, "Pat", "pat@example.com", hash, RoleResident, time.Now()))

	w := postAuth(router, "/auth/login", LoginRequest{Email: "pat@example.com", Password: "hunter22!"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := ValidateToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, testAddress, claims.Address)
}

func TestLoginWrongPassword(t *testing.T) {
	router, mock := authRouter(t)

	hash, err := HashPassword("hunter22!")
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, address, name, email, password_hash, role, created_at").
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows(residentColumns()).
			AddRow(1, testAddress, "Pat", "pat@example.com", hash, RoleResident, time.Now()))

	w := postAuth(router, "/auth/login", LoginRequest{Email: "pat@example.com", Password: "wrong-password"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	router, mock := authRouter(t)

	mock.ExpectQuery("SELECT id, address, name, email, password_hash, role, created_at").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(residentColumns()))

	w := postAuth(router, "/auth/login", LoginRequest{Email: "nobody@example.com", Password: "whatever1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
