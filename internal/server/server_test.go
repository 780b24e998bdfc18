package server_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/field-report/internal/config"
	"github.com/sakif/field-report/internal/server"
)

type testEnv struct {
	handler http.Handler
	dbPath  string
}

// newTestEnv runs the full stack on a temporary database file so tests can
// inspect rows through a second connection.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	cfg := config.Config{
		Port:               0,
		DBPath:             dbPath,
		BcryptCost:         bcrypt.MinCost,
		LogLevel:           slog.LevelError,
		CORSAllowedOrigins: []string{"*"},
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	return &testEnv{handler: srv.Handler(), dbPath: dbPath}
}

type envelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	return rr.Code, env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	code, env := e.do(t, http.MethodPost, "/v1/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	var data struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Token, 64)
	assert.Equal(t, username, data.Username)
	return data.Token
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()

	conn, err := sql.Open("sqlite", e.dbPath)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(query, args...).Scan(&n))
	return n
}

func TestLoginCreatesUserOnce(t *testing.T) {
	env := newTestEnv(t)

	env.login(t, "budi", "rahasia")
	env.login(t, "budi", "rahasia")

	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM users WHERE username = ?", "budi"))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "budi", "rahasia")

	code, resp := env.do(t, http.MethodPost, "/v1/login", "", `{"username":"budi","password":"salah"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", resp.Status)
}

func TestTokenRotation(t *testing.T) {
	env := newTestEnv(t)

	first := env.login(t, "budi", "rahasia")
	second := env.login(t, "budi", "rahasia")
	require.NotEqual(t, first, second)

	code, _ := env.do(t, http.MethodPost, "/v1/report/attendance", second, `{"status":"present"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/v1/report/attendance", first, `{"status":"present"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM attendance"))
}

func TestAttendance(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "budi", "rahasia")

	code, resp := env.do(t, http.MethodPost, "/v1/report/attendance", token, `{"status":"present"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Attendance berhasil", resp.Message)

	var a struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Reason *string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "present", a.Status)
	assert.Nil(t, a.Reason)
}

func TestAuthRejections(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "budi", "rahasia")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not-a-real-token"},
		{"wrong scheme", "Basic YnVkaTpyYWhhc2lh"},
		{"scheme only", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/report/attendance", bytes.NewBufferString(`{"status":"present"}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			env.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM attendance"))
}

func TestSubmitProductAndBatchUpdate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "budi", "rahasia")

	code, resp := env.do(t, http.MethodPost, "/v1/report/submit-product", token,
		`{"store_name":"Toko A","product_name":"Teh Botol","is_available":true}`)
	require.Equal(t, http.StatusOK, code, resp.Message)

	var p struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	require.NotEmpty(t, p.ID)

	code, resp = env.do(t, http.MethodPost, "/v1/report/submit-product", token,
		`[{"product_id":"`+p.ID+`","is_available":false},{"product_id":"missing","is_available":true}]`)
	require.Equal(t, http.StatusOK, code, resp.Message)

	var results []struct {
		ProductID string `json:"product_id"`
		Updated   bool   `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Updated)
	assert.False(t, results[1].Updated)

	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM product WHERE id = ? AND is_available = 0", p.ID))
}

func TestSubmitPromo(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "budi", "rahasia")

	code, _ := env.do(t, http.MethodPost, "/v1/report/submit-promo", token,
		`{"store_name":"Toko A","product_name":"Teh","product_price":12000,"promo_price":9000}`)
	assert.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodPost, "/v1/report/submit-promo", token,
		`{"store_name":"Toko A","product_name":"Teh","product_price":12000,"promo_price":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", resp.Error)

	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM promo"))
}

func TestGenericReport(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "budi", "rahasia")

	var userID string
	conn, err := sql.Open("sqlite", env.dbPath)
	require.NoError(t, err)
	require.NoError(t, conn.QueryRow("SELECT id FROM users WHERE username = 'budi'").Scan(&userID))
	conn.Close()

	code, resp := env.do(t, http.MethodPost, "/v1/report/shelf-audit", token,
		`{"user_id":"`+userID+`","report_data":{"facings":4}}`)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM reports WHERE context = ?", "shelf-audit"))

	code, _ = env.do(t, http.MethodPost, "/v1/report/shelf-audit", token,
		`{"user_id":"someone-else","report_data":{"facings":4}}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM reports"))
}

func TestReportRoutingBeforeAuth(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		method    string
		path      string
		status    int
		errorType string
	}{
		{"wrong method on named route", http.MethodGet, "/v1/report/attendance", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"wrong method on context route", http.MethodPut, "/v1/report/shelf-audit", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"too many segments", http.MethodPost, "/v1/report/a/b", http.StatusNotFound, "not_found"},
		{"known route still needs a token", http.MethodPost, "/v1/report/attendance", http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, tt.method, tt.path, "", `{"status":"present"}`)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.errorType, resp.Error)
		})
	}

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM attendance"))
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)

	code, resp = env.do(t, http.MethodGet, "/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", resp.Error)

	code, resp = env.do(t, http.MethodGet, "/v1/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "method_not_allowed", resp.Error)
}
