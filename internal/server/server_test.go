package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/delivery/internal/shared/config"
)

type stubProbe bool

func (p stubProbe) IsConnected(context.Context) bool { return bool(p) }

func namedRouter(name string) chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(name))
	})
	return r
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s := NewServer(params{
		Config: &config.Config{Environment: "dev", Port: 0},
		Logger: zerolog.Nop(),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("health"))
		},
		LoginRouter: namedRouter("login"),
		AuthRouter:  namedRouter("auth"),
		HomeRouter:  namedRouter("home"),
	})
	return s.server.Handler
}

func TestServer_Routes(t *testing.T) {
	handler := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{path: "/login", want: "login"},
		{path: "/login/submit", want: "login"},
		{path: "/api/auth/login", want: "auth"},
		{path: "/", want: "home"},
		{path: "/accounts/new", want: "home"},
		{path: "/health", want: "health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("Request-Id"))
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(mock pgxmock.PgxPoolIface)
		connected  bool
		wantStatus int
		want       HealthResponse
	}{
		{
			name: "serving",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT 1`).WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
			},
			connected:  true,
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: statusServing, Database: true, AuthBackend: true},
		},
		{
			name: "database down",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("connection refused"))
			},
			connected:  true,
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: statusNotServing, Database: false, AuthBackend: true},
		},
		{
			name: "auth backend down",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT 1`).WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
			},
			connected:  false,
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: statusNotServing, Database: true, AuthBackend: false},
		},
	}

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			srvc := NewHealthSrvc(mock, stubProbe(tt.connected))
			srvc.now = func() time.Time { return now }

			rec := httptest.NewRecorder()
			NewHealthHandler(srvc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			tt.want.Timestamp = now
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
