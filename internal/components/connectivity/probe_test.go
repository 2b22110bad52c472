package connectivity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/delivery/internal/shared/config"
)

func TestProbe_CachesResult(t *testing.T) {
	var calls atomic.Int32
	fail := false
	p := newProbe(func(context.Context) error {
		calls.Add(1)
		if fail {
			return errors.New("down")
		}
		return nil
	}, "test", 5*time.Second, zerolog.Nop())

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	assert.True(t, p.IsConnected(context.Background()))
	fail = true
	assert.True(t, p.IsConnected(context.Background()), "cached within ttl")
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(5 * time.Second)
	assert.False(t, p.IsConnected(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProbe_CancelledCallerDoesNotDecideForOthers(t *testing.T) {
	var calls atomic.Int32
	p := newProbe(func(ctx context.Context) error {
		calls.Add(1)
		return ctx.Err()
	}, "test", time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.IsConnected(ctx)

	assert.True(t, p.IsConnected(context.Background()))
	assert.Equal(t, int32(1), calls.Load(), "the first check is reused")
}

func TestProbe_ConcurrentCallersShareOneCheck(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	p := newProbe(func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	}, "test", time.Minute, zerolog.Nop())

	results := make(chan bool, 3)
	for range 3 {
		go func() { results <- p.IsConnected(context.Background()) }()
	}

	// A caller that stops waiting is not held up by the slow backend.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, p.IsConnected(ctx), "no answer cached yet")

	close(release)
	for range 3 {
		assert.True(t, <-results)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, p.IsConnected(context.Background()))
}

func TestProbe_CheckHasItsOwnTimeout(t *testing.T) {
	p := newProbe(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, "test", time.Minute, zerolog.Nop())
	p.timeout = 10 * time.Millisecond

	assert.False(t, p.IsConnected(context.Background()))
}

func TestProbe_Database(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      bool
	}{
		{
			name: "reachable",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT 1`).WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
			},
			want: true,
		},
		{
			name: "unreachable",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("connection refused"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			p := NewProbe(&config.Config{AuthMode: config.AuthModeLocal, ConnectivityCacheTTL: time.Second}, mock, zerolog.Nop())

			assert.Equal(t, tt.want, p.IsConnected(context.Background()))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProbe_Remote(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "healthy", status: http.StatusOK, want: true},
		{name: "unhealthy", status: http.StatusServiceUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cfg := &config.Config{AuthMode: config.AuthModeRemote, AuthURL: srv.URL + "/", AuthTimeout: time.Second}
			p := NewProbe(cfg, nil, zerolog.Nop())

			assert.Equal(t, tt.want, p.IsConnected(context.Background()))
		})
	}
}

func TestProbe_RemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := &config.Config{AuthMode: config.AuthModeRemote, AuthURL: url, AuthTimeout: time.Second}
	p := NewProbe(cfg, nil, zerolog.Nop())

	assert.False(t, p.IsConnected(context.Background()))
}
