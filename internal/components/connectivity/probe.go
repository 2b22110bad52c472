// Package connectivity reports whether the authentication backend is reachable.
package connectivity

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

var upGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "auth_backend_up",
	Help: "Whether the last connectivity check reached the authentication backend (1) or not (0).",
})

// checkFunc returns nil when the backend answered.
type checkFunc func(ctx context.Context) error

const checkKey = "check"

// Probe caches the outcome of a backend check so that a burst of submits
// hits the backend at most once per ttl.
type Probe struct {
	check   checkFunc
	target  string
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
	flight  singleflight.Group

	mu        sync.Mutex
	checkedAt time.Time
	connected bool
}

// NewProbe checks the database in local auth mode and the remote health
// endpoint in remote mode.
func NewProbe(cfg *config.Config, db database.Querier, logger zerolog.Logger) *Probe {
	logger = logger.With().Str("component", "connectivity").Logger()

	var p *Probe
	if cfg.AuthMode == config.AuthModeRemote {
		url := strings.TrimSuffix(cfg.AuthURL, "/") + "/health"
		client := &http.Client{Timeout: cfg.AuthTimeout}
		p = newProbe(httpCheck(client, url), url, cfg.ConnectivityCacheTTL, logger)
	} else {
		p = newProbe(databaseCheck(db), "database", cfg.ConnectivityCacheTTL, logger)
	}
	p.timeout = cfg.AuthTimeout
	return p
}

func newProbe(check checkFunc, target string, ttl time.Duration, logger zerolog.Logger) *Probe {
	return &Probe{
		check:  check,
		target: target,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// AsConnectivityProbe exposes the probe to the login screen.
func AsConnectivityProbe(p *Probe) login.ConnectivityProbe {
	return p
}

// IsConnected answers from the cache while it is fresh. Otherwise concurrent
// callers share one check, which runs detached from any caller so that a
// cancelled request cannot decide the outcome for everyone else. A caller
// that gives up before the check finishes gets the last known answer.
func (p *Probe) IsConnected(ctx context.Context) bool {
	if connected, fresh := p.cached(); fresh {
		return connected
	}

	ch := p.flight.DoChan(checkKey, func() (any, error) {
		return p.refresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		connected, _ := p.cached()
		return connected
	}
}

func (p *Probe) cached() (connected, fresh bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fresh = !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl
	return p.connected, fresh
}

func (p *Probe) refresh(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.check(ctx)
	connected := err == nil

	p.mu.Lock()
	if err != nil {
		p.logger.Warn().Err(err).Str("target", p.target).Msg("Authentication backend unreachable")
	} else if !p.connected {
		p.logger.Debug().Str("target", p.target).Msg("Authentication backend reachable")
	}
	p.connected = connected
	p.checkedAt = p.now()
	p.mu.Unlock()

	if connected {
		upGauge.Set(1)
	} else {
		upGauge.Set(0)
	}
	return connected
}

func databaseCheck(db database.Querier) checkFunc {
	return func(ctx context.Context) error {
		var res int
		if err := db.QueryRow(ctx, "SELECT 1").Scan(&res); err != nil {
			return oops.Code("CONNECTIVITY_DATABASE").Wrap(err)
		}
		if res != 1 {
			return oops.Code("CONNECTIVITY_DATABASE").Errorf("unexpected probe result %d", res)
		}
		return nil
	}
}

func httpCheck(client *http.Client, url string) checkFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return oops.Code("CONNECTIVITY_REQUEST").Wrap(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return oops.Code("CONNECTIVITY_HTTP").With("url", url).Wrap(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return oops.Code("CONNECTIVITY_HTTP").With("url", url).With("status", resp.StatusCode).
				Errorf("health endpoint answered %d", resp.StatusCode)
		}
		return nil
	}
}
