package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
)

type (
	// HealthSrvc checks the database and the authentication backend
	HealthSrvc struct {
		db    database.Querier
		probe login.ConnectivityProbe
		now   func() time.Time
	}

	// HealthResponse represents the response structure for health check endpoint
	HealthResponse struct {
		Status      string    `json:"status"`
		Timestamp   time.Time `json:"timestamp"`
		Database    bool      `json:"database"`
		AuthBackend bool      `json:"auth_backend"`
	}
)

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := hlog.FromRequest(r)

		response := srvc.check(ctx)

		w.Header().Set("Content-Type", "application/json")

		if response.Status == statusServing {
			logger.Debug().Msg("Healthcheck ok")
			w.WriteHeader(http.StatusOK)
		} else {
			logger.Error().
				Bool("database", response.Database).
				Bool("auth_backend", response.AuthBackend).
				Msg("Healthcheck failed")
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health check response")
		}
	}
}

func NewHealthSrvc(db database.Querier, probe login.ConnectivityProbe) *HealthSrvc {
	return &HealthSrvc{db: db, probe: probe, now: time.Now}
}

const (
	statusServing    = "serving"
	statusNotServing = "not serving"
)

func (s *HealthSrvc) check(ctx context.Context) HealthResponse {
	var res int
	err := s.db.QueryRow(ctx, "SELECT 1").Scan(&res)

	response := HealthResponse{
		Status:      statusNotServing,
		Timestamp:   s.now().UTC(),
		Database:    err == nil && res == 1,
		AuthBackend: s.probe.IsConnected(ctx),
	}
	if response.Database && response.AuthBackend {
		response.Status = statusServing
	}
	return response
}
