package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/language"

	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/shared/i18n"
)

// Router serves the JSON login API backed by the local Service. Client speaks
// this contract, so one deployment can act as another one's upstream.
type Router struct {
	service login.AuthClient
}

func NewRouter(service *Service) chi.Router {
	router := &Router{service: service}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/login", r.Login)
	router.Get("/health", r.Health)
	return router
}

func (r *Router) Login(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	var in LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session, err := r.service.Login(ctx, login.Credentials{Email: in.Email, Password: in.Password})
	if errors.Is(err, ErrInvalidCredentials) {
		logger.Warn().Str("email", in.Email).Msg("Login failed: invalid credentials")
		msg := i18n.Printer(req, language.English).Sprintf(i18n.LoginFailed)
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msg})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("email", in.Email).Msg("Login failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "login failed"})
		return
	}

	logger.Debug().Str("email", in.Email).Str("session_id", session.ID.String()).Msg("Login successful")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

func (r *Router) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
