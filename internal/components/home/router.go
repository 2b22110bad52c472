// Package home serves the pages the login screen navigates to.
package home

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"go.uber.org/fx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/andrasnagy-data/delivery/internal/components/sessions"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/cookie"
	"github.com/andrasnagy-data/delivery/internal/shared/i18n"
	"github.com/andrasnagy-data/delivery/internal/shared/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

const loginPath = "/login"

type (
	Router struct {
		sessions sessions.Store
		secret   []byte
		fallback language.Tag
		tmpl     *template.Template
	}

	RouterParams struct {
		fx.In

		Config   *config.Config
		Sessions sessions.Store
	}

	view struct {
		Email   string
		Lang    string
		printer *message.Printer
	}
)

func (v view) T(key string, args ...any) string {
	return v.printer.Sprintf(key, args...)
}

func NewRouter(p RouterParams) (chi.Router, error) {
	secret, err := p.Config.Key()
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := &Router{
		sessions: p.Sessions,
		secret:   secret,
		fallback: i18n.ParseFallback(p.Config.DefaultLanguage),
		tmpl:     tmpl,
	}
	return router.Routes(), nil
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.NewAuthMiddleware(r.secret, r.sessions))
		protected.Get("/", r.Home)
		protected.Post("/logout", r.Logout)
	})

	router.Get("/password-reset", r.Placeholder)
	router.Get("/accounts/new", r.Placeholder)
	return router
}

func (r *Router) Home(w http.ResponseWriter, req *http.Request) {
	session, _ := middleware.GetSession(req.Context())
	v := r.view(req)
	v.Email = session.Email
	r.render(w, req, "home", v)
}

// Logout ends the session and returns to the login screen.
func (r *Router) Logout(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)
	session, _ := middleware.GetSession(req.Context())

	if err := r.sessions.Delete(req.Context(), session.ID); err != nil {
		logger.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to delete session")
	} else {
		logger.Info().Str("session_id", session.ID.String()).Msg("Signed out")
	}
	cookie.Clear(w, cookie.SessionName)

	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, req, loginPath, http.StatusSeeOther)
}

// Placeholder stands in for screens that are navigation targets only.
func (r *Router) Placeholder(w http.ResponseWriter, req *http.Request) {
	r.render(w, req, "placeholder", r.view(req))
}

func (r *Router) view(req *http.Request) view {
	tag := i18n.Match(req.Header.Get("Accept-Language"), r.fallback)
	return view{Lang: tag.String(), printer: message.NewPrinter(tag)}
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, name string, v view) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(w, name, v); err != nil {
		hlog.FromRequest(req).Error().Err(err).Str("template", name).Msg("Failed to execute template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
