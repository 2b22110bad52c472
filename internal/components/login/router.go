package login

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"go.uber.org/fx"
	"golang.org/x/text/message"

	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/cookie"
	"github.com/andrasnagy-data/delivery/internal/shared/i18n"
)

//go:embed templates/*.html
var templatesFS embed.FS

const loginPath = "/login"

type (
	Router struct {
		screens *Screens
		secret  []byte
		tmpl    *template.Template
	}

	RouterParams struct {
		fx.In

		Config  *config.Config
		Screens *Screens
	}

	alertView struct {
		Kind    string
		Title   string
		Message string
	}

	view struct {
		Form    FormState
		Alerts  []alertView
		Lang    string
		printer *message.Printer
	}

	screenHandler func(http.ResponseWriter, *http.Request, *screen)
)

// T translates a message key for the screen's language.
func (v view) T(key string) string {
	return v.printer.Sprintf(key)
}

func (v view) SubmitDisabled() bool {
	return !v.Form.SubmitEnabled || v.Form.State == StateSubmitting
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

	router := &Router{screens: p.Screens, secret: secret, tmpl: tmpl}
	return router.Routes(), nil
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.LoginPage)
	router.Post("/email", r.withScreen(r.EmailChanged))
	router.Post("/password", r.withScreen(r.PasswordChanged))
	router.Post("/blur/{field}", r.withScreen(r.FieldBlurred))
	router.Post("/password/visibility", r.withScreen(r.TogglePasswordVisibility))
	router.Post("/submit", r.withScreen(r.Submit))
	router.Post("/reset-password", r.withScreen(r.ResetPassword))
	router.Post("/create-account", r.withScreen(r.CreateAccount))
	return router
}

// LoginPage instantiates a new screen for this browser and renders it.
func (r *Router) LoginPage(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	sc := r.screens.open(i18n.Match(req.Header.Get("Accept-Language"), r.screens.fallback))
	if err := cookie.Set(w, cookie.ScreenName, sc.id, r.secret); err != nil {
		logger.Error().Err(err).Msg("Failed to set login screen cookie")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(w, "page", r.view(sc, nil)); err != nil {
		logger.Error().Err(err).Msg("Failed to execute login template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (r *Router) EmailChanged(w http.ResponseWriter, req *http.Request, sc *screen) {
	sc.controller.OnEmailChanged(req.FormValue("email"))
	r.respond(w, req, sc)
}

func (r *Router) PasswordChanged(w http.ResponseWriter, req *http.Request, sc *screen) {
	sc.controller.OnPasswordChanged(req.FormValue("password"))
	r.respond(w, req, sc)
}

func (r *Router) FieldBlurred(w http.ResponseWriter, req *http.Request, sc *screen) {
	field := Field(chi.URLParam(req, "field"))
	if field != FieldEmail && field != FieldPassword {
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}
	sc.controller.OnFieldBlurred(field)
	r.respond(w, req, sc)
}

func (r *Router) TogglePasswordVisibility(w http.ResponseWriter, req *http.Request, sc *screen) {
	sc.controller.OnTogglePasswordVisibility()
	r.respond(w, req, sc)
}

func (r *Router) ResetPassword(w http.ResponseWriter, req *http.Request, sc *screen) {
	sc.controller.OnResetPasswordTapped()
	r.respond(w, req, sc)
}

func (r *Router) CreateAccount(w http.ResponseWriter, req *http.Request, sc *screen) {
	sc.controller.OnCreateAccountTapped()
	r.respond(w, req, sc)
}

// Submit starts the login and waits for it so the outcome can be rendered in
// the same response.
func (r *Router) Submit(w http.ResponseWriter, req *http.Request, sc *screen) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	// Keystrokes still inside the debounce window have not been sent yet.
	form := sc.controller.Snapshot()
	if email, ok := formValue(req, "email"); ok && email != form.Email {
		sc.controller.OnEmailChanged(email)
	}
	if password, ok := formValue(req, "password"); ok && password != form.Password {
		sc.controller.OnPasswordChanged(password)
	}

	if err := sc.controller.Submit(ctx); err != nil {
		recordRejection(err)
		logger.Debug().Err(err).Msg("Login submit rejected")
		r.respond(w, req, sc)
		return
	}

	if err := sc.controller.Wait(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("Gave up waiting for login result")
		}
		return
	}
	r.respond(w, req, sc)
}

// respond drains the screen's effects into the response: a new session
// becomes a cookie, a navigation becomes an HX-Redirect and anything else
// re-renders the form with pending alerts.
func (r *Router) respond(w http.ResponseWriter, req *http.Request, sc *screen) {
	logger := hlog.FromRequest(req)
	redirect, alerts, session := sc.effects.drain()

	if session != nil {
		if err := cookie.Set(w, cookie.SessionName, session.ID, r.secret); err != nil {
			logger.Error().Err(err).Msg("Failed to set session cookie")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	if redirect != "" {
		if redirect == HomePath {
			r.screens.drop(sc.id)
			cookie.Clear(w, cookie.ScreenName)
		}
		w.Header().Set("HX-Redirect", redirect)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(w, "fragment", r.view(sc, alerts)); err != nil {
		logger.Error().Err(err).Msg("Failed to execute login fragment")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (r *Router) view(sc *screen, alerts []pendingAlert) view {
	v := view{
		Form:    sc.controller.Snapshot(),
		Lang:    sc.lang.String(),
		printer: sc.printer,
	}
	for _, a := range alerts {
		switch a.kind {
		case alertNoConnectivity:
			v.Alerts = append(v.Alerts, alertView{
				Kind:    "no-connectivity",
				Title:   v.T(i18n.NoConnectivityTitle),
				Message: v.T(i18n.NoConnectivityDetail),
			})
		default:
			v.Alerts = append(v.Alerts, alertView{Kind: "error", Title: a.title, Message: a.message})
		}
	}
	return v
}

// withScreen resolves the screen from the cookie. A browser without a live
// screen is sent back to a fresh login page.
func (r *Router) withScreen(next screenHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := cookie.Get(req, cookie.ScreenName, r.secret)
		if err == nil {
			if sc, ok := r.screens.get(id); ok {
				next(w, req, sc)
				return
			}
		}

		hlog.FromRequest(req).Debug().Err(err).Msg("No live login screen, restarting")
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusOK)
	}
}

func formValue(req *http.Request, key string) (string, bool) {
	if err := req.ParseForm(); err != nil {
		return "", false
	}
	values, ok := req.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
