package login

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/andrasnagy-data/delivery/internal/shared/i18n"
)

var (
	ErrInvalidEmail     = errors.New("email is not valid")
	ErrNoConnectivity   = errors.New("no connectivity")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrSubmitInProgress = errors.New("submit already in progress")
)

type (
	AuthClient interface {
		Login(context.Context, Credentials) (Session, error)
	}

	SessionStore interface {
		Save(context.Context, Session) error
	}

	Navigator interface {
		GoToHome()
		GoToPasswordReset()
		GoToCreateAccount()
	}

	ConnectivityProbe interface {
		IsConnected(context.Context) bool
	}

	AlertPresenter interface {
		ShowError(title, message string)
		ShowNoConnectivity()
	}

	// Deps are the collaborators of a Controller. All of them are required.
	Deps struct {
		Auth         AuthClient
		Sessions     SessionStore
		Navigator    Navigator
		Connectivity ConnectivityProbe
		Alerts       AlertPresenter
	}

	Option func(*Controller)

	// Controller drives one login screen: it owns the form state and reacts to
	// field edits, the visibility toggle, navigation taps and submit.
	Controller struct {
		deps    Deps
		logger  zerolog.Logger
		printer *message.Printer
		hook    func(from, to State)

		mu       sync.Mutex
		form     FormState
		inFlight chan struct{}
	}
)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPrinter sets the language of the messages the controller produces.
func WithPrinter(p *message.Printer) Option {
	return func(c *Controller) { c.printer = p }
}

// WithTransitionHook is called for every state change, outside the controller lock.
func WithTransitionHook(hook func(from, to State)) Option {
	return func(c *Controller) { c.hook = hook }
}

// WithPrefill starts the form with the given credentials.
func WithPrefill(email, password string) Option {
	return func(c *Controller) {
		c.form.Email = email
		c.form.Password = password
	}
}

func NewController(deps Deps, opts ...Option) *Controller {
	c := &Controller{
		deps:    deps,
		logger:  zerolog.Nop(),
		printer: message.NewPrinter(language.English),
		form:    FormState{State: StateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.form.SubmitEnabled = IsValidEmail(c.form.Email)
	return c
}

// Snapshot returns a copy of the current form state.
func (c *Controller) Snapshot() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) OnEmailChanged(text string) {
	c.edit(FieldEmail, text)
}

func (c *Controller) OnPasswordChanged(text string) {
	c.edit(FieldPassword, text)
}

func (c *Controller) edit(field Field, text string) {
	c.mu.Lock()

	prev := c.form.State
	if prev == StateSuccess {
		c.mu.Unlock()
		return
	}

	switch field {
	case FieldEmail:
		c.form.Email = text
	case FieldPassword:
		c.form.Password = text
	}

	if prev == StateSubmitting {
		c.form.SubmitEnabled = IsValidEmail(c.form.Email)
		c.mu.Unlock()
		return
	}

	c.form.State = StateValidating
	c.form.SubmitEnabled = IsValidEmail(c.form.Email)

	if prev == StateError {
		c.form.HasError = false
		c.form.ErrorMessage = ""
		// Editing the email puts it back in editing style, editing the
		// password leaves both fields in the default style.
		if field == FieldEmail {
			c.form.EmailStyle = StyleEditing
		} else {
			c.form.EmailStyle = StyleDefault
		}
		c.form.PasswordStyle = StyleDefault
	} else {
		c.setStyle(field, StyleEditing)
	}
	c.form.State = StateIdle
	c.mu.Unlock()

	c.transition(prev, StateValidating)
	c.transition(StateValidating, StateIdle)
}

// OnFieldBlurred returns the field to its default style unless an error is on screen.
func (c *Controller) OnFieldBlurred(field Field) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.form.HasError || c.form.State == StateSuccess {
		return
	}
	c.setStyle(field, StyleDefault)
}

func (c *Controller) setStyle(field Field, style FieldStyle) {
	switch field {
	case FieldEmail:
		c.form.EmailStyle = style
	case FieldPassword:
		c.form.PasswordStyle = style
	}
}

func (c *Controller) OnTogglePasswordVisibility() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.PasswordVisible = !c.form.PasswordVisible
}

func (c *Controller) OnResetPasswordTapped() {
	c.deps.Navigator.GoToPasswordReset()
}

func (c *Controller) OnCreateAccountTapped() {
	c.deps.Navigator.GoToCreateAccount()
}

// Submit starts a login request and returns without waiting for it. It fails
// with ErrSubmitInProgress while a request is in flight or after success, with
// ErrInvalidEmail while the submit button is disabled and with ErrNoConnectivity
// when the probe reports no connection, in which case the no-connectivity alert
// is shown and the form is left untouched.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.form.State == StateSubmitting || c.form.State == StateSuccess:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case !c.form.SubmitEnabled:
		c.mu.Unlock()
		return ErrInvalidEmail
	}
	c.mu.Unlock()

	if !c.deps.Connectivity.IsConnected(ctx) {
		c.logger.Debug().Msg("Submit blocked: no connectivity")
		c.deps.Alerts.ShowNoConnectivity()
		return ErrNoConnectivity
	}

	c.mu.Lock()
	// The probe ran unlocked; another submit may have won the race.
	if c.form.State == StateSubmitting || c.form.State == StateSuccess {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	prev := c.form.State
	c.form.State = StateSubmitting
	creds := Credentials{Email: c.form.Email, Password: c.form.Password}
	done := make(chan struct{})
	c.inFlight = done
	c.mu.Unlock()

	c.transition(prev, StateSubmitting)
	c.logger.Debug().Str("email", creds.Email).Msg("Login submitted")

	go c.run(context.WithoutCancel(ctx), creds, done)
	return nil
}

func (c *Controller) run(ctx context.Context, creds Credentials, done chan struct{}) {
	defer close(done)

	session, err := c.deps.Auth.Login(ctx, creds)
	if err != nil {
		c.fail(err)
		return
	}
	c.succeed(ctx, session)
}

func (c *Controller) succeed(ctx context.Context, session Session) {
	c.mu.Lock()
	c.form.State = StateSuccess
	c.mu.Unlock()
	c.transition(StateSubmitting, StateSuccess)

	c.logger.Info().Str("email", session.Email).Str("session_id", session.ID.String()).Msg("Login successful")

	if err := c.deps.Sessions.Save(ctx, session); err != nil {
		c.logger.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to store session")
	}
	c.deps.Navigator.GoToHome()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.form.State = StateError
	c.form.HasError = true
	c.form.ErrorMessage = c.printer.Sprintf(i18n.LoginFailed)
	c.form.EmailStyle = StyleError
	c.form.PasswordStyle = StyleError
	c.mu.Unlock()
	c.transition(StateSubmitting, StateError)

	c.logger.Warn().Err(errors.Join(ErrAuthFailed, err)).Msg("Login failed")

	c.deps.Alerts.ShowError(c.printer.Sprintf(i18n.RequestErrorTitle), c.printer.Sprintf(i18n.RequestErrorMessage))
}

// Wait blocks until the request started by the last Submit has resolved and
// its side effects have run. It returns immediately when nothing is in flight.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.inFlight
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) transition(from, to State) {
	if c.hook != nil {
		c.hook(from, to)
	}
}
