package login

import (
	"context"
	"sync"
)

const (
	HomePath          = "/"
	PasswordResetPath = "/password-reset"
	CreateAccountPath = "/accounts/new"
)

type (
	alertKind int

	// pendingAlert is an alert waiting to be rendered into the next response.
	pendingAlert struct {
		kind    alertKind
		title   string
		message string
	}

	// effects records what the controller asked the screen to do. The HTTP
	// handler drains it after each event and turns it into response headers
	// and fragments.
	effects struct {
		mu         sync.Mutex
		redirect   string
		alerts     []pendingAlert
		newSession *Session
	}

	// screenSessions hands sessions to the real store and remembers the id so
	// the handler can set the session cookie.
	screenSessions struct {
		store   SessionStore
		effects *effects
	}
)

const (
	alertError alertKind = iota
	alertNoConnectivity
)

func (e *effects) GoToHome()          { e.navigate(HomePath) }
func (e *effects) GoToPasswordReset() { e.navigate(PasswordResetPath) }
func (e *effects) GoToCreateAccount() { e.navigate(CreateAccountPath) }

func (e *effects) navigate(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.redirect = path
}

func (e *effects) ShowError(title, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, pendingAlert{kind: alertError, title: title, message: message})
}

func (e *effects) ShowNoConnectivity() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, pendingAlert{kind: alertNoConnectivity})
}

// drain returns and clears everything recorded so far.
func (e *effects) drain() (redirect string, alerts []pendingAlert, session *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	redirect, alerts, session = e.redirect, e.alerts, e.newSession
	e.redirect, e.alerts, e.newSession = "", nil, nil
	return redirect, alerts, session
}

func (s *screenSessions) Save(ctx context.Context, session Session) error {
	if err := s.store.Save(ctx, session); err != nil {
		return err
	}
	s.effects.mu.Lock()
	defer s.effects.mu.Unlock()
	s.effects.newSession = &session
	return nil
}
