package login

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Credentials are built for a single submit and dropped once the request resolves.
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// Session is the authenticated identity handed out by an AuthClient.
	Session struct {
		ID        uuid.UUID `json:"id"`
		Token     string    `json:"token"`
		Email     string    `json:"email"`
		IssuedAt  time.Time `json:"issued_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	// FormState is a read-only snapshot of the screen for rendering.
	FormState struct {
		Email           string
		Password        string
		PasswordVisible bool
		HasError        bool
		ErrorMessage    string
		SubmitEnabled   bool
		State           State
		EmailStyle      FieldStyle
		PasswordStyle   FieldStyle
	}

	State      int
	FieldStyle int
	Field      string
)

const (
	StateIdle State = iota
	// StateValidating is entered only while an edit recomputes the submit button.
	StateValidating
	StateSubmitting
	StateError
	// StateSuccess is terminal; the screen navigates away.
	StateSuccess
)

const (
	StyleDefault FieldStyle = iota
	StyleEditing
	StyleError
)

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (s FieldStyle) String() string {
	switch s {
	case StyleEditing:
		return "editing"
	case StyleError:
		return "error"
	default:
		return "default"
	}
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
