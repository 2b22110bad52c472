// Package i18n holds the user-facing strings of the app and the language negotiation for them.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	LoginFailed          = "Incorrect e-mail or password"
	RequestErrorTitle    = "Oops.."
	RequestErrorMessage  = "Something went wrong, please try again later."
	NoConnectivityTitle  = "No internet connection"
	NoConnectivityDetail = "Check your connection and try again."
	EmailLabel           = "E-mail"
	PasswordLabel        = "Password"
	LoginButton          = "Log in"
	CreateAccountButton  = "Create account"
	ResetPasswordButton  = "Forgot my password"
	ShowPassword         = "Show password"
	HidePassword         = "Hide password"
	SignedInAs           = "Signed in as %s"
	LogoutButton         = "Log out"
	ComingSoon           = "This screen is not available yet."
)

var supported = []language.Tag{language.English, language.BrazilianPortuguese}

var matcher = language.NewMatcher(supported)

func init() {
	pt := language.BrazilianPortuguese
	for key, msg := range map[string]string{
		LoginFailed:          "E-mail ou senha incorretos",
		RequestErrorTitle:    "Ops..",
		RequestErrorMessage:  "Houve um problema, tente novamente mais tarde.",
		NoConnectivityTitle:  "Sem conexão com a internet",
		NoConnectivityDetail: "Verifique sua conexão e tente novamente.",
		EmailLabel:           "E-mail",
		PasswordLabel:        "Senha",
		LoginButton:          "Entrar",
		CreateAccountButton:  "Criar conta",
		ResetPasswordButton:  "Esqueci minha senha",
		ShowPassword:         "Mostrar senha",
		HidePassword:         "Ocultar senha",
		SignedInAs:           "Conectado como %s",
		LogoutButton:         "Sair",
		ComingSoon:           "Esta tela ainda não está disponível.",
	} {
		// SetString only fails on a malformed tag.
		_ = message.SetString(pt, key, msg)
	}
}

// Match picks the best supported language for an Accept-Language header value,
// falling back to fallback when nothing matches.
func Match(acceptLanguage string, fallback language.Tag) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	tag, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	// Match returns tags with -u-rg extensions; reduce to the supported base.
	for _, s := range supported {
		base, _ := s.Base()
		if b, _ := tag.Base(); b == base {
			return s
		}
	}
	return fallback
}

// Printer returns a printer for the language requested by r.
func Printer(r *http.Request, fallback language.Tag) *message.Printer {
	return message.NewPrinter(Match(r.Header.Get("Accept-Language"), fallback))
}

// ParseFallback parses a configured default language, defaulting to English.
func ParseFallback(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return Match(tag.String(), language.English)
}
