package login

import "regexp"

var emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)

// IsValidEmail reports whether text looks like local@domain.tld.
func IsValidEmail(text string) bool {
	return emailPattern.MatchString(text)
}
