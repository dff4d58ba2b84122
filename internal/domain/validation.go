package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern accepts local@domain.tld without whitespace or extra '@'.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// EmailLocalPart returns the part of email before the '@'.
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")

	return local
}

// CredentialRules are the minimum lengths enforced on registration input.
type CredentialRules struct {
	MinNameLength     int
	MinPasswordLength int
}

// ValidateRegistration checks every field and reports all failures at once.
func (r CredentialRules) ValidateRegistration(name, email, password string) error {
	verr := new(ValidationError)

	if strings.TrimSpace(name) == "" || len([]rune(strings.TrimSpace(name))) < r.MinNameLength {
		verr.Add("name", fmt.Sprintf("Name must be at least %d characters long", r.MinNameLength))
	}

	if !ValidEmail(strings.TrimSpace(email)) {
		verr.Add("email", "Please enter a valid email address")
	}

	if password == "" || len(password) < r.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters long", r.MinPasswordLength))
	}

	return verr.OrNil()
}

// ValidateLogin checks that both credentials are present and the email is well formed.
func ValidateLogin(email, password string) error {
	verr := new(ValidationError)

	switch {
	case strings.TrimSpace(email) == "":
		verr.Add("email", "Please enter your email address")
	case !ValidEmail(strings.TrimSpace(email)):
		verr.Add("email", "Please enter a valid email address")
	}

	if password == "" {
		verr.Add("password", "Please enter your password")
	}

	return verr.OrNil()
}
