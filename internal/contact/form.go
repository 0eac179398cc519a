// Package contact validates and delivers contact-form submissions.
package contact

import (
	"net/url"
	"regexp"
	"strings"
)

// emailPattern is deliberately permissive: something@something.tld without whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Translator resolves message keys; *i18n.Bundle satisfies it.
type Translator interface {
	T(lang, key string) string
}

// Form is the raw contact form input.
type Form struct {
	Name    string
	Phone   string
	Email   string
	Message string
	Consent bool
}

// ParseForm reads the form fields from posted values.
func ParseForm(v url.Values) Form {
	consent := strings.ToLower(strings.TrimSpace(v.Get("consent")))
	return Form{
		Name:    strings.TrimSpace(v.Get("name")),
		Phone:   strings.TrimSpace(v.Get("phone")),
		Email:   strings.TrimSpace(v.Get("email")),
		Message: strings.TrimSpace(v.Get("message")),
		Consent: consent == "on" || consent == "true" || consent == "1" || consent == "yes",
	}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate returns field -> localized message for every failing field. An empty map means valid.
func Validate(f Form, lang string, requireConsent bool, tr Translator) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = tr.T(lang, "contact.error.name")
	}
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = tr.T(lang, "contact.error.email_required")
	case !ValidEmail(email):
		errs["email"] = tr.T(lang, "contact.error.email_invalid")
	}
	if strings.TrimSpace(f.Message) == "" {
		errs["message"] = tr.T(lang, "contact.error.message")
	}
	if requireConsent && !f.Consent {
		errs["consent"] = tr.T(lang, "contact.error.consent")
	}
	return errs
}
