package format

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

var norwegianMonths = [...]string{
	"januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

// FmtDate formats t in a locale-friendly long form.
// Example: FmtDate(t, "no") => "2. januar 2006"
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "no", "nb", "nn":
		return strings.Join([]string{strconv.Itoa(t.Day()) + ".", norwegianMonths[t.Month()-1], strconv.Itoa(t.Year())}, " ")
	default:
		return t.Format("January 2, 2006")
	}
}

// TelHref builds a tel: link, dropping spaces and punctuation but keeping a leading +.
func TelHref(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "tel:" + b.String()
}

// MailtoHref builds a mailto: link.
func MailtoHref(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return "mailto:" + email
}

// YearsSince returns whole years between since and now, never negative.
func YearsSince(since int, now time.Time) int {
	if since <= 0 || since > now.Year() {
		return 0
	}
	return now.Year() - since
}
