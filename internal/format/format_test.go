package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFmtDate(t *testing.T) {
	d := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "7. mars 2025", FmtDate(d, "no"))
	assert.Equal(t, "March 7, 2025", FmtDate(d, "en"))
	assert.Equal(t, "", FmtDate(time.Time{}, "no"))
}

func TestTelHref(t *testing.T) {
	assert.Equal(t, "tel:+4790012345", TelHref("+47 900 12 345"))
	assert.Equal(t, "tel:62341234", TelHref("62 34 12 34"))
	assert.Equal(t, "", TelHref(" "))
}

func TestMailtoHref(t *testing.T) {
	assert.Equal(t, "mailto:post@example.no", MailtoHref(" post@example.no "))
	assert.Equal(t, "", MailtoHref(""))
}

func TestYearsSince(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, YearsSince(2000, now))
	assert.Equal(t, 0, YearsSince(2030, now))
	assert.Equal(t, 0, YearsSince(0, now))
}
