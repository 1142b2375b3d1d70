package i18n

import (
	"strings"
	"time"
)

// Translator resolves message keys for one language.
type Translator struct {
	bundle *Bundle
	lang   string
}

// Lang returns the language code.
func (t *Translator) Lang() string { return t.lang }

// T returns the message for a dotted key. Missing keys fall back to the
// default language, then to the key itself. Each {name} in the message is
// replaced by subs[name].
func (t *Translator) T(key string, subs map[string]string) string {
	msg, ok := t.bundle.Lookup(t.lang, key)
	if !ok {
		msg, ok = t.bundle.Lookup(DefaultLanguage, key)
	}
	if !ok {
		return key
	}
	for k, v := range subs {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

// Tf is T with alternating name/value substitution pairs.
func (t *Translator) Tf(key string, pairs ...string) string {
	subs := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		subs[pairs[i]] = pairs[i+1]
	}
	return t.T(key, subs)
}

// DateLayout is the Go time layout used to show dates to the user.
func (t *Translator) DateLayout() string {
	return t.T("date.layout", nil)
}

// DatePlaceholder describes the expected input format.
func (t *Translator) DatePlaceholder() string {
	return t.T("date.placeholder", nil)
}

// FormatDate renders a stored date in the locale layout. Values that are
// not dates are returned unchanged.
func (t *Translator) FormatDate(stored string) string {
	d, err := ParseISODate(stored)
	if err != nil {
		return stored
	}
	return d.Format(t.DateLayout())
}

// ParseDate reads a date typed by the user, in the locale layout or ISO form.
func (t *Translator) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(t.DateLayout(), s); err == nil {
		return d, nil
	}
	return ParseISODate(s)
}

// ISODate is the storage layout of dates.
const ISODate = "2006-01-02"

// ParseISODate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(ISODate, s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

// NormalizeDate returns s as YYYY-MM-DD when it is a date; ok is false otherwise.
func NormalizeDate(s string) (string, bool) {
	d, err := ParseISODate(s)
	if err != nil {
		return s, false
	}
	return d.Format(ISODate), true
}
