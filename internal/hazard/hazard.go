// Package hazard classifies free-form hazard labels ("Tropical Cyclone",
// "Sécheresse", ...) into the hazard families the wizard knows about.
package hazard

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind is a hazard family.
type Kind string

const (
	Unknown Kind = ""
	Cyclone Kind = "cyclone"
	Drought Kind = "drought"
	Flood   Kind = "flood"
	Heat    Kind = "heat"
	Disease Kind = "disease"
)

// keywords are matched in order against the folded label.
var keywords = []struct {
	kind  Kind
	words []string
}{
	{Cyclone, []string{"cyclone", "hurricane", "typhoon", "ouragan"}},
	{Drought, []string{"drought", "secheresse", "seca"}},
	{Flood, []string{"flood", "inondation", "cheia", "inundac"}},
	{Heat, []string{"heat", "canicule", "chaleur", "calor"}},
	{Disease, []string{"disease", "epidemic", "outbreak", "maladie", "epidemie", "doenca"}},
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Classify returns the hazard family of label by keyword substring match.
func Classify(label string) Kind {
	folded := Fold(label)
	if strings.TrimSpace(folded) == "" {
		return Unknown
	}
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(folded, w) {
				return k.kind
			}
		}
	}
	return Unknown
}

// Icon returns the icon name for a hazard label; an empty string means no icon.
func Icon(label string) string {
	switch k := Classify(label); k {
	case Heat:
		return "heatwave"
	case Unknown:
		return ""
	default:
		return string(k)
	}
}
