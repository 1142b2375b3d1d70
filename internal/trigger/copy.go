package trigger

import (
	"strconv"

	"github.com/aapbuilder/backend/internal/hazard"
)

// Translator looks up localized strings.
type Translator interface {
	T(key string, subs map[string]string) string
}

func tr(t Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}
	s := t.T(key, nil)
	if s == "" || s == key {
		return fallback
	}
	return s
}

// Placeholders holds the hint text of the phase inputs.
type Placeholders struct {
	Source      string `json:"source"`
	Threshold   string `json:"threshold"`
	LeadTime    string `json:"leadTime"`
	Probability string `json:"probability"`
}

var placeholderCopy = map[hazard.Kind][4]string{
	hazard.Cyclone: {"e.g. Meteorological Department", "e.g. sustained wind speed (km/h)", "e.g. 48 hours", "e.g. high confidence"},
	hazard.Drought: {"e.g. seasonal rainfall forecast", "e.g. rainfall deficit (%)", "e.g. 3 months", "e.g. moderate probability"},
	hazard.Flood:   {"e.g. GloFAS", "e.g. river gauge level (m)", "e.g. 24 hours", "e.g. moderate confidence"},
	hazard.Unknown: {"Source of information", "Threshold", "Lead Time", "Probability (optional)"},
}

var placeholderSuffix = map[hazard.Kind]string{
	hazard.Cyclone: "Cyclone",
	hazard.Drought: "Drought",
	hazard.Flood:   "Flood",
	hazard.Unknown: "Default",
}

// PlaceholdersFor returns the placeholders for a hazard label. Hazards
// without dedicated copy use the generic set.
func PlaceholdersFor(label string, t Translator) Placeholders {
	kind := hazard.Classify(label)
	if _, ok := placeholderCopy[kind]; !ok {
		kind = hazard.Unknown
	}
	en := placeholderCopy[kind]
	suffix := placeholderSuffix[kind]
	return Placeholders{
		Source:      tr(t, "triggerDesigner.sourcePlaceholder"+suffix, en[0]),
		Threshold:   tr(t, "triggerDesigner.thresholdPlaceholder"+suffix, en[1]),
		LeadTime:    tr(t, "triggerDesigner.leadTimePlaceholder"+suffix, en[2]),
		Probability: tr(t, "triggerDesigner.probabilityPlaceholder"+suffix, en[3]),
	}
}

var defaultTitles = [MaxPhases]string{
	"Minimum Operational Readiness Activities",
	"Advanced Operational Readiness Activities",
	"Triggering of Anticipatory Actions",
}

// DefaultTitle is the title given to a new phase at 1-based position n.
func DefaultTitle(n int, t Translator) string {
	if n < 1 || n > MaxPhases {
		return ""
	}
	return tr(t, "triggerDesigner.defaultPhase"+strconv.Itoa(n), defaultTitles[n-1])
}
