package trigger

import (
	"fmt"
	"strings"
)

const (
	MinPhases = 1
	MaxPhases = 3
)

// Phase is one stage of a trigger mechanism.
type Phase struct {
	Title       string `json:"phaseTitle"`
	Source      string `json:"source"`
	Threshold   string `json:"threshold"`
	LeadTime    string `json:"leadTime"`
	Probability string `json:"probability"`
}

// Complete reports whether every field but the probability is filled.
func (p Phase) Complete() bool {
	return strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.Source) != "" &&
		strings.TrimSpace(p.Threshold) != "" &&
		strings.TrimSpace(p.LeadTime) != ""
}

// Field names as used by the JSON encoding and edit requests.
const (
	FieldTitle       = "phaseTitle"
	FieldSource      = "source"
	FieldThreshold   = "threshold"
	FieldLeadTime    = "leadTime"
	FieldProbability = "probability"
)

// With returns a copy of p with one field replaced.
func (p Phase) With(field, value string) (Phase, error) {
	switch field {
	case FieldTitle:
		p.Title = value
	case FieldSource:
		p.Source = value
	case FieldThreshold:
		p.Threshold = value
	case FieldLeadTime:
		p.LeadTime = value
	case FieldProbability:
		p.Probability = value
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return p, nil
}

// Statement renders a single phase at 1-based position n.
func (p Phase) Statement(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase %d (%s):\n", n, p.Title)
	fmt.Fprintf(&b, "When the %s forecasts %s at %s", p.Source, p.Threshold, p.LeadTime)
	if strings.TrimSpace(p.Probability) != "" {
		fmt.Fprintf(&b, " and with a %s", p.Probability)
	}
	b.WriteString(", actions will be taken.")
	return b.String()
}

// Render joins the statements of all phases with a blank line.
func Render(phases []Phase) string {
	parts := make([]string, len(phases))
	for i, p := range phases {
		parts[i] = p.Statement(i + 1)
	}
	return strings.Join(parts, "\n\n")
}
