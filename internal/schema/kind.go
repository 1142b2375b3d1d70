package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the input variant of a schema node.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindTextarea
	KindDropdown
	KindRadio
	KindCheckbox
	KindDatepicker
	KindTriggerDesigner
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindText:            "text",
	KindTextarea:        "textarea",
	KindDropdown:        "dropdown",
	KindRadio:           "radio",
	KindCheckbox:        "checkbox",
	KindDatepicker:      "datepicker",
	KindTriggerDesigner: "triggerdesigner",
}

// ParseKind maps a template type string onto a Kind, ignoring case.
// An empty string is a container.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return KindNone, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsInput reports whether nodes of this kind hold an answer.
func (k Kind) IsInput() bool {
	return k != KindNone
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if k == KindNone {
		return json.Marshal("")
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
