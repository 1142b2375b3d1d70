package answers

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ListSeparator joins list values wherever a single string is needed.
const ListSeparator = ", "

type valueKind uint8

const (
	kindText valueKind = iota
	kindList
	kindRaw
)

// Value is one stored answer: a string, an ordered list of strings, or an
// opaque JSON record. The zero Value is the empty string.
type Value struct {
	kind valueKind
	text string
	list []string
	raw  json.RawMessage
}

// Text returns a string value.
func Text(s string) Value {
	return Value{kind: kindText, text: s}
}

// List returns a list value. The items are copied.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: kindList, list: out}
}

// Raw wraps an arbitrary JSON document.
func Raw(data json.RawMessage) Value {
	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	return Value{kind: kindRaw, raw: cp}
}

// Record marshals v into a raw value.
func Record(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: kindRaw, raw: data}, nil
}

func (v Value) IsList() bool { return v.kind == kindList }
func (v Value) IsRaw() bool  { return v.kind == kindRaw }

// String returns the text, or the items joined with ListSeparator.
func (v Value) String() string {
	switch v.kind {
	case kindList:
		return strings.Join(v.list, ListSeparator)
	case kindRaw:
		return string(v.raw)
	default:
		return v.text
	}
}

// Items returns a copy of the list items. A non-empty text value is a one item list.
func (v Value) Items() []string {
	switch v.kind {
	case kindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case kindText:
		if v.text == "" {
			return nil
		}
		return []string{v.text}
	default:
		return nil
	}
}

// Contains reports whether item is one of the list items.
func (v Value) Contains(item string) bool {
	for _, it := range v.Items() {
		if it == item {
			return true
		}
	}
	return false
}

// Decode unmarshals a raw value into dst.
func (v Value) Decode(dst any) error {
	if v.kind != kindRaw || len(v.raw) == 0 {
		return json.Unmarshal([]byte("null"), dst)
	}
	return json.Unmarshal(v.raw, dst)
}

// IsEmpty reports whether the value counts as unanswered. Whitespace-only
// text and lists whose joined form is blank are empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case kindRaw:
		t := bytes.TrimSpace(v.raw)
		return len(t) == 0 || bytes.Equal(t, []byte("null")) ||
			bytes.Equal(t, []byte("[]")) || bytes.Equal(t, []byte("{}")) || bytes.Equal(t, []byte(`""`))
	default:
		return strings.TrimSpace(v.String()) == ""
	}
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != kindRaw && o.kind != kindRaw && v.IsEmpty() && o.IsEmpty() {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case kindRaw:
		return bytes.Equal(v.raw, o.raw)
	default:
		return v.text == o.text
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case kindRaw:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	default:
		return json.Marshal(v.text)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	t := bytes.TrimSpace(data)
	if len(t) > 0 {
		switch t[0] {
		case '"':
			var s string
			if err := json.Unmarshal(t, &s); err != nil {
				return err
			}
			*v = Text(s)
			return nil
		case '[':
			var items []string
			if err := json.Unmarshal(t, &items); err == nil {
				*v = Value{kind: kindList, list: items}
				return nil
			}
		}
	}
	*v = Raw(json.RawMessage(t))
	return nil
}
