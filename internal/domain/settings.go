package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSetting is returned for a settings key without a known prefix.
var ErrUnknownSetting = errors.New("unknown setting")

const (
	hintPrefix    = "hint-"
	examplePrefix = "example-"
	expandPrefix  = "expand-"
)

// Settings holds the per-instance display state of hints, examples and
// expandable text areas.
type Settings struct {
	TextExpansion            map[string]bool `json:"textExpansion"`
	HintsVisibility          map[string]bool `json:"hintsVisibility"`
	ExamplesVisibility       map[string]bool `json:"examplesVisibility"`
	AlwaysDisplayAllHints    bool            `json:"alwaysDisplayAllHints"`
	AlwaysDisplayAllExamples bool            `json:"alwaysDisplayAllExamples"`
}

// NewSettings returns settings with every map allocated.
func NewSettings() *Settings {
	s := &Settings{}
	s.normalize()
	return s
}

func (s *Settings) normalize() {
	if s.TextExpansion == nil {
		s.TextExpansion = map[string]bool{}
	}
	if s.HintsVisibility == nil {
		s.HintsVisibility = map[string]bool{}
	}
	if s.ExamplesVisibility == nil {
		s.ExamplesVisibility = map[string]bool{}
	}
}

func (s *Settings) HintVisible(key string) bool {
	return s.AlwaysDisplayAllHints || s.HintsVisibility[key]
}

func (s *Settings) ExampleVisible(key string) bool {
	return s.AlwaysDisplayAllExamples || s.ExamplesVisibility[key]
}

func (s *Settings) Expanded(key string) bool {
	return s.TextExpansion[key]
}

func (s *Settings) flags(key string) (map[string]bool, error) {
	s.normalize()
	switch {
	case strings.HasPrefix(key, hintPrefix):
		return s.HintsVisibility, nil
	case strings.HasPrefix(key, examplePrefix):
		return s.ExamplesVisibility, nil
	case strings.HasPrefix(key, expandPrefix):
		return s.TextExpansion, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
}

// Toggle flips the stored flag of key and returns its new value. Only the
// node named by key is affected; the always-display flags are not.
func (s *Settings) Toggle(key string) (bool, error) {
	m, err := s.flags(key)
	if err != nil {
		return false, err
	}
	m[key] = !m[key]
	return m[key], nil
}

// Set stores the flag of key.
func (s *Settings) Set(key string, v bool) error {
	m, err := s.flags(key)
	if err != nil {
		return err
	}
	m[key] = v
	return nil
}

// Rename moves the flag stored under from to to. It does nothing when from
// is unset or to already has a flag.
func (s *Settings) Rename(from, to string) bool {
	src, err := s.flags(from)
	if err != nil {
		return false
	}
	dst, err := s.flags(to)
	if err != nil || from == to {
		return false
	}
	v, ok := src[from]
	if !ok {
		return false
	}
	if _, taken := dst[to]; taken {
		return false
	}
	delete(src, from)
	dst[to] = v
	return true
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	out := &Settings{
		AlwaysDisplayAllHints:    s.AlwaysDisplayAllHints,
		AlwaysDisplayAllExamples: s.AlwaysDisplayAllExamples,
		TextExpansion:            copyFlags(s.TextExpansion),
		HintsVisibility:          copyFlags(s.HintsVisibility),
		ExamplesVisibility:       copyFlags(s.ExamplesVisibility),
	}
	return out
}

func copyFlags(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
