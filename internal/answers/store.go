// Package answers holds the answers of one document instance, keyed by
// schema path, together with the codec for the persisted
// section -> subsection -> question layout.
package answers

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/aapbuilder/backend/internal/schema"
)

// Key is the legacy storage coordinate of a node.
type Key struct {
	Section    string
	Subsection string
	Question   string
}

// KeyOf derives the legacy key of a path. A node without a subsection repeats
// its id; beyond three levels the immediate parent becomes the middle key.
func KeyOf(p schema.Path) Key {
	switch len(p) {
	case 0:
		return Key{}
	case 1:
		return Key{p[0], p[0], p[0]}
	case 2:
		return Key{p[0], p[1], p[1]}
	default:
		return Key{p[0], p[len(p)-2], p[len(p)-1]}
	}
}

// Path is the canonical path addressed by a legacy key.
func (k Key) Path() schema.Path {
	switch {
	case k.Section == k.Subsection && k.Subsection == k.Question:
		return schema.Path{k.Section}
	case k.Subsection == k.Question:
		return schema.Path{k.Section, k.Subsection}
	default:
		return schema.Path{k.Section, k.Subsection, k.Question}
	}
}

const sep = "\x1f"

// Store maps schema paths to values. A missing entry reads as the empty string.
// Store is not safe for concurrent use.
type Store struct {
	values map[string]Value
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]Value)}
}

func encode(p schema.Path) string {
	return strings.Join(p, sep)
}

// Get returns the value at p.
func (s *Store) Get(p schema.Path) Value {
	if v, ok := s.Lookup(p); ok {
		return v
	}
	return Value{}
}

// Lookup is Get with a presence flag. Only the exact path matches; legacy
// entries are re-keyed once by Migrate.
func (s *Store) Lookup(p schema.Path) (Value, bool) {
	if s == nil || len(p) == 0 {
		return Value{}, false
	}
	v, ok := s.values[encode(p)]
	return v, ok
}

// Set stores v at p and returns the previous value.
func (s *Store) Set(p schema.Path, v Value) Value {
	old := s.Get(p)
	if len(p) == 0 {
		return old
	}
	s.values[encode(p)] = v
	return old
}

// Delete removes the value at p.
func (s *Store) Delete(p schema.Path) {
	delete(s.values, encode(p))
}

// Rename moves the entry at from to to. Nothing happens when from is unset
// or to already has an entry.
func (s *Store) Rename(from, to schema.Path) bool {
	if len(from) == 0 || len(to) == 0 || from.Equal(to) {
		return false
	}
	v, ok := s.values[encode(from)]
	if !ok {
		return false
	}
	if _, taken := s.values[encode(to)]; taken {
		return false
	}
	delete(s.values, encode(from))
	s.values[encode(to)] = v
	return true
}

// Canonical reports whether the legacy key of p addresses p itself, so that
// the entry can be written in the section -> subsection -> question layout.
func Canonical(p schema.Path) bool {
	return len(p) > 0 && KeyOf(p).Path().Equal(p)
}

// Migrate moves entries saved under a legacy key onto the schema node that
// key was derived from. Only nodes whose path the legacy layout cannot
// express are considered, and only when the legacy path is not itself a
// node of tpl and exactly one node claims it. It returns the number of
// entries moved.
func (s *Store) Migrate(tpl *schema.Template) int {
	if s == nil || tpl == nil {
		return 0
	}
	nodes := map[string]bool{}
	claims := map[string][]schema.Path{}
	_ = schema.Walk(tpl.Sections, func(c schema.Cursor) error {
		nodes[encode(c.Path)] = true
		if !Canonical(c.Path) {
			legacy := encode(KeyOf(c.Path).Path())
			claims[legacy] = append(claims[legacy], append(schema.Path(nil), c.Path...))
		}
		return nil
	}, nil)

	legacyKeys := make([]string, 0, len(claims))
	for k := range claims {
		legacyKeys = append(legacyKeys, k)
	}
	sort.Strings(legacyKeys)

	moved := 0
	for _, k := range legacyKeys {
		targets := claims[k]
		if nodes[k] || len(targets) != 1 {
			continue
		}
		if s.Rename(schema.Path(strings.Split(k, sep)), targets[0]) {
			moved++
		}
	}
	return moved
}

// Toggle adds item to the list at p, or removes it when present. The order
// of the remaining items is kept. It returns the new value.
func (s *Store) Toggle(p schema.Path, item string) Value {
	items := s.Get(p).Items()
	out := make([]string, 0, len(items)+1)
	found := false
	for _, it := range items {
		if it == item {
			found = true
			continue
		}
		out = append(out, it)
	}
	if !found {
		out = append(out, item)
	}
	v := List(out...)
	s.Set(p, v)
	return v
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.values)
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	out := New()
	for k, v := range s.values {
		switch v.kind {
		case kindList:
			out.values[k] = List(v.list...)
		case kindRaw:
			out.values[k] = Raw(v.raw)
		default:
			out.values[k] = v
		}
	}
	return out
}

type nested map[string]map[string]map[string]Value

// pathsBucket is the reserved section holding entries whose path has no
// legacy key of its own, e.g. {"$paths": {"$paths": {"s/a/b/c": "..."}}}.
const (
	pathsBucket  = "$paths"
	pathsJoinSep = "/"
)

// MarshalJSON writes the section -> subsection -> question layout.
func (s *Store) MarshalJSON() ([]byte, error) {
	out := nested{}
	put := func(sec, sub, q string, v Value) {
		if out[sec] == nil {
			out[sec] = map[string]map[string]Value{}
		}
		if out[sec][sub] == nil {
			out[sec][sub] = map[string]Value{}
		}
		out[sec][sub][q] = v
	}
	for k, v := range s.values {
		p := schema.Path(strings.Split(k, sep))
		if !Canonical(p) {
			put(pathsBucket, pathsBucket, p.Join(pathsJoinSep), v)
			continue
		}
		key := KeyOf(p)
		put(key.Section, key.Subsection, key.Question, v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the section -> subsection -> question layout.
func (s *Store) UnmarshalJSON(data []byte) error {
	var in nested
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.values = make(map[string]Value)
	for sec, subs := range in {
		if sec == pathsBucket {
			continue
		}
		for sub, questions := range subs {
			for q, v := range questions {
				s.values[encode(Key{sec, sub, q}.Path())] = v
			}
		}
	}
	// exact paths win over a legacy entry decoding to the same path
	for _, questions := range in[pathsBucket] {
		for q, v := range questions {
			if p := schema.ParsePath(q, pathsJoinSep); len(p) > 0 {
				s.values[encode(p)] = v
			}
		}
	}
	return nil
}

// Decode parses persisted answers. Empty input yields an empty store.
func Decode(data []byte) (*Store, error) {
	s := New()
	if len(strings.TrimSpace(string(data))) == 0 || string(data) == "null" {
		return s, nil
	}
	if err := s.UnmarshalJSON(data); err != nil {
		return New(), err
	}
	return s, nil
}
