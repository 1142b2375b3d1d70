// Package schema models protocol templates: a recursive tree of sections,
// subsections and sub-subsections whose leaves are typed inputs.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SummaryID is the reserved id of the summary section.
const SummaryID = "summary"

var (
	ErrUnknownKind     = errors.New("unknown node type")
	ErrEmptyID         = errors.New("node id is empty")
	ErrDuplicateID     = errors.New("duplicate sibling id")
	ErrNegativeLimit   = errors.New("negative character limit")
	ErrMultipleSummary = errors.New("more than one summary section")
	ErrEmptyTemplate   = errors.New("template has no sections")
)

// Node is one level of the template tree.
type Node struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Kind           Kind     `json:"type,omitempty"`
	Options        []string `json:"options,omitempty"`
	Required       bool     `json:"required,omitempty"`
	CharacterLimit int      `json:"characterLimit,omitempty"`
	Hint           string   `json:"hint,omitempty"`
	Example        string   `json:"example,omitempty"`
	Placeholder    string   `json:"placeholder,omitempty"`
	Children       []*Node  `json:"children,omitempty"`
}

// nodeJSON accepts the child keys used by the published template files.
type nodeJSON struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	Required       bool     `json:"required"`
	CharacterLimit int      `json:"characterLimit"`
	Hint           string   `json:"hint"`
	Example        string   `json:"example"`
	Placeholder    string   `json:"placeholder"`
	Children       []*Node  `json:"children"`
	Subsections    []*Node  `json:"subsections"`
	Subsubsections []*Node  `json:"subsubsections"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Type)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	*n = Node{
		ID:             raw.ID,
		Title:          raw.Title,
		Kind:           kind,
		Options:        raw.Options,
		Required:       raw.Required,
		CharacterLimit: raw.CharacterLimit,
		Hint:           raw.Hint,
		Example:        raw.Example,
		Placeholder:    raw.Placeholder,
	}
	n.Children = append(n.Children, raw.Children...)
	n.Children = append(n.Children, raw.Subsections...)
	n.Children = append(n.Children, raw.Subsubsections...)
	return nil
}

// IsLeaf reports whether the node carries an input.
func (n *Node) IsLeaf() bool {
	return n.Kind.IsInput()
}

// HasChildren reports whether the node has nested nodes.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Child returns the direct child with the given id.
func (n *Node) Child(id string) *Node {
	for _, c := range n.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Metadata is the template header. Only Language is interpreted.
type Metadata struct {
	Language  string `json:"language,omitempty"`
	Name      string `json:"name,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	Version   string `json:"version,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Template is a parsed template document.
type Template struct {
	Metadata Metadata `json:"metadata"`
	Sections []*Node  `json:"template"`
}

// Section returns the top-level section with the given id.
func (t *Template) Section(id string) *Node {
	for _, s := range t.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Summary returns the summary section, or nil.
func (t *Template) Summary() *Node {
	return t.Section(SummaryID)
}

// Lookup resolves a path to a node.
func (t *Template) Lookup(p Path) *Node {
	if len(p) == 0 {
		return nil
	}
	node := t.Section(p[0])
	for _, id := range p[1:] {
		if node == nil {
			return nil
		}
		node = node.Child(id)
	}
	return node
}

// Validate checks the structural invariants of the template.
func (t *Template) Validate() error {
	if len(t.Sections) == 0 {
		return ErrEmptyTemplate
	}
	summaries := 0
	for _, s := range t.Sections {
		if s != nil && s.ID == SummaryID {
			summaries++
		}
	}
	if summaries > 1 {
		return ErrMultipleSummary
	}
	return validateSiblings(t.Sections, nil)
}

func validateSiblings(nodes []*Node, parent Path) error {
	seen := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("%s[%d]: nil node", parent, i)
		}
		if n.ID == "" {
			return fmt.Errorf("%s[%d]: %w", parent, i, ErrEmptyID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%s: %w: %q", parent, ErrDuplicateID, n.ID)
		}
		seen[n.ID] = struct{}{}
		if n.CharacterLimit < 0 {
			return fmt.Errorf("%s: %w", parent.Child(n.ID), ErrNegativeLimit)
		}
		if err := validateSiblings(n.Children, parent.Child(n.ID)); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes and validates a template document.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
