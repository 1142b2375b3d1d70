// Package status classifies schema nodes as unstarted, in progress or
// complete from the answers stored beneath them.
package status

import (
	"strings"
	"unicode/utf8"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
)

// Status of a node.
type Status string

const (
	Unstarted  Status = "unstarted"
	InProgress Status = "inprogress"
	Complete   Status = "complete"
)

// Flags are the facts accumulated over a node's leaves.
type Flags struct {
	AnsweredAny     bool `json:"answeredAny"`
	MissingRequired bool `json:"missingRequired"`
	ExceededLimit   bool `json:"exceededLimit"`
	Leaves          int  `json:"leaves"`
	Answered        int  `json:"answered"`
}

// Status reduces the flags.
func (f Flags) Status() Status {
	switch {
	case !f.AnsweredAny:
		return Unstarted
	case f.MissingRequired || f.ExceededLimit:
		return InProgress
	default:
		return Complete
	}
}

// Length is the character count checked against a limit: trimmed text, or
// list items joined with ", ".
func Length(v answers.Value) int {
	return utf8.RuneCountInString(strings.TrimSpace(v.String()))
}

// OverLimit reports whether v exceeds the node's character limit.
func OverLimit(n *schema.Node, v answers.Value) bool {
	return n.CharacterLimit > 0 && Length(v) > n.CharacterLimit
}

// Inspect walks node (addressed by path) and accumulates flags over its leaves.
func Inspect(node *schema.Node, path schema.Path, store *answers.Store) Flags {
	var f Flags
	if node == nil {
		return f
	}
	_ = schema.WalkFrom(node, path.Parent(), func(c schema.Cursor) error {
		if !c.Node.IsLeaf() {
			return nil
		}
		f.Leaves++
		v := store.Get(c.Path)
		empty := v.IsEmpty()
		if !empty {
			f.AnsweredAny = true
			f.Answered++
		}
		if c.Node.Required && empty {
			f.MissingRequired = true
		}
		if OverLimit(c.Node, v) {
			f.ExceededLimit = true
		}
		return nil
	}, nil)
	return f
}

// Compute returns the status of a top-level section.
func Compute(section *schema.Node, store *answers.Store) Status {
	if section == nil {
		return Unstarted
	}
	return Inspect(section, schema.Path{section.ID}, store).Status()
}

// ComputeAt returns the status of the node at path.
func ComputeAt(node *schema.Node, path schema.Path, store *answers.Store) Status {
	return Inspect(node, path, store).Status()
}

// SectionReport is the status line of one top-level section.
type SectionReport struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
	Flags
}

// Summary aggregates a whole template.
type Summary struct {
	Sections   []SectionReport `json:"sections"`
	Unstarted  int             `json:"unstarted"`
	InProgress int             `json:"inProgress"`
	Complete   int             `json:"complete"`
}

// Report computes the status of every section.
func Report(sections []*schema.Node, store *answers.Store) Summary {
	out := Summary{Sections: make([]SectionReport, 0, len(sections))}
	for _, s := range sections {
		if s == nil {
			continue
		}
		f := Inspect(s, schema.Path{s.ID}, store)
		st := f.Status()
		out.Sections = append(out.Sections, SectionReport{ID: s.ID, Title: s.Title, Status: st, Flags: f})
		switch st {
		case Complete:
			out.Complete++
		case InProgress:
			out.InProgress++
		default:
			out.Unstarted++
		}
	}
	return out
}
