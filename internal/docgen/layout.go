// Package docgen turns a template and its answers into a Word (.docx)
// document: numbered headings, a summary table and one justified paragraph
// per answer line.
package docgen

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/schema"
)

// ErrNoSchema is returned when there is no usable template to export.
var ErrNoSchema = errors.New("no template to export")

// BlockKind identifies a layout block.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockHeading
	BlockParagraph
	BlockBlank
	BlockTable
)

// Row is one line of the summary table.
type Row struct {
	Label string
	Value string
}

// Block is one paragraph-level element of the document body.
type Block struct {
	Kind BlockKind
	// Level is the heading depth, 1 for top-level sections.
	Level int
	// Number is the dotted heading number; empty for unnumbered headings.
	Number string
	Text   string
	Rows   []Row
}

// Translator looks up localized strings.
type Translator interface {
	T(key string, subs map[string]string) string
}

// CountryNamer resolves stored country values to display names.
type CountryNamer interface {
	Name(lang, value string) string
}

func (g *Generator) text(key, fallback string) string {
	if g.t == nil {
		return fallback
	}
	if s := g.t.T(key, nil); s != "" && s != key {
		return s
	}
	return fallback
}

// Layout computes the body blocks of the document.
func (g *Generator) Layout(tpl *schema.Template, store *answers.Store) ([]Block, error) {
	if tpl == nil || len(tpl.Sections) == 0 {
		return nil, ErrNoSchema
	}
	if err := tpl.Validate(); err != nil {
		return nil, errors.Join(ErrNoSchema, err)
	}
	if store == nil {
		store = answers.New()
	}

	l := &layout{g: g, store: store}
	l.add(Block{Kind: BlockTitle, Text: g.Title()})
	l.blank(2)

	first := true
	if summary := tpl.Summary(); summary != nil {
		l.summary(summary)
		first = false
	}

	number := 0
	for _, sec := range tpl.Sections {
		if sec.ID == schema.SummaryID {
			continue
		}
		number++
		if !first {
			l.blank(2)
		}
		first = false
		l.section(sec, number)
	}
	return l.blocks, nil
}

type layout struct {
	g      *Generator
	store  *answers.Store
	blocks []Block
}

func (l *layout) add(b Block) {
	l.blocks = append(l.blocks, b)
}

func (l *layout) blank(n int) {
	for i := 0; i < n; i++ {
		l.add(Block{Kind: BlockBlank})
	}
}

func (l *layout) summary(sec *schema.Node) {
	title := sec.Title
	if title == "" {
		title = l.g.text("docx.summary", "Summary")
	}
	l.add(Block{Kind: BlockHeading, Level: 1, Text: title})
	l.blank(1)

	var rows []Row
	for _, c := range schema.Leaves(sec, nil) {
		if c.Node == sec {
			continue
		}
		rows = append(rows, Row{Label: c.Node.Title, Value: l.g.Answer(c.Node, l.store.Get(c.Path))})
	}
	if len(rows) == 0 {
		l.paragraphs(l.g.Answer(sec, l.store.Get(schema.Path{sec.ID})))
		return
	}
	l.add(Block{Kind: BlockTable, Rows: rows})
}

func (l *layout) section(sec *schema.Node, number int) {
	prefix := strconv.Itoa(number)
	_ = schema.WalkFrom(sec, nil, func(c schema.Cursor) error {
		num := prefix
		for _, n := range c.Numbers[1:] {
			num += "." + strconv.Itoa(n)
		}
		l.add(Block{Kind: BlockHeading, Level: c.Depth(), Number: num, Text: c.Node.Title})
		if c.Node.IsLeaf() || c.Node.HasChildren() {
			l.blank(1)
		}
		if c.Node.IsLeaf() {
			l.paragraphs(l.g.Answer(c.Node, l.store.Get(c.Path)))
			l.blank(1)
		}
		return nil
	}, nil)
}

// paragraphs emits one paragraph per line of text.
func (l *layout) paragraphs(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		l.add(Block{Kind: BlockParagraph})
		return
	}
	for _, line := range strings.Split(text, "\n") {
		l.add(Block{Kind: BlockParagraph, Text: line})
	}
}

// Answer formats a stored value for the document.
func (g *Generator) Answer(n *schema.Node, v answers.Value) string {
	if v.IsRaw() {
		return ""
	}
	switch n.Kind {
	case schema.KindDropdown:
		if n.ID == "country" && g.countries != nil {
			return g.countries.Name(g.lang, strings.TrimSpace(v.String()))
		}
	case schema.KindDatepicker:
		if iso, ok := i18n.NormalizeDate(v.String()); ok {
			return iso
		}
	case schema.KindNone, schema.KindText, schema.KindTextarea, schema.KindRadio,
		schema.KindCheckbox, schema.KindTriggerDesigner:
	}
	return v.String()
}
