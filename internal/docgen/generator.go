package docgen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
)

// DefaultTitle is the document title when none is configured.
const DefaultTitle = "Anticipatory Action Protocol (AAP)"

// Generator renders documents for one language.
type Generator struct {
	title     string
	lang      string
	t         Translator
	countries CountryNamer
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithTitle overrides the document title.
func WithTitle(title string) Option {
	return func(g *Generator) { g.title = title }
}

// WithTranslator sets the language and its translator.
func WithTranslator(lang string, t Translator) Option {
	return func(g *Generator) {
		g.lang = lang
		g.t = t
	}
}

// WithCountries sets the country name resolver.
func WithCountries(c CountryNamer) Option {
	return func(g *Generator) { g.countries = c }
}

// WithClock sets the time source used for filenames and document properties.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a generator with English defaults.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{lang: "en", now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Title returns the document title.
func (g *Generator) Title() string {
	if g.title != "" {
		return g.title
	}
	return g.text("docx.title", DefaultTitle)
}

// Render produces the .docx bytes. Nothing is returned unless the whole
// document was written.
func (g *Generator) Render(tpl *schema.Template, store *answers.Store) ([]byte, error) {
	blocks, err := g.Layout(tpl, store)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := g.writePackage(buf, blocks); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

// Export renders the document and names it after the summary answers.
func (g *Generator) Export(tpl *schema.Template, store *answers.Store) ([]byte, string, error) {
	data, err := g.Render(tpl, store)
	if err != nil {
		return nil, "", err
	}
	if store == nil {
		store = answers.New()
	}
	country := store.Get(schema.Path{schema.SummaryID, "country"}).String()
	if g.countries != nil && strings.TrimSpace(country) != "" {
		country = g.countries.Name(g.lang, strings.TrimSpace(country))
	}
	return data, Filename(store, country, g.now()), nil
}

var unsafeFilename = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

func filenamePart(s, fallback string) string {
	s = strings.TrimSpace(unsafeFilename.ReplaceAllString(s, ""))
	if s == "" {
		return fallback
	}
	return s
}

// Filename builds AAP-{hazard}-{country}-{custodian}-{date_time}.docx from
// the summary answers. countryName is the display name of the country.
func Filename(store *answers.Store, countryName string, now time.Time) string {
	hazard := store.Get(schema.Path{schema.SummaryID, "hazard"}).String()
	custodian := store.Get(schema.Path{schema.SummaryID, "custodian-organisation"}).String()
	return fmt.Sprintf("AAP-%s-%s-%s-%s.docx",
		filenamePart(hazard, "UnknownHazard"),
		filenamePart(countryName, "UnknownCountry"),
		filenamePart(custodian, "UnknownCustodian"),
		now.Format("2006-01-02_15-04"),
	)
}
