// Package country supplies the localized, collated country list used by the
// country dropdown and the document export.
package country

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Country is one entry of the reference list.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Provider builds country lists per language and caches them.
type Provider struct {
	mu    sync.Mutex
	lists map[string][]Country
	known map[string]struct{}
}

// NewProvider returns a provider over the ISO 3166-1 alpha-2 codes.
func NewProvider() *Provider {
	known := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		known[c] = struct{}{}
	}
	return &Provider{lists: make(map[string][]Country), known: known}
}

// Known reports whether code is a supported country code.
func (p *Provider) Known(code string) bool {
	_, ok := p.known[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

func namer(lang string) display.Namer {
	tag := language.Make(lang)
	if n := display.Regions(tag); n != nil {
		return n
	}
	return display.English.Regions()
}

// Countries returns every country named and sorted for lang.
func (p *Provider) Countries(lang string) []Country {
	p.mu.Lock()
	defer p.mu.Unlock()
	if list, ok := p.lists[lang]; ok {
		return append([]Country(nil), list...)
	}

	n := namer(lang)
	list := make([]Country, 0, len(codes))
	for _, code := range codes {
		list = append(list, Country{Code: code, Name: regionName(n, code)})
	}
	col := collate.New(language.Make(lang), collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(list, func(i, j int) bool {
		return col.CompareString(list[i].Name, list[j].Name) < 0
	})
	p.lists[lang] = list
	return append([]Country(nil), list...)
}

func regionName(n display.Namer, code string) string {
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := n.Name(region); name != "" {
		return name
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}

// Name resolves a stored country value to its display name in lang. Values
// that are not known codes (older files stored the name itself) are
// returned unchanged.
func (p *Provider) Name(lang, value string) string {
	code := strings.ToUpper(strings.TrimSpace(value))
	if !p.Known(code) {
		return value
	}
	return regionName(namer(lang), code)
}

// Lookup finds the code of a country given its code or display name in any
// of langs.
func (p *Provider) Lookup(value string, langs ...string) (string, bool) {
	v := strings.TrimSpace(value)
	if p.Known(v) {
		return strings.ToUpper(v), true
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	for _, lang := range langs {
		for _, c := range p.Countries(lang) {
			if strings.EqualFold(c.Name, v) {
				return c.Code, true
			}
		}
	}
	return "", false
}
