package form

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/aapbuilder/backend/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSettings map[string]bool

func (m mapSettings) HintVisible(key string) bool    { return m[key] }
func (m mapSettings) ExampleVisible(key string) bool { return m[key] }
func (m mapSettings) Expanded(key string) bool       { return m[key] }

func newRenderer() *Renderer {
	return NewRenderer(country.NewProvider(), i18n.Default())
}

func summaryNode() *schema.Node {
	return &schema.Node{ID: "summary", Title: "Summary", Children: []*schema.Node{
		{ID: "hazard", Title: "Hazard", Kind: schema.KindRadio, Options: []string{"Flood", "Drought", "Cyclone"}},
		{ID: "country", Title: "Country", Kind: schema.KindDropdown},
		{ID: "start", Title: "Start date", Kind: schema.KindDatepicker},
		{ID: "sectors", Title: "Sectors", Kind: schema.KindCheckbox, Options: []string{"Health", "WASH", "Shelter"}},
		{ID: "level", Title: "Level", Kind: schema.KindDropdown, Options: []string{"National", "District"}},
		{ID: "empty"},
	}}
}

func TestApplyRoundTrip(t *testing.T) {
	r := newRenderer()
	sec := summaryNode()
	store := answers.New()

	cases := []struct {
		id   string
		edit Edit
		want answers.Value
	}{
		{"hazard", Edit{Value: "Flood"}, answers.Text("Flood")},
		{"level", Edit{Value: "District"}, answers.Text("District")},
		{"sectors", Edit{Values: []string{"WASH", "Health"}}, answers.List("WASH", "Health")},
		{"country", Edit{Value: "KE"}, answers.Text("KE")},
		{"start", Edit{Value: "2025-01-31"}, answers.Text("2025-01-31")},
	}
	for _, tc := range cases {
		p := schema.Path{"summary", tc.id}
		_, err := r.Apply(store, sec.Child(tc.id), p, tc.edit, "en")
		require.NoError(t, err, tc.id)
		got := store.Get(p)
		assert.True(t, tc.want.Equal(got), "%s: got %v", tc.id, got)
	}

	text := &schema.Node{ID: "context", Kind: schema.KindTextarea}
	p := schema.Path{"risk", "context"}
	_, err := r.Apply(store, text, p, Edit{Value: "  line 1\nline 2  "}, "en")
	require.NoError(t, err)
	assert.Equal(t, "  line 1\nline 2  ", store.Get(p).String())
}

func TestApplyCheckboxToggle(t *testing.T) {
	r := newRenderer()
	node := summaryNode().Child("sectors")
	p := schema.Path{"summary", "sectors"}
	store := answers.New()

	for _, opt := range []string{"Health", "WASH", "Shelter", "WASH"} {
		_, err := r.Apply(store, node, p, Edit{Toggle: opt}, "en")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Health", "Shelter"}, store.Get(p).Items())

	_, err := r.Apply(store, node, p, Edit{Toggle: "Food"}, "en")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, []string{"Health", "Shelter"}, store.Get(p).Items())
}

func TestApplyRadioToggleClears(t *testing.T) {
	r := newRenderer()
	node := summaryNode().Child("hazard")
	p := schema.Path{"summary", "hazard"}
	store := answers.New()

	_, err := r.Apply(store, node, p, Edit{Toggle: "Flood"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "Flood", store.Get(p).String())
	_, err = r.Apply(store, node, p, Edit{Toggle: "Flood"}, "en")
	require.NoError(t, err)
	assert.True(t, store.Get(p).IsEmpty())
}

func TestApplyErrorsLeaveStore(t *testing.T) {
	r := newRenderer()
	sec := summaryNode()
	store := answers.New()
	store.Set(schema.Path{"summary", "hazard"}, answers.Text("Flood"))
	store.Set(schema.Path{"summary", "start"}, answers.Text("2024-01-01"))

	_, err := r.Apply(store, sec.Child("hazard"), schema.Path{"summary", "hazard"}, Edit{Value: "Tsunami"}, "en")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, "Flood", store.Get(schema.Path{"summary", "hazard"}).String())

	_, err = r.Apply(store, sec.Child("country"), schema.Path{"summary", "country"}, Edit{Value: "Atlantis"}, "en")
	assert.ErrorIs(t, err, ErrUnknownCountry)

	_, err = r.Apply(store, sec.Child("start"), schema.Path{"summary", "start"}, Edit{Value: "someday"}, "en")
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Equal(t, "2024-01-01", store.Get(schema.Path{"summary", "start"}).String())

	_, err = r.Apply(store, sec, schema.Path{"summary"}, Edit{Value: "x"}, "en")
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestApplyLocaleDateAndCountryName(t *testing.T) {
	r := newRenderer()
	sec := summaryNode()
	store := answers.New()

	_, err := r.Apply(store, sec.Child("start"), schema.Path{"summary", "start"}, Edit{Value: "31/01/2025"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", store.Get(schema.Path{"summary", "start"}).String())

	_, err = r.Apply(store, sec.Child("country"), schema.Path{"summary", "country"}, Edit{Value: "Allemagne"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, "DE", store.Get(schema.Path{"summary", "country"}).String())
}

func TestBuildTree(t *testing.T) {
	r := newRenderer()
	store := answers.New()
	store.Set(schema.Path{"summary", "hazard"}, answers.Text("Drought"))
	store.Set(schema.Path{"summary", "country"}, answers.Text("KE"))
	store.Set(schema.Path{"summary", "start"}, answers.Text("2025-01-31"))

	w := r.Build(summaryNode(), schema.Path{"summary"}, store, nil, "en")
	require.NotNil(t, w)
	require.Len(t, w.Children, 5, "node without input or children is dropped")
	assert.Equal(t, status.Complete, w.Status)

	hz := w.Children[0]
	assert.Equal(t, "radio", hz.KindName())
	require.Len(t, hz.Options, 3)
	assert.Equal(t, "flood", hz.Options[0].Icon)
	assert.True(t, hz.Options[1].Selected)

	c := w.Children[1]
	assert.Equal(t, "Kenya", c.Display)
	assert.NotEmpty(t, c.Options)

	d := w.Children[2]
	assert.Equal(t, "31/01/2025", d.Display)
	assert.Equal(t, "summary.start", d.Field)

	assert.Nil(t, r.Build(&schema.Node{ID: "x"}, schema.Path{"x"}, store, nil, "en"))
}

func TestHintVisibilityIsPerNode(t *testing.T) {
	r := newRenderer()
	sec := &schema.Node{ID: "s", Children: []*schema.Node{
		{ID: "a", Kind: schema.KindText, Hint: "<b>bold</b><script>alert(1)</script>", Example: "ex"},
		{ID: "b", Kind: schema.KindText, Hint: "other"},
	}}
	settings := mapSettings{HintKey(schema.Path{"s", "a"}): true}

	w := r.Build(sec, schema.Path{"s"}, answers.New(), settings, "en")
	require.Len(t, w.Children, 2)
	assert.True(t, w.Children[0].HintVisible)
	assert.False(t, w.Children[0].ExampleVisible)
	assert.False(t, w.Children[1].HintVisible)
	assert.Contains(t, string(w.Children[0].Hint), "<b>bold</b>")
	assert.NotContains(t, string(w.Children[0].Hint), "script")
}

func TestSettingKeysOfSlugIDsDoNotCollide(t *testing.T) {
	a := schema.Path{"risk-analysis", "context"}
	b := schema.Path{"risk", "analysis-context"}
	assert.NotEqual(t, HintKey(a), HintKey(b))
	assert.NotEqual(t, ExampleKey(a), ExampleKey(b))
	assert.NotEqual(t, ExpandKey(a), ExpandKey(b))
	assert.Equal(t, "hint-risk-analysis.context", HintKey(a))

	r := newRenderer()
	sec := &schema.Node{ID: "risk", Children: []*schema.Node{
		{ID: "analysis-context", Kind: schema.KindText, Hint: "h"},
	}}
	w := r.Build(sec, schema.Path{"risk"}, answers.New(), mapSettings{HintKey(a): true}, "en")
	require.Len(t, w.Children, 1)
	assert.False(t, w.Children[0].HintVisible)

	legacy := LegacySettingKeys(a)
	assert.Equal(t, HintKey(a), legacy["hint-risk-analysis-context"])
	assert.Equal(t, ExpandKey(a), legacy["expand-risk-analysis-context"])
}

func TestTextareaExpansion(t *testing.T) {
	r := newRenderer()
	node := &schema.Node{ID: "q", Kind: schema.KindTextarea, CharacterLimit: 10}
	p := schema.Path{"s", "q"}
	store := answers.New()
	store.Set(p, answers.Text("short"))

	w := r.Build(node, p, store, mapSettings{ExpandKey(p): true}, "en")
	assert.False(t, w.Expandable)
	assert.False(t, w.Expanded)
	assert.Equal(t, 5, w.Count)

	store.Set(p, answers.Text(strings.Repeat("line\n", 6)))
	w = r.Build(node, p, store, mapSettings{ExpandKey(p): true}, "en")
	assert.True(t, w.Expandable)
	assert.True(t, w.Expanded)
	assert.True(t, w.OverLimit)

	assert.Equal(t, 2, estimateLines(strings.Repeat("x", charsPerLine+1)))
}

func TestTriggerWidget(t *testing.T) {
	r := newRenderer()
	node := &schema.Node{ID: "trigger", Kind: schema.KindTriggerDesigner}
	p := schema.Path{"risk", "trigger"}
	store := answers.New()

	w := r.Build(node, p, store, nil, "en")
	require.NotNil(t, w.Trigger)
	assert.False(t, w.Trigger.HasHazard)

	store.Set(trigger.HazardPath, answers.Text("Cyclone"))
	w = r.Build(node, p, store, nil, "en")
	assert.True(t, w.Trigger.HasHazard)
	assert.Equal(t, "cyclone", w.Trigger.HazardIcon)
	require.Len(t, w.Trigger.Phases, 1)
	assert.Equal(t, "e.g. Meteorological Department", w.Trigger.Placeholders.Source)
	assert.True(t, w.Trigger.GeneratorVisible)
	assert.False(t, w.Trigger.CanGenerate)
}

func TestRenderSection(t *testing.T) {
	r := newRenderer()
	store := answers.New()
	store.Set(schema.Path{"summary", "hazard"}, answers.Text("Flood"))
	w := r.Build(summaryNode(), schema.Path{"summary"}, store, nil, "fr")

	var buf bytes.Buffer
	err := r.RenderSection(&buf, SectionView{FileID: "f1", Step: 0, Total: 2, Widget: w, Status: w.Status}, "fr")
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, `id="field-summary-hazard"`)
	assert.Contains(t, html, "choice--selected")
	assert.Contains(t, html, "Sélectionnez un pays")
	assert.Contains(t, html, "/files/f1/steps/1")

	buf.Reset()
	require.NoError(t, r.RenderWidget(&buf, "f1", w.Children[0], "en"))
	assert.Contains(t, buf.String(), "hazard-icon--flood")
}
