package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `{
  "metadata": {"language": "english", "name": "WAHAFA"},
  "template": [
    {"id": "summary", "title": "Summary", "subsections": [
      {"id": "hazard", "title": "Hazard", "type": "Radio", "options": ["Flood", "Drought"], "required": true},
      {"id": "country", "title": "Country", "type": "dropdown"}
    ]},
    {"id": "risk", "title": "Risk analysis", "subsections": [
      {"id": "context", "title": "Context", "type": "textarea", "characterLimit": 500},
      {"id": "impacts", "title": "Impacts", "subsubsections": [
        {"id": "people", "title": "People", "type": "text"}
      ]}
    ]}
  ]
}`

func TestParseTemplate(t *testing.T) {
	tpl, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	assert.Equal(t, "english", tpl.Metadata.Language)
	require.Len(t, tpl.Sections, 2)
	assert.NotNil(t, tpl.Summary())

	hazard := tpl.Lookup(Path{"summary", "hazard"})
	require.NotNil(t, hazard)
	assert.Equal(t, KindRadio, hazard.Kind)
	assert.True(t, hazard.Required)
	assert.Equal(t, []string{"Flood", "Drought"}, hazard.Options)

	people := tpl.Lookup(Path{"risk", "impacts", "people"})
	require.NotNil(t, people)
	assert.Equal(t, KindText, people.Kind)

	impacts := tpl.Lookup(Path{"risk", "impacts"})
	assert.Equal(t, KindNone, impacts.Kind)
	assert.False(t, impacts.IsLeaf())
	assert.Nil(t, tpl.Lookup(Path{"risk", "missing"}))
	assert.Nil(t, tpl.Lookup(nil))
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"":                KindNone,
		"none":            KindNone,
		"TEXT":            KindText,
		"textarea":        KindTextarea,
		"Dropdown":        KindDropdown,
		"radio":           KindRadio,
		"checkbox":        KindCheckbox,
		"datepicker":      KindDatepicker,
		"TriggerDesigner": KindTriggerDesigner,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("slider")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`{"template":[{"id":"a","type":"slider"}]}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", `{"template":[]}`, ErrEmptyTemplate},
		{"missing id", `{"template":[{"title":"x"}]}`, ErrEmptyID},
		{"duplicate sibling", `{"template":[{"id":"a","children":[{"id":"b","type":"text"},{"id":"b","type":"text"}]}]}`, ErrDuplicateID},
		{"two summaries", `{"template":[{"id":"summary"},{"id":"summary"}]}`, ErrMultipleSummary},
		{"negative limit", `{"template":[{"id":"a","type":"text","characterLimit":-1}]}`, ErrNegativeLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// same id under different parents is allowed
	_, err := Parse([]byte(`{"template":[{"id":"a","children":[{"id":"x","type":"text"}]},{"id":"b","children":[{"id":"x","type":"text"}]}]}`))
	assert.NoError(t, err)
}

func TestKindJSON(t *testing.T) {
	data, err := KindCheckbox.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"checkbox"`, string(data))

	data, err = KindNone.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}
