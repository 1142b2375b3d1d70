package templateloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aapbuilder/backend/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return v, nil
}

func (m *memCache) Set(key string, value []byte) error {
	m.sets++
	m.data[key] = value
	return nil
}

const validDoc = `{
  "metadata": {"language": "french", "shortName": "AAP"},
  "template": [
    {"id": "summary", "title": "Résumé", "subsections": [
      {"id": "hazard", "title": "Aléa", "type": "radio", "options": ["Inondation", "Sécheresse"]}
    ]},
    {"id": "risk", "title": "Risk", "type": "textarea", "characterLimit": 100}
  ]
}`

func serve(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLoadCachesDocument(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, validDoc)
	cache := newMemCache()
	l := New(srv.Client(), cache)

	tpl, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "french", tpl.Metadata.Language)
	assert.Equal(t, srv.URL, tpl.Metadata.URL)
	require.Len(t, tpl.Sections, 2)
	assert.Equal(t, schema.KindRadio, tpl.Summary().Child("hazard").Kind)
	assert.Contains(t, cache.data, CacheKey(srv.URL))

	again, err := l.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, again.Sections, 2)
	assert.Equal(t, 1, *hits)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"status", http.StatusNotFound, "nope", KindStatus},
		{"decode", http.StatusOK, "{not json", KindDecode},
		{"missing template", http.StatusOK, `{"metadata": {}}`, KindMissingTemplate},
		{"unknown type", http.StatusOK, `{"template": [{"id": "a", "type": "slider"}]}`, KindInvalid},
		{"duplicate ids", http.StatusOK, `{"template": [{"id": "a", "type": "text"}, {"id": "a", "type": "text"}]}`, KindInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := serve(t, tc.status, tc.body)
			cache := newMemCache()
			l := New(srv.Client(), cache)

			tpl, err := l.Load(context.Background(), srv.URL)
			assert.Nil(t, tpl)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tc.kind, le.Kind)
			assert.True(t, IsKind(err, tc.kind))
			assert.Zero(t, cache.sets)
		})
	}
}

func TestLoadNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(nil, nil).Load(context.Background(), url)
	assert.True(t, IsKind(err, KindNetwork))
}

func TestGetRefetchesCorruptCache(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, validDoc)
	cache := newMemCache()
	cache.data[CacheKey(srv.URL)] = []byte("{broken")
	l := New(srv.Client(), cache)

	tpl, err := l.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, tpl.Sections, 2)
	assert.Equal(t, 1, *hits)
}

func TestCachedWithoutStore(t *testing.T) {
	_, err := New(nil, nil).Cached("http://example.invalid/t.json")
	assert.ErrorIs(t, err, ErrNotCached)
}
