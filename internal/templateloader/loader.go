// Package templateloader fetches template documents over HTTP and keeps the
// last good copy of each in the key-value store.
package templateloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aapbuilder/backend/internal/schema"
	"k8s.io/klog/v2"
)

// DefaultTimeout bounds a single fetch when the caller passes no client.
const DefaultTimeout = 15 * time.Second

// maxBody caps the size of a fetched template.
const maxBody = 8 << 20

// ErrNotCached is returned by Cached when no copy of the url is stored.
var ErrNotCached = errors.New("template not cached")

// Kind classifies a load failure.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindStatus          Kind = "status"
	KindDecode          Kind = "decode"
	KindMissingTemplate Kind = "missing-template"
	KindInvalid         Kind = "invalid"
)

// LoadError reports why a template could not be loaded.
type LoadError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load template %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsKind reports whether err is a LoadError of kind k.
func IsKind(err error, k Kind) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == k
}

// Cache stores raw template documents.
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// CacheKey is the store key of the cached copy of url.
func CacheKey(url string) string { return "template:" + url }

// Loader fetches templates.
type Loader struct {
	client *http.Client
	cache  Cache
}

// New returns a loader. A nil client gets DefaultTimeout; a nil cache
// disables caching.
func New(client *http.Client, cache Cache) *Loader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Loader{client: client, cache: cache}
}

// Load fetches and parses the template at url. On success the raw document
// is cached and Metadata.URL is set to url.
func (l *Loader) Load(ctx context.Context, url string) (*schema.Template, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &LoadError{URL: url, Kind: KindNetwork, Err: errors.New("empty url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{URL: url, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{URL: url, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{URL: url, Kind: KindStatus, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &LoadError{URL: url, Kind: KindNetwork, Err: err}
	}

	tpl, err := Decode(url, data)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		if err := l.cache.Set(CacheKey(url), data); err != nil {
			klog.Warningf("cache template %s: %v", url, err)
		}
	}
	klog.V(6).Infof("template loaded: url=%s, sections=%d, language=%s", url, len(tpl.Sections), tpl.Metadata.Language)
	return tpl, nil
}

// Cached returns the stored copy of url without touching the network.
func (l *Loader) Cached(url string) (*schema.Template, error) {
	if l.cache == nil {
		return nil, ErrNotCached
	}
	data, err := l.cache.Get(CacheKey(url))
	if err != nil || len(data) == 0 {
		return nil, ErrNotCached
	}
	return Decode(url, data)
}

// Get returns the cached copy of url, fetching it when none is stored or
// the stored copy no longer parses.
func (l *Loader) Get(ctx context.Context, url string) (*schema.Template, error) {
	tpl, err := l.Cached(url)
	if err == nil {
		return tpl, nil
	}
	if !errors.Is(err, ErrNotCached) {
		klog.Warningf("cached template %s unusable, refetching: %v", url, err)
	}
	return l.Load(ctx, url)
}

// Decode parses a raw template document fetched from url.
func Decode(url string, data []byte) (*schema.Template, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{URL: url, Kind: KindDecode, Err: err}
	}
	raw, ok := doc["template"]
	if !ok || string(raw) == "null" {
		return nil, &LoadError{URL: url, Kind: KindMissingTemplate, Err: errors.New(`no "template" key`)}
	}
	tpl, err := schema.Parse(data)
	if err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			return nil, &LoadError{URL: url, Kind: KindDecode, Err: err}
		}
		return nil, &LoadError{URL: url, Kind: KindInvalid, Err: err}
	}
	tpl.Metadata.URL = url
	return tpl, nil
}
