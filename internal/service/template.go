package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/templateloader"
	"k8s.io/klog/v2"
)

var ErrTemplateNotFound = errors.New("template not found")

// TemplateService resolves catalog entries and loads template documents.
type TemplateService struct {
	cfg    *config.Config
	loader *templateloader.Loader
	locale *LocaleService
}

func NewTemplateService(cfg *config.Config, loader *templateloader.Loader, locale *LocaleService) *TemplateService {
	return &TemplateService{cfg: cfg, loader: loader, locale: locale}
}

// Catalog lists the built-in templates.
func (s *TemplateService) Catalog() []config.TemplateEntry {
	out := make([]config.TemplateEntry, len(s.cfg.Templates))
	copy(out, s.cfg.Templates)
	return out
}

// Resolve turns a catalog id or a URL into a URL.
func (s *TemplateService) Resolve(idOrURL string) (string, error) {
	v := strings.TrimSpace(idOrURL)
	if entry, ok := s.cfg.Template(v); ok {
		return entry.URL, nil
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, idOrURL)
}

// Load fetches the template at url and switches the interface language to
// the one named in its metadata.
func (s *TemplateService) Load(ctx context.Context, url string) (*schema.Template, error) {
	tpl, err := s.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	if lang := tpl.Metadata.Language; lang != "" && s.locale != nil {
		if got, err := s.locale.Set(lang); err != nil {
			klog.Warningf("template %s language %q: %v", url, lang, err)
		} else {
			klog.V(6).Infof("locale switched by template: %s", got)
		}
	}
	return tpl, nil
}

// Get returns the template at url, preferring the cached copy.
func (s *TemplateService) Get(ctx context.Context, url string) (*schema.Template, error) {
	return s.loader.Get(ctx, url)
}

// Cached returns the cached template without fetching.
func (s *TemplateService) Cached(url string) (*schema.Template, error) {
	return s.loader.Cached(url)
}

// DisplayName is the name shown for a template: its short name, its catalog
// name, or its URL.
func (s *TemplateService) DisplayName(url string, tpl *schema.Template) string {
	if tpl != nil {
		if tpl.Metadata.ShortName != "" {
			return tpl.Metadata.ShortName
		}
		if tpl.Metadata.Name != "" {
			return tpl.Metadata.Name
		}
	}
	for _, e := range s.cfg.Templates {
		if e.URL == url {
			return e.Name
		}
	}
	return url
}
