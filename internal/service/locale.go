package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/repository"
	"k8s.io/klog/v2"
)

// LocaleKey is the key-value entry holding the active language.
const LocaleKey = "locale"

var ErrUnsupportedLanguage = errors.New("unsupported language")

// LocaleService keeps the active interface language.
type LocaleService struct {
	kv     repository.KVRepository
	bundle *i18n.Bundle
	def    string
}

func NewLocaleService(kv repository.KVRepository, bundle *i18n.Bundle, defaultLanguage string) *LocaleService {
	if bundle == nil {
		bundle = i18n.Default()
	}
	def, ok := bundle.Match(defaultLanguage)
	if !ok {
		def = i18n.DefaultLanguage
	}
	return &LocaleService{kv: kv, bundle: bundle, def: def}
}

func (s *LocaleService) Bundle() *i18n.Bundle { return s.bundle }

// Current returns the stored language, or the default when none is stored
// or the stored value is unreadable.
func (s *LocaleService) Current() string {
	data, err := s.kv.Get(LocaleKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			klog.Warningf("read locale: %v", err)
		}
		return s.def
	}
	var lang string
	if err := json.Unmarshal(data, &lang); err != nil || !s.bundle.Supported(lang) {
		klog.Warningf("stored locale %q unusable, using %s", data, s.def)
		return s.def
	}
	return lang
}

// Set stores the language matching value ("fr", "french", "Français"...).
func (s *LocaleService) Set(value string) (string, error) {
	lang, ok := s.bundle.Match(value)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, value)
	}
	data, _ := json.Marshal(lang)
	if err := s.kv.Set(LocaleKey, data); err != nil {
		return "", err
	}
	return lang, nil
}

// Translator returns the translator of the active language.
func (s *LocaleService) Translator() *i18n.Translator {
	return s.bundle.Translator(s.Current())
}

func (s *LocaleService) Languages() []i18n.Language {
	return s.bundle.Catalog()
}
