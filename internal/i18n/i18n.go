// Package i18n translates bot texts. Locales are embedded JSON maps of key to text.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLanguage is used when the user has no preference and as the lookup fallback.
const DefaultLanguage = "en"

// SupportedLanguages lists the embedded locales.
var SupportedLanguages = []string{"en", "uk"}

// Localizer holds the translations of every supported language.
type Localizer struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
}

// NewLocalizer loads all embedded locales.
func NewLocalizer() (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string, len(SupportedLanguages))}
	for _, lang := range SupportedLanguages {
		if err := l.load(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}
	return l, nil
}

func (l *Localizer) load(lang string) error {
	filename := "locales/" + lang + ".json"
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", filename, err)
	}

	var translations map[string]string
	if err = json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.translations[lang] = translations
	l.mu.Unlock()
	return nil
}

// Get returns the text of key in lang. Missing keys fall back to English, then to the key itself.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if text, ok := l.translations[lang][key]; ok {
		return text
	}
	if text, ok := l.translations[DefaultLanguage][key]; ok {
		return text
	}
	return key
}

// GetWithData returns the text of key with every {name} placeholder replaced from data.
func (l *Localizer) GetWithData(lang, key string, data map[string]any) string {
	text := l.Get(lang, key)
	if len(data) == 0 {
		return text
	}

	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Keys returns the sorted keys of a language, for locale consistency checks.
func (l *Localizer) Keys(lang string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.translations[lang]))
	for k := range l.translations[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeLanguageCode maps a Telegram language code such as "uk-UA" to a supported language.
func NormalizeLanguageCode(code string) string {
	prefix, _, _ := strings.Cut(strings.ToLower(code), "-")
	switch prefix {
	case "uk", "ua":
		return "uk"
	default:
		return DefaultLanguage
	}
}
