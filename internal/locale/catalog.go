// Package locale renders notification texts from per-locale YAML catalogs.
package locale

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"relay/internal/logger"
)

var fileExtensions = []string{".yml", ".yaml"}

// Catalog loads locale files lazily from dir. Loaded catalogs are cached for
// the lifetime of the Catalog and never reloaded.
type Catalog struct {
	dir           string
	defaultLocale string
	logger        logger.Logger

	mu    sync.RWMutex
	cache map[string]map[string]interface{}
}

func NewCatalog(dir, defaultLocale string, log logger.Logger) *Catalog {
	return &Catalog{
		dir:           dir,
		defaultLocale: defaultLocale,
		logger:        log,
		cache:         make(map[string]map[string]interface{}),
	}
}

// Render looks key up as a dotted path in the catalog for locale and fills
// its {placeholders} from vars. It never fails: an unknown key, a non-string
// leaf or a template that cannot be filled yields key itself.
func (c *Catalog) Render(locale, key string, vars map[string]string) string {
	tmpl, ok := lookup(c.messages(locale), key)
	if !ok {
		return key
	}
	text, err := Format(tmpl, vars)
	if err != nil {
		return key
	}
	return text
}

// Preload loads the catalog for locale and reports whether any file for it
// or the default locale exists and parses.
func (c *Catalog) Preload(locale string) error {
	for _, candidate := range c.candidates(locale) {
		data, err := c.readFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		c.store(locale, data)
		return nil
	}
	return fmt.Errorf("no locale file for %q or default %q in %s", locale, c.defaultLocale, c.dir)
}

func (c *Catalog) messages(locale string) map[string]interface{} {
	c.mu.RLock()
	data, ok := c.cache[locale]
	c.mu.RUnlock()
	if ok {
		return data
	}

	data = map[string]interface{}{}
	for _, candidate := range c.candidates(locale) {
		loaded, err := c.readFile(candidate)
		if err == nil {
			data = loaded
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warnw("Skipping unreadable locale file", "locale", candidate, "error", err)
		}
	}
	return c.store(locale, data)
}

func (c *Catalog) store(locale string, data map[string]interface{}) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[locale]; ok {
		return existing
	}
	c.cache[locale] = data
	return data
}

// candidates returns the file names to try, most specific first:
// the locale as given, its canonical tag, its base language, the default.
func (c *Catalog) candidates(locale string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	add(locale)
	if tag, err := language.Parse(locale); err == nil {
		add(tag.String())
		add(strings.ReplaceAll(tag.String(), "-", "_"))
		if base, conf := tag.Base(); conf != language.No {
			add(base.String())
		}
	}
	add(c.defaultLocale)
	return out
}

func (c *Catalog) readFile(locale string) (map[string]interface{}, error) {
	if strings.ContainsAny(locale, `/\`) || strings.Contains(locale, "..") {
		return nil, os.ErrNotExist
	}

	for _, ext := range fileExtensions {
		path := filepath.Join(c.dir, locale+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", path, err)
		}

		data := map[string]interface{}{}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", path, err)
		}
		return data, nil
	}
	return nil, os.ErrNotExist
}

func lookup(data map[string]interface{}, key string) (string, bool) {
	var node interface{} = data
	for _, part := range strings.Split(key, ".") {
		switch m := node.(type) {
		case map[string]interface{}:
			next, ok := m[part]
			if !ok {
				return "", false
			}
			node = next
		case map[interface{}]interface{}:
			next, ok := m[part]
			if !ok {
				return "", false
			}
			node = next
		default:
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}
