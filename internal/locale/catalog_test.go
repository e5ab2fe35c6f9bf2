package locale

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"relay/internal/logger"
)

func writeLocale(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	writeLocale(t, dir, "ru.yml", `
notifications:
  support_new_message: "Новое сообщение от {user_name} для {assignee_name}: {link}"
  nested:
    count: 3
  broken: "Hello {unknown}"
`)
	writeLocale(t, dir, "en.yaml", `
notifications:
  support_new_message: "New message from {user_name} for {assignee_name}: {link}"
`)
	return NewCatalog(dir, "ru", logger.NopLogger()), dir
}

var vars = map[string]string{
	"user_name":     "Alice",
	"assignee_name": "Bob",
	"link":          "https://x/app/accounts/9/conversations/5",
}

func TestRender(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	tests := []struct {
		name   string
		locale string
		key    string
		want   string
	}{
		{
			name:   "default locale",
			locale: "ru",
			key:    "notifications.support_new_message",
			want:   "Новое сообщение от Alice для Bob: https://x/app/accounts/9/conversations/5",
		},
		{
			name:   "yaml extension",
			locale: "en",
			key:    "notifications.support_new_message",
			want:   "New message from Alice for Bob: https://x/app/accounts/9/conversations/5",
		},
		{
			name:   "region falls back to base language",
			locale: "en-GB",
			key:    "notifications.support_new_message",
			want:   "New message from Alice for Bob: https://x/app/accounts/9/conversations/5",
		},
		{
			name:   "unknown locale falls back to default",
			locale: "de",
			key:    "notifications.support_new_message",
			want:   "Новое сообщение от Alice для Bob: https://x/app/accounts/9/conversations/5",
		},
		{
			name:   "missing key returns key",
			locale: "ru",
			key:    "notifications.nope",
			want:   "notifications.nope",
		},
		{
			name:   "path through a leaf returns key",
			locale: "ru",
			key:    "notifications.support_new_message.deeper",
			want:   "notifications.support_new_message.deeper",
		},
		{
			name:   "non-string leaf returns key",
			locale: "ru",
			key:    "notifications.nested.count",
			want:   "notifications.nested.count",
		},
		{
			name:   "map leaf returns key",
			locale: "ru",
			key:    "notifications.nested",
			want:   "notifications.nested",
		},
		{
			name:   "missing placeholder value returns key",
			locale: "ru",
			key:    "notifications.broken",
			want:   "notifications.broken",
		},
		{
			name:   "path traversal is ignored",
			locale: "../ru",
			key:    "notifications.support_new_message",
			want:   "Новое сообщение от Alice для Bob: https://x/app/accounts/9/conversations/5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.Render(tt.locale, tt.key, vars))
		})
	}
}

func TestRenderNoCatalogs(t *testing.T) {
	catalog := NewCatalog(t.TempDir(), "ru", logger.NopLogger())
	assert.Equal(t, "notifications.support_new_message", catalog.Render("ru", "notifications.support_new_message", vars))
}

func TestRenderMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "ru.yml", "notifications: [unclosed")
	catalog := NewCatalog(dir, "ru", logger.NopLogger())
	assert.Equal(t, "notifications.support_new_message", catalog.Render("ru", "notifications.support_new_message", vars))
}

func TestRenderBrokenLocaleFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "ru.yml", "notifications:\n  greeting: \"hi {user_name}\"\n")
	writeLocale(t, dir, "en.yml", "notifications: [unclosed")

	core, logs := observer.New(zapcore.WarnLevel)
	catalog := NewCatalog(dir, "ru", logger.FromZap(zap.New(core)))

	assert.Equal(t, "hi Alice", catalog.Render("en", "notifications.greeting", vars))
	assert.Equal(t, "hi Alice", catalog.Render("de", "notifications.greeting", vars))

	warnings := logs.FilterMessage("Skipping unreadable locale file").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "en", warnings[0].ContextMap()["locale"])
}

func TestCatalogIsMemoized(t *testing.T) {
	catalog, dir := newTestCatalog(t)
	first := catalog.Render("ru", "notifications.support_new_message", vars)

	require.NoError(t, os.Remove(filepath.Join(dir, "ru.yml")))
	assert.Equal(t, first, catalog.Render("ru", "notifications.support_new_message", vars))
}

func TestCatalogConcurrentAccess(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(locale string) {
			defer wg.Done()
			assert.NotEmpty(t, catalog.Render(locale, "notifications.support_new_message", vars))
		}([]string{"ru", "en", "de"}[i%3])
	}
	wg.Wait()
}

func TestPreload(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	assert.NoError(t, catalog.Preload("en"))
	assert.NoError(t, catalog.Preload("fr"))

	empty := NewCatalog(t.TempDir(), "ru", logger.NopLogger())
	assert.Error(t, empty.Preload("ru"))
}

func TestShippedCatalogs(t *testing.T) {
	catalog := NewCatalog(filepath.Join("..", "..", "locales"), "ru", logger.NopLogger())
	for _, locale := range []string{"ru", "en"} {
		text := catalog.Render(locale, "notifications.support_new_message", vars)
		assert.Contains(t, text, "Alice", locale)
		assert.Contains(t, text, vars["link"], locale)
	}
}
