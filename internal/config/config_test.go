package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app", "config.json")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.FileExists(t, path)

	again, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateFillsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http":{"api_access_key":"s3cret"},"import":{"batch_size":0}}`), 0o644))

	cfg, _, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.HTTP.APIAccessKey)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 20, cfg.Import.BatchSize)
	assert.Equal(t, "pl_PL", cfg.Import.Locale)
}

func TestLoadOrCreateBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

	_, _, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func writeFeed(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadFeeds(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "a.yaml", `
name: demo
user_id: tenant-1
url: https://shop.example.com/catalog.xml
format: shop_catalog
interval_seconds: 600
`)
	writeFeed(t, dir, "b.yml", `
user_id: tenant-2
url: https://shop.example.com/merchant.xml
enabled: false
`)
	writeFeed(t, dir, "notes.txt", "ignored")

	jobs, err := LoadFeeds(dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "demo", jobs[0].Name)
	assert.Equal(t, feed.FormatShopCatalog, jobs[0].Format)
	assert.Equal(t, 600, jobs[0].IntervalSeconds)
	assert.True(t, jobs[0].IsEnabled())

	assert.Equal(t, "b", jobs[1].Name)
	assert.Equal(t, feed.Format(0), jobs[1].Format)
	assert.Equal(t, DefaultFeedInterval, jobs[1].IntervalSeconds)
	assert.False(t, jobs[1].IsEnabled())
}

func TestLoadFeedsMissingDir(t *testing.T) {
	jobs, err := LoadFeeds(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestLoadFeedsValidation(t *testing.T) {
	cases := map[string]string{
		"no url":     "user_id: u\n",
		"bad scheme": "user_id: u\nurl: ftp://x/feed.xml\n",
		"no user":    "url: https://x/feed.xml\n",
		"bad format": "user_id: u\nurl: https://x/feed.xml\nformat: csv\n",
		"negative":   "user_id: u\nurl: https://x/feed.xml\ninterval_seconds: -5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFeed(t, dir, "feed.yaml", body)
			_, err := LoadFeeds(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadFeedsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "a.yaml", "name: x\nuser_id: u\nurl: https://x/1.xml\n")
	writeFeed(t, dir, "b.yaml", "name: x\nuser_id: u\nurl: https://x/2.xml\n")

	_, err := LoadFeeds(dir)
	assert.ErrorContains(t, err, "duplicate")
}
