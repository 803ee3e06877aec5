package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*db.Store, *db.Handle) {
	t.Helper()
	h, err := db.Open("sqlite", filepath.Join(t.TempDir(), "feedsync.db"), false)
	require.NoError(t, err)
	require.NoError(t, h.Migrate())
	t.Cleanup(func() { _ = h.Close() })
	return db.NewStore(h.DB), h
}

// sampleResult: 2 kategorie, 3 produkty (P3 wskazuje nieznaną kategorię),
// atrybuty Color i Size.
func sampleResult() *feed.Result {
	attrs := feed.AttributeIndex{}
	attrs.AddRaw("Color", "P1", "Red, Blue")
	attrs.AddRaw("Color", "P2", "Blue")
	attrs.AddRaw("Size", "P2", "XL")
	attrs.AddRaw("Color", "GHOST", "Green")

	return &feed.Result{
		ProductCategories: []feed.ParsedCategory{
			{ID: "10", Name: "Knives"},
			{ID: "11", Name: "Boards"},
		},
		Products: []feed.ParsedProduct{
			{ID: "P1", Name: "Chef knife", CategoryID: "10", Price: decimal.RequireFromString("129.90"), AvailableNow: true},
			{ID: "P2", Name: "Oak board", CategoryID: "11", Price: decimal.RequireFromString("59.00")},
			{ID: "P3", Name: "Orphan", CategoryID: "99"},
		},
		Attributes: attrs,
		SourceURL:  "https://shop.example.com/feed.xml",
		ImportedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func catalogParser(t *testing.T) feed.Parser {
	t.Helper()
	p, err := feed.ParserFor(feed.FormatShopCatalog, feed.Options{})
	require.NoError(t, err)
	return p
}

// failingStore psuje wybrane kroki, reszta idzie do prawdziwej bazy.
type failingStore struct {
	*db.Store
	failCategoryInsert bool
	failConnections    bool
}

var errBoom = errors.New("boom")

func (f *failingStore) InsertCategories(ctx context.Context, rows []db.Category) ([]db.Category, error) {
	if f.failCategoryInsert {
		return nil, errBoom
	}
	return f.Store.InsertCategories(ctx, rows)
}

func (f *failingStore) InsertConnections(ctx context.Context, rows []db.AttributeProductConnection) error {
	if f.failConnections {
		return errBoom
	}
	return f.Store.InsertConnections(ctx, rows)
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
