package importer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/bartek5186/feedsync/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedURL = "https://shop.example.com/catalog.xml"

const catalogDoc = `<?xml version="1.0" encoding="UTF-8"?>
<catalog><products>
  <product>
    <id>P1</id><active>1</active><can_add_to_basket>1</can_add_to_basket>
    <category><id>10</id><name>Knives</name></category>
    <price>129,90</price>
    <translations><translation lang="pl_PL"><name>Nóż</name></translation></translations>
    <attribute_name>Color</attribute_name><attribute_values>Red,Blue</attribute_values>
  </product>
</products></catalog>`

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	b, ok := f[url]
	if !ok {
		return nil, &fetch.StatusError{URL: url, Code: 404}
	}
	return b, nil
}

func newService(t *testing.T, docs fakeFetcher) (*Service, *db.Store) {
	t.Helper()
	store, _ := openStore(t)
	return NewService(docs, store, nopLogger(), Config{DefaultFormat: feed.FormatShopCatalog}), store
}

func TestImportValidatesRequest(t *testing.T) {
	svc, _ := newService(t, fakeFetcher{})

	_, err := svc.Import(context.Background(), Request{UserID: "u1", URL: "  "})
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, err = svc.Import(context.Background(), Request{URL: feedURL})
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestImportFetchFailureIsFatal(t *testing.T) {
	svc, store := newService(t, fakeFetcher{})

	res, err := svc.Import(context.Background(), Request{UserID: "u1", URL: feedURL})
	require.Error(t, err)
	assert.Nil(t, res)
	var se *fetch.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.Code)

	runs, err := store.ListRuns(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestImportFormatMismatchIsFatal(t *testing.T) {
	svc, _ := newService(t, fakeFetcher{feedURL: []byte(catalogDoc)})

	_, err := svc.Import(context.Background(), Request{UserID: "u1", URL: feedURL, Format: feed.FormatGoogleMerchant})
	assert.ErrorIs(t, err, feed.ErrFormatMismatch)
}

func TestImportRecordsRun(t *testing.T) {
	svc, _ := newService(t, fakeFetcher{feedURL: []byte(catalogDoc)})
	ctx := context.Background()

	res, err := svc.Import(ctx, Request{UserID: "u1", URL: feedURL})
	require.NoError(t, err)
	assert.True(t, res.ImportSuccess)
	assert.Equal(t, Stats{InsertedProductCategories: 1, InsertedProducts: 1}, res.Stats)

	res, err = svc.Import(ctx, Request{UserID: "u1", URL: feedURL})
	require.NoError(t, err)
	assert.Equal(t, Stats{UpdatedProductCategories: 1, UpdatedProducts: 1}, res.Stats)

	runs, err := svc.Runs(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, db.RunDone, runs[0].Status)
	assert.Equal(t, "shop_catalog", runs[0].Format)
	assert.Equal(t, 1, runs[0].UpdatedProducts)
	assert.Len(t, runs[0].SHA256, 64)
	assert.NotNil(t, runs[0].FinishedAt)

	_, err = svc.Runs(ctx, "", 0)
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestImportResultJSON(t *testing.T) {
	b, err := json.Marshal(&ImportResult{Stats: Stats{InsertedProducts: 2}, ImportSuccess: true, Errors: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stats":{"insertedProductCategories":0,"insertedProducts":2,
		"updatedProductCategories":0,"updatedProducts":0},"importSuccess":true,"errors":[]}`, string(b))
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, db.RunDone, runStatus(&ImportResult{ImportSuccess: true}))
	assert.Equal(t, db.RunPartial, runStatus(&ImportResult{Stats: Stats{InsertedProducts: 1}}))
	assert.Equal(t, db.RunFailed, runStatus(&ImportResult{}))
}
