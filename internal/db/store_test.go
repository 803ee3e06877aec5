package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) (*Store, *Handle) {
	t.Helper()
	h, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	require.NoError(t, h.Migrate())
	t.Cleanup(func() { _ = h.Close() })
	return NewStore(h.DB), h
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x", false)
	assert.Error(t, err)
}

func TestStoreReadsAreTenantScoped(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	_, err := s.InsertCategories(ctx, []Category{
		{XMLID: "10", Name: "A", User: "u1"},
		{XMLID: "10", Name: "B", User: "u2"},
	})
	require.NoError(t, err)

	got, err := s.CategoriesByXMLIDs(ctx, "u1", []string{"10", "11"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)

	none, err := s.CategoriesByXMLIDs(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreUniquePerTenant(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	_, err := s.InsertProducts(ctx, []Product{{XMLID: "P1", User: "u1"}})
	require.NoError(t, err)
	_, err = s.InsertProducts(ctx, []Product{{XMLID: "P1", User: "u1"}})
	assert.Error(t, err)
}

func TestUpsertProductsOverwritesByID(t *testing.T) {
	s, h := openTest(t)
	ctx := context.Background()

	rows, err := s.InsertProducts(ctx, []Product{{XMLID: "P1", Title: "old", User: "u1"}})
	require.NoError(t, err)
	id := rows[0].ID
	require.NotZero(t, id)

	_, err = s.UpsertProducts(ctx, []Product{{ID: id, XMLID: "P1", Title: "new", User: "u1", UpdatedAt: time.Now()}})
	require.NoError(t, err)

	var p Product
	require.NoError(t, h.DB.First(&p, id).Error)
	assert.Equal(t, "new", p.Title)

	var n int64
	require.NoError(t, h.DB.Model(&Product{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestInsertAttributesSkipsExisting(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	_, err := s.InsertAttributes(ctx, []ProductAttribute{{Name: "Red", AttributeCategoryName: "Color", User: "u1", UUID: "11111111-1111-1111-1111-111111111111"}})
	require.NoError(t, err)
	_, err = s.InsertAttributes(ctx, []ProductAttribute{
		{Name: "Red", AttributeCategoryName: "Color", User: "u1", UUID: "22222222-2222-2222-2222-222222222222"},
		{Name: "Blue", AttributeCategoryName: "Color", User: "u1", UUID: "33333333-3333-3333-3333-333333333333"},
	})
	require.NoError(t, err)

	attrs, err := s.AttributesByNames(ctx, "u1", []string{"Red", "Blue"})
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	for _, a := range attrs {
		if a.Name == "Red" {
			assert.Equal(t, "11111111-1111-1111-1111-111111111111", a.UUID)
		}
	}
}

func TestInsertConnectionsIgnoresDuplicateHash(t *testing.T) {
	s, h := openTest(t)
	ctx := context.Background()

	c := AttributeProductConnection{ProductID: 1, AttributeID: 2, AttributeProductHash: "1_2", User: "u1"}
	require.NoError(t, s.InsertConnections(ctx, []AttributeProductConnection{c}))
	require.NoError(t, s.InsertConnections(ctx, []AttributeProductConnection{c}))

	var n int64
	require.NoError(t, h.DB.Model(&AttributeProductConnection{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestReadsChunkLargeINLists(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	rows := make([]Product, 0, 1200)
	ids := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		id := fmt.Sprintf("P%04d", i)
		rows = append(rows, Product{XMLID: id, User: "u1"})
		ids = append(ids, id)
	}
	_, err := s.InsertProducts(ctx, rows)
	require.NoError(t, err)

	got, err := s.ProductsByXMLIDs(ctx, "u1", ids)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}

func TestRunsHistory(t *testing.T) {
	s, _ := openTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := &ImportRun{User: "u1", SourceURL: "https://x/f.xml", Status: RunRunning}
		require.NoError(t, s.CreateRun(ctx, run))
		run.Status = RunDone
		require.NoError(t, s.FinishRun(ctx, run))
	}
	require.NoError(t, s.CreateRun(ctx, &ImportRun{User: "u2", Status: RunRunning}))

	runs, err := s.ListRuns(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, RunDone, runs[0].Status)
}
