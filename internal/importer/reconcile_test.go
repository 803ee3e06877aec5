package importer

import (
	"context"
	"testing"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileFirstRun(t *testing.T) {
	store, h := openStore(t)
	r := NewReconciler(store, nopLogger())

	res := r.Run(context.Background(), "u1", sampleResult(), catalogParser(t))

	assert.True(t, res.ImportSuccess)
	assert.Empty(t, res.Errors)
	assert.Equal(t, Stats{InsertedProductCategories: 2, InsertedProducts: 3}, res.Stats)

	var attrs []db.ProductAttribute
	require.NoError(t, h.DB.Order("name").Find(&attrs).Error)
	require.Len(t, attrs, 4) // Blue, Green, Red, XL
	assert.Equal(t, "Blue", attrs[0].Name)
	assert.Equal(t, "Color", attrs[0].AttributeCategoryName)
	assert.Len(t, attrs[0].UUID, 36)

	var conns []db.AttributeProductConnection
	require.NoError(t, h.DB.Find(&conns).Error)
	// P1:Red, P1:Blue, P2:Blue, P2:XL; GHOST nie ma produktu
	assert.Len(t, conns, 4)
	for _, c := range conns {
		assert.Equal(t, ConnectionHash(c.ProductID, c.AttributeID), c.AttributeProductHash)
		assert.Equal(t, "u1", c.User)
	}
}

func TestReconcileMissingCategoryIsNil(t *testing.T) {
	store, h := openStore(t)
	NewReconciler(store, nopLogger()).Run(context.Background(), "u1", sampleResult(), catalogParser(t))

	var orphan db.Product
	require.NoError(t, h.DB.Where("xml_id = ?", "P3").First(&orphan).Error)
	assert.Nil(t, orphan.CategoryID)
	assert.Equal(t, "99", orphan.CategoryXMLID)

	var p1 db.Product
	require.NoError(t, h.DB.Where("xml_id = ?", "P1").First(&p1).Error)
	require.NotNil(t, p1.CategoryID)
	var knives db.Category
	require.NoError(t, h.DB.First(&knives, *p1.CategoryID).Error)
	assert.Equal(t, "10", knives.XMLID)
	assert.True(t, p1.Price.Equal(decimal.RequireFromString("129.90")), p1.Price.String())
}

func TestReconcileIdempotent(t *testing.T) {
	store, h := openStore(t)
	r := NewReconciler(store, nopLogger())
	ctx := context.Background()

	first := r.Run(ctx, "u1", sampleResult(), catalogParser(t))
	require.True(t, first.ImportSuccess)

	changed := sampleResult()
	changed.Products[0].Name = "Chef knife 2"
	second := r.Run(ctx, "u1", changed, catalogParser(t))

	assert.True(t, second.ImportSuccess, second.Errors)
	assert.Equal(t, Stats{UpdatedProductCategories: 2, UpdatedProducts: 3}, second.Stats)

	var n int64
	require.NoError(t, h.DB.Model(&db.Product{}).Count(&n).Error)
	assert.Equal(t, int64(3), n)
	require.NoError(t, h.DB.Model(&db.Category{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
	require.NoError(t, h.DB.Model(&db.ProductAttribute{}).Count(&n).Error)
	assert.Equal(t, int64(4), n)
	require.NoError(t, h.DB.Model(&db.AttributeProductConnection{}).Count(&n).Error)
	assert.Equal(t, int64(4), n)

	var p1 db.Product
	require.NoError(t, h.DB.Where("xml_id = ?", "P1").First(&p1).Error)
	assert.Equal(t, "Chef knife 2", p1.Title)
	require.NotNil(t, p1.CategoryID)
}

func TestReconcileTenantsAreIsolated(t *testing.T) {
	store, h := openStore(t)
	r := NewReconciler(store, nopLogger())
	ctx := context.Background()

	r.Run(ctx, "u1", sampleResult(), catalogParser(t))
	res := r.Run(ctx, "u2", sampleResult(), catalogParser(t))

	assert.Equal(t, Stats{InsertedProductCategories: 2, InsertedProducts: 3}, res.Stats)
	var n int64
	require.NoError(t, h.DB.Model(&db.Product{}).Where("user_id = ?", "u2").Count(&n).Error)
	assert.Equal(t, int64(3), n)
}

func TestReconcileConnectionFailureIsReported(t *testing.T) {
	store, _ := openStore(t)
	fs := &failingStore{Store: store, failConnections: true}
	r := NewReconciler(fs, nopLogger(), WithBatchSize(1))

	res := r.Run(context.Background(), "u1", sampleResult(), catalogParser(t))

	assert.False(t, res.ImportSuccess)
	assert.Len(t, res.Errors, 4)
	for _, e := range res.Errors {
		assert.Contains(t, e, "connection insert")
		assert.Contains(t, e, "boom")
	}
	assert.Equal(t, Stats{InsertedProductCategories: 2, InsertedProducts: 3}, res.Stats)
}

func TestReconcileCategoryFailureContinues(t *testing.T) {
	store, h := openStore(t)
	fs := &failingStore{Store: store, failCategoryInsert: true}

	res := NewReconciler(fs, nopLogger()).Run(context.Background(), "u1", sampleResult(), catalogParser(t))

	assert.False(t, res.ImportSuccess)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "category insert")
	assert.Equal(t, 0, res.Stats.InsertedProductCategories)
	assert.Equal(t, 3, res.Stats.InsertedProducts)

	var p1 db.Product
	require.NoError(t, h.DB.Where("xml_id = ?", "P1").First(&p1).Error)
	assert.Nil(t, p1.CategoryID)
}
