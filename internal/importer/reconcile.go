package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 20
	DefaultConcurrency = 4
)

// Store to operacje na tabelach katalogu, wszystkie zawężone do jednego tenanta.
type Store interface {
	CategoriesByXMLIDs(ctx context.Context, user string, ids []string) ([]db.Category, error)
	ProductsByXMLIDs(ctx context.Context, user string, ids []string) ([]db.Product, error)
	AttributesByNames(ctx context.Context, user string, names []string) ([]db.ProductAttribute, error)
	InsertCategories(ctx context.Context, rows []db.Category) ([]db.Category, error)
	UpsertCategories(ctx context.Context, rows []db.Category) ([]db.Category, error)
	InsertProducts(ctx context.Context, rows []db.Product) ([]db.Product, error)
	UpsertProducts(ctx context.Context, rows []db.Product) ([]db.Product, error)
	InsertAttributes(ctx context.Context, rows []db.ProductAttribute) ([]db.ProductAttribute, error)
	InsertConnections(ctx context.Context, rows []db.AttributeProductConnection) error
}

type Reconciler struct {
	store       Store
	log         zerolog.Logger
	batchSize   int
	concurrency int
}

type Option func(*Reconciler)

func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency ogranicza liczbę równoległych batchy połączeń (<=0: bez limitu).
func WithConcurrency(n int) Option {
	return func(r *Reconciler) { r.concurrency = n }
}

func NewReconciler(store Store, log zerolog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		log:         log,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run zapisuje wynik parsera w kolejności: atrybuty, kategorie, produkty,
// połączenia. Każdy krok łapie własny błąd, nic nie przerywa potoku.
func (r *Reconciler) Run(ctx context.Context, userID string, res *feed.Result, parser feed.Parser) *ImportResult {
	log := r.log.With().Str("user", userID).Str("source", res.SourceURL).Logger()
	now := res.ImportedAt
	if now.IsZero() {
		now = time.Now()
	}
	errs := errorList{}

	// 1) wartości atrybutów (unikalne w obrębie importu)
	distinct := res.Attributes.DistinctValues()
	attrNames := make([]string, 0, len(distinct))
	attrRows := make([]db.ProductAttribute, 0, len(distinct))
	for _, v := range distinct {
		attrNames = append(attrNames, v.Value)
		attrRows = append(attrRows, db.ProductAttribute{
			Name:                  v.Value,
			AttributeCategoryName: v.AttributeName,
			User:                  userID,
			UUID:                  uuid.NewString(),
		})
	}
	attrInsert := runStep("attribute insert", func() ([]db.ProductAttribute, error) {
		return r.store.InsertAttributes(ctx, attrRows)
	})
	r.logStep(log, attrInsert.Step, attrInsert.Err, len(attrRows))
	errs.add(attrInsert.Step, attrInsert.Err)

	// 2) istniejące kategorie i produkty, niezależne odczyty
	catIDs := make([]string, 0, len(res.ProductCategories))
	for _, c := range res.ProductCategories {
		catIDs = append(catIDs, normID(c.ID))
	}
	prodIDs := make([]string, 0, len(res.Products))
	for _, p := range res.Products {
		prodIDs = append(prodIDs, normID(p.ID))
	}

	var (
		existingCats  StepResult[[]db.Category]
		existingProds StepResult[[]db.Product]
		g             errgroup.Group
	)
	g.Go(func() error {
		existingCats = runStep("category prefetch", func() ([]db.Category, error) {
			return r.store.CategoriesByXMLIDs(ctx, userID, catIDs)
		})
		return nil
	})
	g.Go(func() error {
		existingProds = runStep("product prefetch", func() ([]db.Product, error) {
			return r.store.ProductsByXMLIDs(ctx, userID, prodIDs)
		})
		return nil
	})
	_ = g.Wait()
	errs.add(existingCats.Step, existingCats.Err)
	errs.add(existingProds.Step, existingProds.Err)

	// 3) kategorie: insert nowych, upsert istniejących
	catPlan := PlanCategories(res.ProductCategories, existingCats.Value)

	catInsertRows := make([]db.Category, 0, len(catPlan.Insert))
	for _, c := range catPlan.Insert {
		catInsertRows = append(catInsertRows, categoryRow(c, userID, res.SourceURL, now, 0))
	}
	catInsert := runStep("category insert", func() ([]db.Category, error) {
		return r.store.InsertCategories(ctx, catInsertRows)
	})
	r.logStep(log, catInsert.Step, catInsert.Err, len(catInsertRows))
	errs.add(catInsert.Step, catInsert.Err)

	catUpdateRows := make([]db.Category, 0, len(catPlan.Update))
	for _, u := range catPlan.Update {
		catUpdateRows = append(catUpdateRows, categoryRow(u.Parsed, userID, res.SourceURL, now, u.InternalID))
	}
	catUpdate := runStep("category update", func() ([]db.Category, error) {
		return r.store.UpsertCategories(ctx, catUpdateRows)
	})
	r.logStep(log, catUpdate.Step, catUpdate.Err, len(catUpdateRows))
	errs.add(catUpdate.Step, catUpdate.Err)

	categories := make(map[string]db.Category, len(catInsert.Value)+len(catUpdate.Value))
	for _, c := range catInsert.Value {
		categories[normID(c.XMLID)] = c
	}
	for _, c := range catUpdate.Value {
		categories[normID(c.XMLID)] = c
	}

	// 4) produkty
	prodPlan := PlanProducts(res.Products, existingProds.Value)

	prodInsertRows := make([]db.Product, 0, len(prodPlan.Insert))
	for _, p := range prodPlan.Insert {
		prodInsertRows = append(prodInsertRows, parser.ToRow(p, feed.RowContext{
			UserID:             userID,
			SourceURL:          res.SourceURL,
			CategoryInternalID: categoryRef(categories, p.CategoryID),
			Now:                &now,
		}))
	}
	prodInsert := runStep("product insert", func() ([]db.Product, error) {
		return r.store.InsertProducts(ctx, prodInsertRows)
	})
	r.logStep(log, prodInsert.Step, prodInsert.Err, len(prodInsertRows))
	errs.add(prodInsert.Step, prodInsert.Err)

	prodUpdateRows := make([]db.Product, 0, len(prodPlan.Update))
	for _, u := range prodPlan.Update {
		id := u.InternalID
		prodUpdateRows = append(prodUpdateRows, parser.ToRow(u.Parsed, feed.RowContext{
			UserID:             userID,
			SourceURL:          res.SourceURL,
			InternalID:         &id,
			CategoryInternalID: categoryRef(categories, u.Parsed.CategoryID),
			Now:                &now,
		}))
	}
	prodUpdate := runStep("product update", func() ([]db.Product, error) {
		return r.store.UpsertProducts(ctx, prodUpdateRows)
	})
	r.logStep(log, prodUpdate.Step, prodUpdate.Err, len(prodUpdateRows))
	errs.add(prodUpdate.Step, prodUpdate.Err)

	// 5) świeże ID atrybutów i produktów pod tabelę połączeń
	var (
		attrs    StepResult[[]db.ProductAttribute]
		products StepResult[[]db.Product]
		g2       errgroup.Group
	)
	g2.Go(func() error {
		attrs = runStep("attribute refetch", func() ([]db.ProductAttribute, error) {
			return r.store.AttributesByNames(ctx, userID, attrNames)
		})
		return nil
	})
	g2.Go(func() error {
		products = runStep("product refetch", func() ([]db.Product, error) {
			return r.store.ProductsByXMLIDs(ctx, userID, res.Attributes.ProductIDs())
		})
		return nil
	})
	_ = g2.Wait()
	errs.add(attrs.Step, attrs.Err)
	errs.add(products.Step, products.Err)

	// 6) + 7) połączenia w batchach
	conns := buildConnections(userID, res.Attributes, attrs.Value, products.Value)
	for _, err := range r.insertConnections(ctx, conns) {
		log.Error().Err(err).Msg("connection batch failed")
		errs.add("connection insert", err)
	}

	result := &ImportResult{
		Stats: Stats{
			InsertedProductCategories: count(catInsert),
			InsertedProducts:          count(prodInsert),
			UpdatedProductCategories:  count(catUpdate),
			UpdatedProducts:           count(prodUpdate),
		},
		ImportSuccess: len(errs) == 0,
		Errors:        errs,
	}

	log.Info().
		Int("categories_inserted", result.Stats.InsertedProductCategories).
		Int("categories_updated", result.Stats.UpdatedProductCategories).
		Int("products_inserted", result.Stats.InsertedProducts).
		Int("products_updated", result.Stats.UpdatedProducts).
		Int("attributes", len(attrRows)).
		Int("connections", len(conns)).
		Int("errors", len(errs)).
		Msg("reconcile finished")

	return result
}

func (r *Reconciler) logStep(log zerolog.Logger, step string, err error, n int) {
	if err != nil {
		log.Error().Err(err).Str("step", step).Int("n", n).Msg("step failed")
		return
	}
	log.Debug().Str("step", step).Int("n", n).Msg("step ok")
}

// insertConnections wysyła batche równolegle; wynik per batch, nie per wiersz.
func (r *Reconciler) insertConnections(ctx context.Context, rows []db.AttributeProductConnection) []error {
	batches := chunk(rows, r.batchSize)
	results := make([]error, len(batches))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, batch := range batches {
		g.Go(func() error {
			if err := r.store.InsertConnections(ctx, batch); err != nil {
				results[i] = fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// buildConnections łączy pary (produkt, wartość) z indeksu. Para bez produktu
// albo bez atrybutu w bazie jest po cichu pomijana.
func buildConnections(userID string, idx feed.AttributeIndex, attrs []db.ProductAttribute, products []db.Product) []db.AttributeProductConnection {
	attrByName := make(map[string]db.ProductAttribute, len(attrs))
	for _, a := range attrs {
		attrByName[a.Name] = a
	}
	prodByXML := make(map[string]db.Product, len(products))
	for _, p := range products {
		prodByXML[normID(p.XMLID)] = p
	}

	seen := map[string]struct{}{}
	var out []db.AttributeProductConnection
	for _, l := range idx.Links() {
		p, ok := prodByXML[normID(l.ProductID)]
		if !ok {
			continue
		}
		a, ok := attrByName[l.Value]
		if !ok {
			continue
		}
		hash := ConnectionHash(p.ID, a.ID)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, db.AttributeProductConnection{
			ProductID:            p.ID,
			ProductXMLID:         p.XMLID,
			AttributeID:          a.ID,
			AttributeUUID:        a.UUID,
			AttributeProductHash: hash,
			User:                 userID,
		})
	}
	return out
}

func categoryRow(c feed.ParsedCategory, userID, sourceURL string, now time.Time, id uint) db.Category {
	return db.Category{
		ID:        id,
		XMLID:     normID(c.ID),
		Name:      c.Name,
		User:      userID,
		XMLURL:    sourceURL,
		UpdatedAt: now,
	}
}

func chunk[T any](rows []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
