package feed

import (
	"errors"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/shopspring/decimal"
)

// ErrFormatMismatch: dokument nie ma oczekiwanej listy pozycji (zły kształt,
// nie "pusta lista").
var ErrFormatMismatch = errors.New("feed: document does not match format")

type ParsedCategory struct {
	ID   string
	Name string
	Link string
}

type ParsedProduct struct {
	ID           string
	Name         string
	Brand        string
	Description  string
	CategoryID   string // może być puste
	Link         string
	CategoryName string
	Price        decimal.Decimal
	CanonicalURL string
	ImageURL     string
	AvailableNow bool
}

type Result struct {
	ProductCategories []ParsedCategory
	Products          []ParsedProduct
	Attributes        AttributeIndex
	SourceURL         string
	ImportedAt        time.Time
}

// RowContext: kontekst mapowania ParsedProduct -> db.Product.
// InternalID == nil oznacza insert.
type RowContext struct {
	UserID             string
	SourceURL          string
	InternalID         *uint
	CategoryInternalID *uint
	Now                *time.Time
}

type Parser interface {
	Format() Format
	Parse(data []byte, sourceURL string, importedAt time.Time) (*Result, error)
	ToRow(p ParsedProduct, rc RowContext) db.Product
}

// builder pilnuje "pierwszy wygrywa" dla kategorii i produktów; atrybuty
// zbiera zawsze, także z duplikatów.
type builder struct {
	res      *Result
	seenCat  map[string]struct{}
	seenProd map[string]struct{}
}

func newBuilder(sourceURL string, importedAt time.Time) *builder {
	return &builder{
		res: &Result{
			ProductCategories: []ParsedCategory{},
			Products:          []ParsedProduct{},
			Attributes:        AttributeIndex{},
			SourceURL:         sourceURL,
			ImportedAt:        importedAt,
		},
		seenCat:  map[string]struct{}{},
		seenProd: map[string]struct{}{},
	}
}

func (b *builder) addCategory(c ParsedCategory) {
	if c.ID == "" {
		return
	}
	if _, ok := b.seenCat[c.ID]; ok {
		return
	}
	b.seenCat[c.ID] = struct{}{}
	b.res.ProductCategories = append(b.res.ProductCategories, c)
}

func (b *builder) addProduct(p ParsedProduct) {
	if _, ok := b.seenProd[p.ID]; ok {
		return
	}
	b.seenProd[p.ID] = struct{}{}
	b.res.Products = append(b.res.Products, p)
}

func (b *builder) addAttribute(attrName, productID, rawValues string) {
	b.res.Attributes.AddRaw(attrName, productID, rawValues)
}

// toRow wspólne dla wariantów: link kanoniczny ma pierwszeństwo.
func toRow(p ParsedProduct, rc RowContext) db.Product {
	now := time.Now()
	if rc.Now != nil {
		now = *rc.Now
	}
	link := p.CanonicalURL
	if link == "" {
		link = p.Link
	}
	row := db.Product{
		XMLID:         p.ID,
		CategoryXMLID: p.CategoryID,
		CategoryID:    rc.CategoryInternalID,
		Title:         p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         p.Price,
		Available:     p.AvailableNow,
		Brand:         p.Brand,
		ProductLink:   link,
		User:          rc.UserID,
		XMLURL:        rc.SourceURL,
		UpdatedAt:     now,
	}
	if rc.InternalID != nil {
		row.ID = *rc.InternalID
	}
	return row
}
