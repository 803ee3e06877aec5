package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
)

// CatalogParser czyta eksport sklepu: <catalog><products><product>...
// Produkt wchodzi tylko gdy active=1, can_add_to_basket=1 i ma tłumaczenie
// dla Locale.
type CatalogParser struct {
	Locale string
}

type catalogDoc struct {
	XMLName  xml.Name         `xml:"catalog"`
	Products *catalogProducts `xml:"products"`
}

type catalogProducts struct {
	Items []catalogProduct `xml:"product"`
}

type catalogProduct struct {
	IDAttr          string               `xml:"id,attr"`
	ID              string               `xml:"id"`
	Active          string               `xml:"active"`
	CanAddToBasket  string               `xml:"can_add_to_basket"`
	Name            string               `xml:"name"`
	Producer        string               `xml:"producer"`
	Category        *catalogCategory     `xml:"category"`
	Price           string               `xml:"price"`
	URL             string               `xml:"url"`
	CanonicalURL    string               `xml:"canonical_url"`
	Image           string               `xml:"main_image"`
	Available       string               `xml:"stock>available"`
	Translations    []catalogTranslation `xml:"translations>translation"`
	AttributeName   string               `xml:"attribute_name"`
	AttributeValues string               `xml:"attribute_values"`
}

type catalogCategory struct {
	ID   string `xml:"id"`
	Name string `xml:"name"`
	Link string `xml:"link"`
}

type catalogTranslation struct {
	Lang        string `xml:"lang,attr"`
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type catalogProductSchema struct {
	ID           string `validate:"required,max=191"`
	URL          string `validate:"omitempty,uri"`
	CanonicalURL string `validate:"omitempty,uri"`
	Image        string `validate:"omitempty,uri"`
}

func (p *CatalogParser) Format() Format { return FormatShopCatalog }

func (p *CatalogParser) Parse(data []byte, sourceURL string, importedAt time.Time) (*Result, error) {
	var doc catalogDoc
	if err := newXMLDecoder(data).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}
	if doc.Products == nil {
		return nil, fmt.Errorf("%w: missing <products> in <catalog>", ErrFormatMismatch)
	}

	b := newBuilder(sourceURL, importedAt)
	for _, it := range doc.Products.Items {
		p.item(b, it)
	}
	return b.res, nil
}

func (p *CatalogParser) item(b *builder, it catalogProduct) {
	if !yn(it.Active) || !yn(it.CanAddToBasket) {
		return
	}
	tr, ok := p.translation(it.Translations)
	if !ok {
		return
	}

	pr := ParsedProduct{
		ID:           or("", it.ID, it.IDAttr),
		Name:         or("", tr.Name, it.Name),
		Brand:        strings.TrimSpace(it.Producer),
		Description:  strings.TrimSpace(tr.Description),
		Link:         strings.TrimSpace(it.URL),
		Price:        parsePrice(it.Price),
		CanonicalURL: strings.TrimSpace(it.CanonicalURL),
		ImageURL:     strings.TrimSpace(it.Image),
		AvailableNow: yn(it.Available),
	}
	var cat ParsedCategory
	if it.Category != nil {
		cat = ParsedCategory{
			ID:   strings.TrimSpace(it.Category.ID),
			Name: strings.TrimSpace(it.Category.Name),
			Link: strings.TrimSpace(it.Category.Link),
		}
		pr.CategoryID = cat.ID
		pr.CategoryName = cat.Name
	}
	ok, invalid := check(catalogProductSchema{ID: pr.ID, URL: pr.Link, CanonicalURL: pr.CanonicalURL, Image: pr.ImageURL})
	if !ok {
		return
	}
	pr.Link = blankIf(invalid, "URL", pr.Link)
	pr.CanonicalURL = blankIf(invalid, "CanonicalURL", pr.CanonicalURL)
	pr.ImageURL = blankIf(invalid, "Image", pr.ImageURL)
	pr.Name = clip(pr.Name, maxNameLen)

	b.addCategory(cat)
	b.addProduct(pr)
	b.addAttribute(it.AttributeName, pr.ID, it.AttributeValues)
}

func (p *CatalogParser) translation(trs []catalogTranslation) (catalogTranslation, bool) {
	for _, tr := range trs {
		if strings.EqualFold(strings.TrimSpace(tr.Lang), p.Locale) {
			return tr, true
		}
	}
	return catalogTranslation{}, false
}

func (p *CatalogParser) ToRow(pr ParsedProduct, rc RowContext) db.Product {
	return toRow(pr, rc)
}
