package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Prefiks przestrzeni http://base.google.com/ns/1.0
const merchantNS = "g"

// Jednowartościowe pola Merchant traktowane jako atrybuty o tej samej nazwie.
var merchantAttrFields = []string{"color", "size", "material", "pattern", "gender", "age_group"}

// MerchantParser czyta feed Google Merchant (RSS 2.0 + g:*).
type MerchantParser struct{}

type merchantItemSchema struct {
	ID           string `validate:"required,max=191"`
	Link         string `validate:"omitempty,uri"`
	CanonicalURL string `validate:"omitempty,uri"`
	Image        string `validate:"omitempty,uri"`
}

func (p *MerchantParser) Format() Format { return FormatGoogleMerchant }

func (p *MerchantParser) Parse(data []byte, sourceURL string, importedAt time.Time) (*Result, error) {
	if gofeed.DetectFeedType(bytes.NewReader(data)) != gofeed.FeedTypeRSS {
		return nil, fmt.Errorf("%w: %s expects an RSS document", ErrFormatMismatch, p.Format())
	}
	if !hasChannel(data) {
		return nil, fmt.Errorf("%w: missing <channel> in <rss>", ErrFormatMismatch)
	}
	doc, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		// zepsuty XML
		return nil, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}

	b := newBuilder(sourceURL, importedAt)
	for _, it := range doc.Items {
		if it != nil {
			p.item(b, it)
		}
	}
	return b.res, nil
}

func (p *MerchantParser) item(b *builder, it *gofeed.Item) {
	g := it.Extensions

	categoryID := or("", extText(g, "google_product_category"), extText(g, "product_type"))
	pr := ParsedProduct{
		ID:           or("", extText(g, "id"), it.GUID),
		Name:         or("", extText(g, "title"), it.Title),
		Brand:        extText(g, "brand"),
		Description:  or("", extText(g, "description"), it.Description),
		CategoryID:   categoryID,
		Link:         or("", extText(g, "link"), it.Link),
		CategoryName: or(categoryID, extText(g, "product_type")),
		Price:        parsePrice(extText(g, "price")),
		CanonicalURL: extText(g, "canonical_link"),
		ImageURL:     extText(g, "image_link"),
		AvailableNow: merchantAvailable(extText(g, "availability")),
	}
	ok, invalid := check(merchantItemSchema{ID: pr.ID, Link: pr.Link, CanonicalURL: pr.CanonicalURL, Image: pr.ImageURL})
	if !ok {
		return
	}
	pr.Link = blankIf(invalid, "Link", pr.Link)
	pr.CanonicalURL = blankIf(invalid, "CanonicalURL", pr.CanonicalURL)
	pr.ImageURL = blankIf(invalid, "Image", pr.ImageURL)
	pr.Name = clip(pr.Name, maxNameLen)

	if pr.CategoryID != "" {
		b.addCategory(ParsedCategory{ID: pr.CategoryID, Name: pr.CategoryName})
	}
	b.addProduct(pr)

	for _, detail := range g[merchantNS]["product_detail"] {
		b.addAttribute(childText(detail, "attribute_name"), pr.ID, childText(detail, "attribute_value"))
	}
	for _, name := range merchantAttrFields {
		b.addAttribute(name, pr.ID, extText(g, name))
	}
}

func merchantAvailable(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in stock", "in_stock", "instock":
		return true
	default:
		return false
	}
}

// extText: pierwsza niepusta wartość g:<name>, inaczej "".
func extText(e ext.Extensions, name string) string {
	for _, x := range e[merchantNS][name] {
		if v := strings.TrimSpace(x.Value); v != "" {
			return v
		}
	}
	return ""
}

func childText(x ext.Extension, name string) string {
	for _, c := range x.Children[name] {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return ""
}

func (p *MerchantParser) ToRow(pr ParsedProduct, rc RowContext) db.Product {
	return toRow(pr, rc)
}

// hasChannel: gofeed przyjmuje <rss/> bez <channel> jako pusty feed,
// dla nas to brak listy pozycji.
func hasChannel(data []byte) bool {
	dec := newXMLDecoder(data)
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == "channel" {
				return true
			}
		case xml.EndElement:
			depth--
			if depth == 0 {
				return false
			}
		}
	}
}
