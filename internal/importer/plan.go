package importer

import (
	"strings"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
)

// Update to encja z feedu, która ma już wiersz w bazie.
type Update[T any] struct {
	Parsed     T
	InternalID uint
}

// Plan dzieli encje na insert i update. Usunięć nie ma: czego nie ma
// w feedzie, zostaje w bazie.
type Plan[T any] struct {
	Insert []T
	Update []Update[T]
}

func PlanCategories(parsed []feed.ParsedCategory, existing []db.Category) Plan[feed.ParsedCategory] {
	ids := make(map[string]uint, len(existing))
	for _, c := range existing {
		ids[normID(c.XMLID)] = c.ID
	}
	return plan(parsed, func(c feed.ParsedCategory) string { return c.ID }, ids)
}

func PlanProducts(parsed []feed.ParsedProduct, existing []db.Product) Plan[feed.ParsedProduct] {
	ids := make(map[string]uint, len(existing))
	for _, p := range existing {
		ids[normID(p.XMLID)] = p.ID
	}
	return plan(parsed, func(p feed.ParsedProduct) string { return p.ID }, ids)
}

func plan[T any](parsed []T, id func(T) string, existing map[string]uint) Plan[T] {
	var out Plan[T]
	for _, item := range parsed {
		if internal, ok := existing[normID(id(item))]; ok {
			out.Update = append(out.Update, Update[T]{Parsed: item, InternalID: internal})
			continue
		}
		out.Insert = append(out.Insert, item)
	}
	return out
}

func normID(id string) string {
	return strings.TrimSpace(id)
}

// categoryRef: ID kategorii z tego importu albo nil.
func categoryRef(categories map[string]db.Category, xmlID string) *uint {
	c, ok := categories[normID(xmlID)]
	if !ok || xmlID == "" {
		return nil
	}
	id := c.ID
	return &id
}
