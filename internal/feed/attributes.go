package feed

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// AttributeIndex: nazwa atrybutu -> xml_id produktu -> zbiór wartości.
type AttributeIndex map[string]map[string]map[string]struct{}

// AttributeValue to jedna unikalna wartość z całego importu wraz z nazwą
// atrybutu, pod którą wystąpiła (pierwsza alfabetycznie).
type AttributeValue struct {
	Value         string
	AttributeName string
}

// Link to pojedynczy fakt "produkt ma wartość pod atrybutem".
type Link struct {
	AttributeName string
	ProductID     string
	Value         string
}

// SplitValues dzieli listę "a, b ,,c" na wartości, bez pustych.
func SplitValues(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		v := norm.NFC.String(strings.TrimSpace(part))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// AddRaw dokłada wartości rozdzielone przecinkami. Brak nazwy atrybutu = nic.
func (a AttributeIndex) AddRaw(attrName, productID, raw string) {
	for _, v := range SplitValues(raw) {
		a.Add(attrName, productID, v)
	}
}

func (a AttributeIndex) Add(attrName, productID, value string) {
	attrName = strings.TrimSpace(attrName)
	productID = strings.TrimSpace(productID)
	value = norm.NFC.String(strings.TrimSpace(value))
	if attrName == "" || productID == "" || value == "" {
		return
	}
	if utf8.RuneCountInString(value) > MaxAttributeValueLen {
		return
	}
	byProduct, ok := a[attrName]
	if !ok {
		byProduct = map[string]map[string]struct{}{}
		a[attrName] = byProduct
	}
	values, ok := byProduct[productID]
	if !ok {
		values = map[string]struct{}{}
		byProduct[productID] = values
	}
	values[value] = struct{}{}
}

func (a AttributeIndex) Values(attrName, productID string) []string {
	values := a[attrName][productID]
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (a AttributeIndex) Names() []string {
	out := make([]string, 0, len(a))
	for name := range a {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (a AttributeIndex) ProductIDs() []string {
	seen := map[string]struct{}{}
	for _, byProduct := range a {
		for pid := range byProduct {
			seen[pid] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for pid := range seen {
		out = append(out, pid)
	}
	sort.Strings(out)
	return out
}

func (a AttributeIndex) DistinctValues() []AttributeValue {
	seen := map[string]struct{}{}
	var out []AttributeValue
	for _, name := range a.Names() {
		byProduct := a[name]
		for _, pid := range sortedKeys(byProduct) {
			for _, v := range a.Values(name, pid) {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, AttributeValue{Value: v, AttributeName: name})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Links w stałej kolejności (atrybut, produkt, wartość).
func (a AttributeIndex) Links() []Link {
	var out []Link
	for _, name := range a.Names() {
		byProduct := a[name]
		for _, pid := range sortedKeys(byProduct) {
			for _, v := range a.Values(name, pid) {
				out = append(out, Link{AttributeName: name, ProductID: pid, Value: v})
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
