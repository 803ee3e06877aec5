package feed

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
)

const (
	maxNameLen = 512 // products.title

	// MaxAttributeValueLen to rozmiar product_attributes.name; dłuższe
	// wartości są pomijane, inaczej cały insert atrybutów by padł.
	MaxAttributeValueLen = 191
)

var rePriceJunk = regexp.MustCompile(`[^0-9.\-]+`)

// or zwraca pierwszą niepustą (po TrimSpace) wartość albo def.
func or(def string, candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return def
}

// clip przycina do n znaków (runy, nie bajty).
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func yn(s string) bool {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "Y", "T", "1", "TAK", "TRUE", "YES":
		return true
	default:
		return false
	}
}

// parsePrice: "1 299,99 PLN" -> 1299.99; śmieci -> 0.
func parsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// zamień ewentualny przecinek na kropkę
	s = strings.ReplaceAll(s, ",", ".")
	s = rePriceJunk.ReplaceAllString(s, "")
	if strings.Count(s, ".") > 1 {
		// separator tysięcy: zostaw ostatnią kropkę
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v.Round(2)
}

func normalizeCharset(cs string) string {
	c := strings.TrimSpace(strings.ToLower(cs))
	switch c {
	case "latin ii", "latin-2", "latin2", "iso8859-2", "iso_8859-2":
		return "iso-8859-2"
	case "cp1250", "windows1250", "win-1250":
		return "windows-1250"
	default:
		return c
	}
}

// newXMLDecoder z obsługą charsetów spoza UTF-8 (hurtownie lubią windows-1250).
func newXMLDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(cs string, in io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(normalizeCharset(cs), in)
	}
	return dec
}
