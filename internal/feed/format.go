package feed

import (
	"fmt"
	"strings"
)

type Format int

const (
	FormatGoogleMerchant Format = iota + 1
	FormatShopCatalog
)

const DefaultLocale = "pl_PL"

// Options dla wariantów, które ich potrzebują.
type Options struct {
	Locale string // shop_catalog: wymagane tłumaczenie
}

func (f Format) String() string {
	switch f {
	case FormatGoogleMerchant:
		return "google_merchant"
	case FormatShopCatalog:
		return "shop_catalog"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google_merchant", "google", "merchant":
		return FormatGoogleMerchant, nil
	case "shop_catalog", "catalog":
		return FormatShopCatalog, nil
	default:
		return 0, fmt.Errorf("unknown feed format %q", s)
	}
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func ParserFor(f Format, opts Options) (Parser, error) {
	switch f {
	case FormatGoogleMerchant:
		return &MerchantParser{}, nil
	case FormatShopCatalog:
		locale := opts.Locale
		if locale == "" {
			locale = DefaultLocale
		}
		return &CatalogParser{Locale: locale}, nil
	default:
		return nil, fmt.Errorf("no parser for %s", f)
	}
}
