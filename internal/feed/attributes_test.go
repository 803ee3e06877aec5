package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitValues(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "Red, Blue", want: []string{"Red", "Blue"}},
		{raw: " , ,", want: nil},
		{raw: "", want: nil},
		{raw: "Café", want: []string{"Café"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitValues(tt.raw), tt.raw)
	}
}

func TestAttributeIndexSetSemantics(t *testing.T) {
	idx := AttributeIndex{}
	idx.AddRaw("Color", "P1", "Red, Blue")
	idx.AddRaw("Color", "P1", "Blue, Green")
	idx.AddRaw("", "P1", "Ignored")
	idx.AddRaw("Size", "P2", "  ")
	idx.Add("Size", "P2", "XL")
	idx.Add("Finish", "P2", "Red")

	assert.Equal(t, []string{"Blue", "Green", "Red"}, idx.Values("Color", "P1"))
	assert.Equal(t, []string{"Color", "Finish", "Size"}, idx.Names())
	assert.Equal(t, []string{"P1", "P2"}, idx.ProductIDs())

	// "Red" występuje pod dwiema nazwami, liczy się raz
	assert.Equal(t, []AttributeValue{
		{Value: "Blue", AttributeName: "Color"},
		{Value: "Green", AttributeName: "Color"},
		{Value: "Red", AttributeName: "Color"},
		{Value: "XL", AttributeName: "Size"},
	}, idx.DistinctValues())

	assert.Len(t, idx.Links(), 5)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Google_Merchant ")
	assert.NoError(t, err)
	assert.Equal(t, FormatGoogleMerchant, f)
	assert.Equal(t, "google_merchant", f.String())

	f, err = ParseFormat("shop_catalog")
	assert.NoError(t, err)
	assert.Equal(t, FormatShopCatalog, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestAttributeValueLengthBound(t *testing.T) {
	idx := AttributeIndex{}
	ok := strings.Repeat("a", MaxAttributeValueLen)
	tooLong := strings.Repeat("ą", MaxAttributeValueLen+1)

	idx.AddRaw("Note", "P1", ok+","+tooLong+",short")

	assert.Equal(t, []string{ok, "short"}, idx.Values("Note", "P1"))
}
