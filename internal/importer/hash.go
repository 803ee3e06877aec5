package importer

import "strconv"

// ConnectionHash: tożsamość połączenia produkt-atrybut, "<product_id>_<attribute_id>".
func ConnectionHash(productID, attributeID uint) string {
	return strconv.FormatUint(uint64(productID), 10) + "_" + strconv.FormatUint(uint64(attributeID), 10)
}
