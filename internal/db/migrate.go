package db

import (
	"fmt"
)

// Migrate tworzy/aktualizuje schemat bazy.
// Unikalne indeksy (user_id, xml_id), (user_id, name) i attribute_product_hash
// pochodzą z tagów modeli, reconciler na nich opiera upserty.
func (h *Handle) Migrate() error {
	if err := h.DB.AutoMigrate(
		&Category{},
		&Product{},
		&ProductAttribute{},
		&AttributeProductConnection{},
		&ImportRun{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}
