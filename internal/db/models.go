// internal/db/models.go
package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// categories
type Category struct {
	ID        uint      `gorm:"primaryKey"`
	XMLID     string    `gorm:"column:xml_id;size:191;not null;uniqueIndex:uniq_category_user_xml,priority:2"`
	Name      string    `gorm:"size:512"`
	User      string    `gorm:"column:user_id;size:191;not null;uniqueIndex:uniq_category_user_xml,priority:1"`
	XMLURL    string    `gorm:"column:xml_url;type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time
}

// products
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	XMLID         string          `gorm:"column:xml_id;size:191;not null;uniqueIndex:uniq_product_user_xml,priority:2"`
	CategoryXMLID string          `gorm:"column:category_xml_id;size:191"`
	CategoryID    *uint           `gorm:"index"` // nil gdy kategoria nierozwiązana
	Title         string          `gorm:"size:512"`
	Description   string          `gorm:"type:text"`
	ImageURL      string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)"`
	Available     bool
	Brand         string    `gorm:"size:255"`
	ProductLink   string    `gorm:"type:text"`
	User          string    `gorm:"column:user_id;size:191;not null;uniqueIndex:uniq_product_user_xml,priority:1"`
	XMLURL        string    `gorm:"column:xml_url;type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time
}

// product_attributes: Name trzyma WARTOŚĆ atrybutu ("Red"), nazwa atrybutu
// ("Color") siedzi w AttributeCategoryName.
type ProductAttribute struct {
	ID                    uint   `gorm:"primaryKey"`
	Name                  string `gorm:"size:191;not null;uniqueIndex:uniq_attribute_user_name,priority:2"`
	AttributeCategoryName string `gorm:"size:255"`
	User                  string `gorm:"column:user_id;size:191;not null;uniqueIndex:uniq_attribute_user_name,priority:1"`
	UUID                  string `gorm:"column:uuid;size:36;uniqueIndex"`
}

// attribute_product_connections
type AttributeProductConnection struct {
	ID                   uint   `gorm:"primaryKey"`
	ProductID            uint   `gorm:"index"`
	ProductXMLID         string `gorm:"column:product_xml_id;size:191"`
	AttributeID          uint   `gorm:"index"`
	AttributeUUID        string `gorm:"column:attribute_uuid;size:36"`
	AttributeProductHash string `gorm:"size:64;not null;uniqueIndex"`
	User                 string `gorm:"column:user_id;size:191;index"`
}

// Statusy ImportRun
const (
	RunRunning = "running"
	RunDone    = "done"
	RunPartial = "partial"
	RunFailed  = "failed"
)

// import_runs: historia importów per tenant
type ImportRun struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	User                      string     `gorm:"column:user_id;size:191;index" json:"user_id"`
	SourceURL                 string     `gorm:"type:text" json:"source_url"`
	Format                    string     `gorm:"size:64" json:"format"`
	SHA256                    string     `gorm:"column:sha256;size:64;index" json:"sha256"`
	SizeBytes                 int64      `json:"size_bytes"`
	Status                    string     `gorm:"size:16;index;default:running" json:"status"`
	InsertedProductCategories int        `json:"inserted_product_categories"`
	UpdatedProductCategories  int        `json:"updated_product_categories"`
	InsertedProducts          int        `json:"inserted_products"`
	UpdatedProducts           int        `json:"updated_products"`
	Errors                    string     `gorm:"type:text" json:"errors,omitempty"` // JSON []string
	StartedAt                 time.Time  `gorm:"autoCreateTime" json:"started_at"`
	FinishedAt                *time.Time `json:"finished_at,omitempty"`
}
