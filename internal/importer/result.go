package importer

type Stats struct {
	InsertedProductCategories int `json:"insertedProductCategories"`
	InsertedProducts          int `json:"insertedProducts"`
	UpdatedProductCategories  int `json:"updatedProductCategories"`
	UpdatedProducts           int `json:"updatedProducts"`
}

// ImportResult wraca do wywołującego zawsze, także przy częściowej porażce.
type ImportResult struct {
	Stats         Stats    `json:"stats"`
	ImportSuccess bool     `json:"importSuccess"`
	Errors        []string `json:"errors"`
}
