package model

// CountBucket is one label/count pair in a grouped rollup.
type CountBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ItemCount ranks an item by how many related rows it has.
type ItemCount struct {
	ItemID int64  `json:"item_id"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

// PriceStats summarizes all extracted price samples.
type PriceStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Completeness reports the fraction of items with a non-empty value per field.
type Completeness struct {
	Title       float64 `json:"title"`
	Description float64 `json:"description"`
	Provenance  float64 `json:"provenance"`
}

// Analytics is the full read-only rollup over the catalog. Sections are
// computed independently; a failed section is left at its zero value rather
// than failing the whole report.
type Analytics struct {
	TotalItems     int `json:"total_items"`
	TotalImages    int `json:"total_images"`
	TotalPrices    int `json:"total_prices"`
	TotalRevisions int `json:"total_revisions"`

	ByCondition []CountBucket `json:"by_condition"`
	ByBrand     []CountBucket `json:"by_brand"`
	ByMaker     []CountBucket `json:"by_maker"`

	Prices         PriceStats    `json:"prices"`
	PriceHistogram []CountBucket `json:"price_histogram"`

	MonthlyAdditions []CountBucket `json:"monthly_additions"`

	TopByImages    []ItemCount `json:"top_by_images"`
	TopByRevisions []ItemCount `json:"top_by_revisions"`

	Completeness Completeness `json:"completeness"`
}
