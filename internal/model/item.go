package model

import "time"

// Item is one cataloged physical object.
//
// ImagePath is the legacy single-image reference kept for stores written by
// older versions; new photos live in the images table. RawAnalysis preserves
// the analysis payload verbatim so fields can be re-derived later.
type Item struct {
	ID          int64      `json:"id"`
	ImagePath   string     `json:"image_path,omitempty"`
	Notes       string     `json:"notes"`
	RawAnalysis string     `json:"openai_result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Descriptive fields, filled by analysis extraction. Never null; empty
	// string means unknown.
	Title           string `json:"title"`
	Brand           string `json:"brand"`
	Maker           string `json:"maker"`
	Description     string `json:"description"`
	Condition       string `json:"condition"`
	ProvenanceNotes string `json:"provenance_notes"`

	// Extended cataloging fields, each independently optional.
	Category          string   `json:"category,omitempty"`
	Subcategory       string   `json:"subcategory,omitempty"`
	EraPeriod         string   `json:"era_period,omitempty"`
	Material          string   `json:"material,omitempty"`
	Dimensions        string   `json:"dimensions,omitempty"`
	Weight            string   `json:"weight,omitempty"`
	ColorScheme       string   `json:"color_scheme,omitempty"`
	Rarity            string   `json:"rarity,omitempty"`
	Authentication    string   `json:"authentication,omitempty"`
	AcquisitionDate   string   `json:"acquisition_date,omitempty"`
	AcquisitionSource string   `json:"acquisition_source,omitempty"`
	AcquisitionCost   *float64 `json:"acquisition_cost,omitempty"`
	InsuranceValue    *float64 `json:"insurance_value,omitempty"`
	LocationStored    string   `json:"location_stored,omitempty"`
	Tags              string   `json:"tags,omitempty"`
	Status            string   `json:"status,omitempty"`
	PublicDisplay     bool     `json:"public_display"`
	FeaturedItem      bool     `json:"featured_item"`

	// Cached price summary derived from the prices table, null until computed.
	// When all three are set, PriceLow <= PriceMedian <= PriceHigh.
	PriceLow    *float64 `json:"prc_low,omitempty"`
	PriceMedian *float64 `json:"prc_med,omitempty"`
	PriceHigh   *float64 `json:"prc_hi,omitempty"`
}

// The two ends of an item's lifecycle, named because code and tests compare
// against them; the statuses in between are plain strings.
const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"
)

// Known values for the string-typed enum fields. These seed the filter
// dropdowns; historical data with values outside these lists still
// round-trips untouched and is appended to the canned options.
var (
	KnownConditions = []string{
		"Mint", "Near Mint", "Excellent", "Very Good", "Good", "Fair", "Poor",
	}
	KnownStatuses = []string{
		StatusAvailable, "On Display", "Under Restoration", "Loaned", StatusSold,
	}
	KnownRarities = []string{
		"Common", "Uncommon", "Rare", "Very Rare", "Unique",
	}
	KnownAuthentications = []string{
		"Unverified", "Questionable", "Authenticated", "Certificate of Authenticity",
	}
)
