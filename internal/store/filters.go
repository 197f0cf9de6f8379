package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahartman/provenance/internal/model"
)

// FilterOptions feeds the collaborating UI's filter widgets: the selectable
// values per filterable column plus the global price bounds for range
// sliders. Free-form columns list their distinct historical values;
// enum-backed columns list the canned options with any historical strays
// appended.
type FilterOptions struct {
	Categories      []string `json:"categories"`
	Subcategories   []string `json:"subcategories"`
	Conditions      []string `json:"conditions"`
	Rarities        []string `json:"rarities"`
	Statuses        []string `json:"statuses"`
	Authentications []string `json:"authentications"`
	Brands          []string `json:"brands"`
	Makers          []string `json:"makers"`
	EraPeriods      []string `json:"era_periods"`
	Materials       []string `json:"materials"`
	Locations       []string `json:"locations"`
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
}

// enumBackedColumns maps the enum-backed filter columns to their canned
// option lists. The columns themselves stay plain TEXT; the lists only shape
// what the dropdowns offer.
var enumBackedColumns = map[string][]string{
	"condition":      model.KnownConditions,
	"status":         model.KnownStatuses,
	"rarity":         model.KnownRarities,
	"authentication": model.KnownAuthentications,
}

// GetFilterOptions collects the selectable values for every filterable
// column and the catalog-wide price range.
func GetFilterOptions(ctx context.Context, db *sql.DB) (*FilterOptions, error) {
	opts := &FilterOptions{}

	columns := []struct {
		name string
		dest *[]string
	}{
		{"category", &opts.Categories},
		{"subcategory", &opts.Subcategories},
		{"condition", &opts.Conditions},
		{"rarity", &opts.Rarities},
		{"status", &opts.Statuses},
		{"authentication", &opts.Authentications},
		{"brand", &opts.Brands},
		{"maker", &opts.Makers},
		{"era_period", &opts.EraPeriods},
		{"material", &opts.Materials},
		{"location_stored", &opts.Locations},
	}
	for _, col := range columns {
		values, err := distinctValues(ctx, db, col.name)
		if err != nil {
			return nil, err
		}
		if known, ok := enumBackedColumns[col.name]; ok {
			values = mergeOptions(known, values)
		}
		*col.dest = values
	}

	var min, max sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT MIN(prc_low), MAX(prc_hi) FROM items`,
	).Scan(&min, &max)
	if err != nil {
		return nil, fmt.Errorf("reading price bounds: %w", err)
	}
	opts.PriceMin = nullFloat(min)
	opts.PriceMax = nullFloat(max)

	return opts, nil
}

// mergeOptions returns the canned options followed by any historical values
// not among them. distinctValues sorts its output, so the tail stays sorted.
func mergeOptions(known, historical []string) []string {
	out := make([]string, 0, len(known)+len(historical))
	seen := make(map[string]bool, len(known))
	for _, v := range known {
		out = append(out, v)
		seen[v] = true
	}
	for _, v := range historical {
		if !seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// distinctValues returns the sorted distinct non-empty values of a column.
// Only called with column names from this package's own lists.
func distinctValues(ctx context.Context, db *sql.DB, column string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT %s FROM items WHERE %s != '' ORDER BY %s", column, column, column),
	)
	if err != nil {
		return nil, fmt.Errorf("reading distinct %s values: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s value: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
