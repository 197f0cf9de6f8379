package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/ahartman/provenance/internal/model"
)

// Filter is one column-scoped predicate. Exactly one of Equals, In, or the
// Min/Max pair is expected; they are checked in that order.
type Filter struct {
	Equals *string   `json:"equals,omitempty"`
	In     []string  `json:"in,omitempty"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
}

// SearchOptions composes free-text search, faceted filters, sorting, and
// pagination. The zero value reproduces the plain unfiltered listing.
type SearchOptions struct {
	Search   string            `json:"search"`
	Filters  map[string]Filter `json:"filters"`
	SortBy   string            `json:"sort_by"`
	SortDesc bool              `json:"sort_desc"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// textSearchColumns are the columns a free-text term is matched against.
var textSearchColumns = []string{
	"title", "brand", "maker", "description", "condition", "provenance_notes",
	"notes", "category", "subcategory", "era_period", "material", "tags",
	"location_stored",
}

// filterableColumns is the allowlist for faceted filters.
var filterableColumns = map[string]bool{
	"title":            true,
	"brand":            true,
	"maker":            true,
	"condition":        true,
	"category":         true,
	"subcategory":      true,
	"era_period":       true,
	"material":         true,
	"rarity":           true,
	"authentication":   true,
	"location_stored":  true,
	"status":           true,
	"public_display":   true,
	"featured_item":    true,
	"acquisition_cost": true,
	"insurance_value":  true,
	"prc_low":          true,
	"prc_med":          true,
	"prc_hi":           true,
}

// sortableColumns is the allowlist for explicit sorts.
var sortableColumns = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"title":            true,
	"brand":            true,
	"maker":            true,
	"category":         true,
	"condition":        true,
	"rarity":           true,
	"status":           true,
	"acquisition_cost": true,
	"insurance_value":  true,
	"prc_low":          true,
	"prc_med":          true,
	"prc_hi":           true,
}

// likeEscaper neutralizes LIKE wildcards in user-supplied search terms.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildPredicate turns search options into a WHERE fragment (without the
// leading WHERE) and its arguments. Empty options yield an empty fragment.
func buildPredicate(opts SearchOptions) (string, []any, error) {
	var clauses []string
	var args []any

	if term := strings.TrimSpace(opts.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		ors := make([]string, len(textSearchColumns))
		for i, col := range textSearchColumns {
			ors[i] = col + ` LIKE ? ESCAPE '\'`
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	// Deterministic clause order regardless of map iteration.
	cols := make([]string, 0, len(opts.Filters))
	for col := range opts.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if !filterableColumns[col] {
			return "", nil, fmt.Errorf("unknown filter column %q", col)
		}
		f := opts.Filters[col]
		switch {
		case f.Equals != nil:
			clauses = append(clauses, col+" = ?")
			args = append(args, *f.Equals)
		case len(f.In) > 0:
			marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.In)), ", ")
			clauses = append(clauses, col+" IN ("+marks+")")
			for _, v := range f.In {
				args = append(args, v)
			}
		case f.Min != nil || f.Max != nil:
			if f.Min != nil {
				clauses = append(clauses, col+" >= ?")
				args = append(args, *f.Min)
			}
			if f.Max != nil {
				clauses = append(clauses, col+" <= ?")
				args = append(args, *f.Max)
			}
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

// SearchItems returns the items matching the options along with the matching
// count and the unfiltered total count. The counts come from their own
// queries so pagination metadata stays accurate under LIMIT/OFFSET.
func SearchItems(ctx context.Context, db *sql.DB, opts SearchOptions) (items []model.Item, filteredCount, totalCount int, err error) {
	where, args, err := buildPredicate(opts)
	if err != nil {
		return nil, 0, 0, err
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&totalCount); err != nil {
		return nil, 0, 0, fmt.Errorf("counting items: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM items"
	if where != "" {
		countQuery += " WHERE " + where
	}
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&filteredCount); err != nil {
		return nil, 0, 0, fmt.Errorf("counting filtered items: %w", err)
	}

	query := "SELECT " + itemColumns + " FROM items"
	if where != "" {
		query += " WHERE " + where
	}

	// Default listing order is most recently created first.
	orderBy := "id DESC"
	if opts.SortBy != "" {
		if !sortableColumns[opts.SortBy] {
			return nil, 0, 0, fmt.Errorf("unknown sort column %q", opts.SortBy)
		}
		direction := "ASC"
		if opts.SortDesc {
			direction = "DESC"
		}
		orderBy = opts.SortBy + " " + direction + ", id DESC"
	}
	query += " ORDER BY " + orderBy

	queryArgs := args
	if opts.Limit > 0 {
		query += " LIMIT ?"
		queryArgs = append(queryArgs, opts.Limit)
		// Offset is only meaningful with a limit.
		if opts.Offset > 0 {
			query += " OFFSET ?"
			queryArgs = append(queryArgs, opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, filteredCount, totalCount, rows.Err()
}
