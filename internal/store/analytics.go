package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ahartman/provenance/internal/model"
)

// priceBuckets is the fixed histogram over items' median prices.
var priceBuckets = []struct {
	label    string
	min, max float64 // max < 0 means unbounded
}{
	{"<$50", 0, 50},
	{"$50-100", 50, 100},
	{"$100-250", 100, 250},
	{"$250-500", 250, 500},
	{"$500-1000", 500, 1000},
	{">$1000", 1000, -1},
}

// GetComprehensiveAnalytics computes the full read-only rollup. Every
// section is computed independently: a failed section is logged and left at
// its zero value so one broken query never blanks the whole report.
func GetComprehensiveAnalytics(ctx context.Context, db *sql.DB) model.Analytics {
	var a model.Analytics

	a.TotalItems = countRows(ctx, db, "items")
	a.TotalImages = countRows(ctx, db, "images")
	a.TotalPrices = countRows(ctx, db, "prices")
	a.TotalRevisions = countRows(ctx, db, "revisions")

	a.ByCondition = groupCounts(ctx, db, "condition")
	a.ByBrand = groupCounts(ctx, db, "brand")
	a.ByMaker = groupCounts(ctx, db, "maker")

	a.Prices = priceStats(ctx, db)
	a.PriceHistogram = priceHistogram(ctx, db)
	a.MonthlyAdditions = monthlyAdditions(ctx, db)

	a.TopByImages = topByRelated(ctx, db, "images")
	a.TopByRevisions = topByRelated(ctx, db, "revisions")

	a.Completeness = completeness(ctx, db)

	return a
}

func countRows(ctx context.Context, db *sql.DB, table string) int {
	var n int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		slog.Warn("analytics count failed", "table", table, "error", err)
		return 0
	}
	return n
}

// groupCounts returns the ten most frequent non-empty values of a column.
func groupCounts(ctx context.Context, db *sql.DB, column string) []model.CountBucket {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) AS n FROM items WHERE %s != ''
		 GROUP BY %s ORDER BY n DESC, %s LIMIT 10`,
		column, column, column, column,
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		slog.Warn("analytics grouping failed", "column", column, "error", err)
		return nil
	}
	defer rows.Close()

	var buckets []model.CountBucket
	for rows.Next() {
		var b model.CountBucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			slog.Warn("analytics grouping scan failed", "column", column, "error", err)
			return nil
		}
		buckets = append(buckets, b)
	}
	return buckets
}

func priceStats(ctx context.Context, db *sql.DB) model.PriceStats {
	var min, max, avg sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT MIN(price), MAX(price), AVG(price) FROM prices`,
	).Scan(&min, &max, &avg)
	if err != nil {
		slog.Warn("analytics price stats failed", "error", err)
		return model.PriceStats{}
	}
	return model.PriceStats{Min: min.Float64, Max: max.Float64, Avg: avg.Float64}
}

// priceHistogram buckets items by their cached median price.
func priceHistogram(ctx context.Context, db *sql.DB) []model.CountBucket {
	buckets := make([]model.CountBucket, 0, len(priceBuckets))
	for _, b := range priceBuckets {
		var n int
		var err error
		if b.max < 0 {
			err = db.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM items WHERE prc_med >= ?`, b.min,
			).Scan(&n)
		} else {
			err = db.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM items WHERE prc_med >= ? AND prc_med < ?`, b.min, b.max,
			).Scan(&n)
		}
		if err != nil {
			slog.Warn("analytics histogram failed", "bucket", b.label, "error", err)
			n = 0
		}
		buckets = append(buckets, model.CountBucket{Label: b.label, Count: n})
	}
	return buckets
}

// monthlyAdditions counts item creations per month over the trailing year.
func monthlyAdditions(ctx context.Context, db *sql.DB) []model.CountBucket {
	rows, err := db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', created_at) AS month, COUNT(*)
		 FROM items WHERE created_at >= date('now', '-12 months')
		 GROUP BY month ORDER BY month`,
	)
	if err != nil {
		slog.Warn("analytics monthly additions failed", "error", err)
		return nil
	}
	defer rows.Close()

	var buckets []model.CountBucket
	for rows.Next() {
		var b model.CountBucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			slog.Warn("analytics monthly additions scan failed", "error", err)
			return nil
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// topByRelated ranks items by how many rows they have in a related table.
func topByRelated(ctx context.Context, db *sql.DB, table string) []model.ItemCount {
	query := fmt.Sprintf(
		`SELECT i.id, i.title, COUNT(r.id) AS n
		 FROM items i JOIN %s r ON r.item_id = i.id
		 GROUP BY i.id ORDER BY n DESC, i.id LIMIT 10`,
		table,
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		slog.Warn("analytics ranking failed", "table", table, "error", err)
		return nil
	}
	defer rows.Close()

	var ranks []model.ItemCount
	for rows.Next() {
		var r model.ItemCount
		if err := rows.Scan(&r.ItemID, &r.Title, &r.Count); err != nil {
			slog.Warn("analytics ranking scan failed", "table", table, "error", err)
			return nil
		}
		ranks = append(ranks, r)
	}
	return ranks
}

// completeness reports the fraction of items with non-empty core fields.
func completeness(ctx context.Context, db *sql.DB) model.Completeness {
	var c model.Completeness
	var title, description, provenance sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT AVG(CASE WHEN title != '' THEN 1.0 ELSE 0.0 END),
		        AVG(CASE WHEN description != '' THEN 1.0 ELSE 0.0 END),
		        AVG(CASE WHEN provenance_notes != '' THEN 1.0 ELSE 0.0 END)
		 FROM items`,
	).Scan(&title, &description, &provenance)
	if err != nil {
		slog.Warn("analytics completeness failed", "error", err)
		return c
	}
	c.Title = title.Float64
	c.Description = description.Float64
	c.Provenance = provenance.Float64
	return c
}
