package store

import (
	"context"
	"testing"

	"github.com/ahartman/provenance/internal/db"
)

func TestComprehensiveAnalytics(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id1, _ := AddItem(ctx, database, "", "", `{"title": "Desk", "condition": "Good", "prices": {"low": 40, "high": 60}}`)
	AddItem(ctx, database, "", "", `{"title": "Vase", "condition": "Good", "prices": {"low": 600, "high": 800}}`)
	AddItem(ctx, database, "", "", `{"description": "mystery object"}`)
	AddImage(ctx, database, id1, "desk.jpg", "")
	AddImage(ctx, database, id1, "desk-side.jpg", "")

	a := GetComprehensiveAnalytics(ctx, database)

	if a.TotalItems != 3 {
		t.Errorf("expected 3 items, got %d", a.TotalItems)
	}
	if a.TotalImages != 2 {
		t.Errorf("expected 2 images, got %d", a.TotalImages)
	}
	if a.TotalPrices != 4 {
		t.Errorf("expected 4 price samples, got %d", a.TotalPrices)
	}
	if a.TotalRevisions != 3 {
		t.Errorf("expected 3 revisions, got %d", a.TotalRevisions)
	}

	if len(a.ByCondition) != 1 || a.ByCondition[0].Label != "Good" || a.ByCondition[0].Count != 2 {
		t.Errorf("unexpected condition distribution: %+v", a.ByCondition)
	}

	if a.Prices.Min != 40 || a.Prices.Max != 800 {
		t.Errorf("unexpected price stats: %+v", a.Prices)
	}

	// Desk: median 50 lands in $50-100; Vase: median 700 lands in $500-1000.
	if len(a.PriceHistogram) != 6 {
		t.Fatalf("expected 6 histogram buckets, got %d", len(a.PriceHistogram))
	}
	byLabel := make(map[string]int)
	for _, b := range a.PriceHistogram {
		byLabel[b.Label] = b.Count
	}
	if byLabel["$50-100"] != 1 || byLabel["$500-1000"] != 1 || byLabel["<$50"] != 0 {
		t.Errorf("unexpected histogram: %+v", a.PriceHistogram)
	}

	if len(a.MonthlyAdditions) != 1 || a.MonthlyAdditions[0].Count != 3 {
		t.Errorf("expected all items in current month, got %+v", a.MonthlyAdditions)
	}

	if len(a.TopByImages) != 1 || a.TopByImages[0].ItemID != id1 || a.TopByImages[0].Count != 2 {
		t.Errorf("unexpected image ranking: %+v", a.TopByImages)
	}

	// 2 of 3 items have a title, 1 of 3 a description.
	if a.Completeness.Title < 0.66 || a.Completeness.Title > 0.67 {
		t.Errorf("unexpected title completeness: %v", a.Completeness.Title)
	}
	if a.Completeness.Description < 0.33 || a.Completeness.Description > 0.34 {
		t.Errorf("unexpected description completeness: %v", a.Completeness.Description)
	}
}

func TestAnalyticsEmptyStore(t *testing.T) {
	database := db.NewTestDB(t)

	a := GetComprehensiveAnalytics(context.Background(), database)
	if a.TotalItems != 0 || a.TotalPrices != 0 {
		t.Errorf("expected zero counts, got %+v", a)
	}
	if len(a.PriceHistogram) != 6 {
		t.Errorf("histogram buckets should exist even when empty, got %d", len(a.PriceHistogram))
	}
	for _, b := range a.PriceHistogram {
		if b.Count != 0 {
			t.Errorf("expected empty bucket %q, got %d", b.Label, b.Count)
		}
	}
}
