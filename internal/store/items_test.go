package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ahartman/provenance/internal/db"
)

func TestAddItemStructuredPayload(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	payload := `{"title": "Oak Chair", "condition": "Good", "prices": {"low": "$100", "high": "$300"}}`
	id, err := AddItem(ctx, database, "", "old chair from the attic", payload)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	item, err := GetItem(ctx, database, id)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Title != "Oak Chair" {
		t.Errorf("expected title 'Oak Chair', got %q", item.Title)
	}
	if item.Condition != "Good" {
		t.Errorf("expected condition 'Good', got %q", item.Condition)
	}
	if item.RawAnalysis != payload {
		t.Error("raw analysis payload not preserved verbatim")
	}
	if item.PriceLow == nil || *item.PriceLow != 100 {
		t.Errorf("expected prc_low 100, got %v", item.PriceLow)
	}
	if item.PriceMedian == nil || *item.PriceMedian != 200 {
		t.Errorf("expected prc_med 200 (even-count average), got %v", item.PriceMedian)
	}
	if item.PriceHigh == nil || *item.PriceHigh != 300 {
		t.Errorf("expected prc_hi 300, got %v", item.PriceHigh)
	}

	// The first revision is created with the item.
	revisions, err := GetRevisionHistory(ctx, database, id)
	if err != nil {
		t.Fatalf("GetRevisionHistory: %v", err)
	}
	if len(revisions) != 1 || revisions[0].Notes != "old chair from the attic" {
		t.Errorf("expected one initial revision, got %+v", revisions)
	}

	// One price sample per extracted price.
	samples, err := GetPrices(ctx, database, id)
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("expected 2 price samples, got %d", len(samples))
	}
}

func TestAddItemProsePayload(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	payload := "  Some unstructured rambling about an unidentified object.  "
	id, err := AddItem(ctx, database, "", "", payload)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	item, err := GetItem(ctx, database, id)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Title != "" || item.Brand != "" || item.Maker != "" {
		t.Errorf("expected descriptive fields empty, got %+v", item)
	}
	if item.ProvenanceNotes != "Some unstructured rambling about an unidentified object." {
		t.Errorf("expected raw payload in provenance notes, got %q", item.ProvenanceNotes)
	}
	if item.PriceLow != nil {
		t.Errorf("expected no price summary, got %v", *item.PriceLow)
	}
}

func TestGetItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetItem(context.Background(), database, 999)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := AddItem(ctx, database, "", "first", "")
	second, _ := AddItem(ctx, database, "", "second", "")

	items, err := ListItems(ctx, database)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != second || items[1].ID != first {
		t.Errorf("expected newest-first ordering, got %d then %d", items[0].ID, items[1].ID)
	}
}

func TestUpdateItemAnalysis(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", `{"title": "Chair"}`)

	err := UpdateItemAnalysis(ctx, database, id, `{"title": "Oak Chair", "maker": "ACME Co.", "prices": {"low": 100, "high": 300}}`)
	if err != nil {
		t.Fatalf("UpdateItemAnalysis: %v", err)
	}

	item, _ := GetItem(ctx, database, id)
	if item.Title != "Oak Chair" || item.Maker != "ACME Co." {
		t.Errorf("fields not updated: %+v", item)
	}
	if item.PriceMedian == nil || *item.PriceMedian != 200 {
		t.Errorf("expected prc_med 200, got %v", item.PriceMedian)
	}

	changes, _ := GetItemChanges(ctx, database, id)
	if len(changes) != 2 {
		t.Errorf("expected 2 change rows (title, maker), got %d", len(changes))
	}

	revisions, _ := GetRevisionHistory(ctx, database, id)
	if len(revisions) != 2 || revisions[0].Notes != analysisRevisionNote {
		t.Errorf("expected analysis revision marker on top, got %+v", revisions)
	}
}

func TestUpdateItemAnalysisIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	payload := `{"title": "Oak Chair", "prices": {"low": 100, "high": 300}}`
	id, _ := AddItem(ctx, database, "", "", payload)

	if err := UpdateItemAnalysis(ctx, database, id, payload); err != nil {
		t.Fatalf("UpdateItemAnalysis: %v", err)
	}

	changes, _ := GetItemChanges(ctx, database, id)
	if len(changes) != 0 {
		t.Errorf("expected no change rows for identical payload, got %d", len(changes))
	}

	samples, _ := GetPrices(ctx, database, id)
	if len(samples) != 2 {
		t.Errorf("expected price samples deduplicated, got %d", len(samples))
	}
}

func TestUpdateItemAnalysisKeepsSummaryWithoutPrices(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", `{"title": "Chair", "prices": {"low": 100, "high": 300}}`)

	// A re-analysis that yields no prices must not blank a good summary.
	if err := UpdateItemAnalysis(ctx, database, id, `{"title": "Oak Chair"}`); err != nil {
		t.Fatalf("UpdateItemAnalysis: %v", err)
	}

	item, _ := GetItem(ctx, database, id)
	if item.Title != "Oak Chair" {
		t.Errorf("expected fields updated, got %q", item.Title)
	}
	if item.PriceLow == nil || *item.PriceLow != 100 || item.PriceHigh == nil || *item.PriceHigh != 300 {
		t.Errorf("expected price summary retained, got (%v, %v)", item.PriceLow, item.PriceHigh)
	}
}

func TestUpdateItemAnalysisNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	err := UpdateItemAnalysis(context.Background(), database, 42, "whatever")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItemFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", "")

	ok, err := UpdateItemFields(ctx, database, id, map[string]any{
		"title":    "Ming Vase",
		"category": "Ceramics",
		"rarity":   "Unique",
	})
	if err != nil {
		t.Fatalf("UpdateItemFields: %v", err)
	}
	if !ok {
		t.Fatal("expected update to report success")
	}

	item, _ := GetItem(ctx, database, id)
	if item.Title != "Ming Vase" || item.Category != "Ceramics" || item.Rarity != "Unique" {
		t.Errorf("fields not applied: %+v", item)
	}
	if item.UpdatedAt == nil {
		t.Error("expected updated_at to be stamped")
	}

	changes, _ := GetItemChanges(ctx, database, id)
	if len(changes) != 3 {
		t.Errorf("expected 3 change rows, got %d", len(changes))
	}
}

func TestUpdateItemFieldsNoOpEdit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", `{"title": "New"}`)

	ok, err := UpdateItemFields(ctx, database, id, map[string]any{"title": "New"})
	if err != nil {
		t.Fatalf("UpdateItemFields: %v", err)
	}
	if !ok {
		t.Error("no-op edit should still report success")
	}

	changes, _ := GetItemChanges(ctx, database, id)
	if len(changes) != 0 {
		t.Errorf("expected no change rows for no-op edit, got %d", len(changes))
	}
}

func TestUpdateItemFieldsMisuse(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", "")

	// Empty field map.
	ok, err := UpdateItemFields(ctx, database, id, nil)
	if ok || err != nil {
		t.Errorf("expected (false, nil) for empty map, got (%v, %v)", ok, err)
	}

	// Unknown item.
	ok, err = UpdateItemFields(ctx, database, 999, map[string]any{"title": "x"})
	if ok || err != nil {
		t.Errorf("expected (false, nil) for unknown item, got (%v, %v)", ok, err)
	}

	// Unknown column is rejected, not interpolated.
	_, err = UpdateItemFields(ctx, database, id, map[string]any{"id; DROP TABLE items": "x"})
	if err == nil {
		t.Error("expected error for unknown field name")
	}
}

func TestGetPriceRangeSelfHealing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", "no prices here")

	// Raw samples exist but the cached summary was never computed.
	for _, p := range []float64{100, 200, 300} {
		if _, err := database.Exec(`INSERT INTO prices (item_id, price) VALUES (?, ?)`, id, p); err != nil {
			t.Fatalf("inserting price: %v", err)
		}
	}

	low, median, high, err := GetPriceRange(ctx, database, id)
	if err != nil {
		t.Fatalf("GetPriceRange: %v", err)
	}
	if low == nil || *low != 100 || median == nil || *median != 200 || high == nil || *high != 300 {
		t.Errorf("expected (100, 200, 300), got (%v, %v, %v)", low, median, high)
	}

	// The derived summary is written back to the item row.
	item, _ := GetItem(ctx, database, id)
	if item.PriceMedian == nil || *item.PriceMedian != 200 {
		t.Error("expected recomputed summary cached on item")
	}
}

func TestGetPriceRangeNoData(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", "")
	low, median, high, err := GetPriceRange(ctx, database, id)
	if err != nil {
		t.Fatalf("GetPriceRange: %v", err)
	}
	if low != nil || median != nil || high != nil {
		t.Errorf("expected all-nil summary, got (%v, %v, %v)", low, median, high)
	}

	if _, _, _, err := GetPriceRange(ctx, database, 999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestReextractAll(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id1, _ := AddItem(ctx, database, "", "", `{"title": "Chair"}`)
	AddItem(ctx, database, "", "", "")

	// Blank a field so re-extraction has something to restore.
	if _, err := database.Exec(`UPDATE items SET title = '' WHERE id = ?`, id1); err != nil {
		t.Fatalf("blanking title: %v", err)
	}

	processed, err := ReextractAll(ctx, database)
	if err != nil {
		t.Fatalf("ReextractAll: %v", err)
	}
	if processed != 1 {
		t.Errorf("expected 1 item processed (empty payloads skipped), got %d", processed)
	}

	item, _ := GetItem(ctx, database, id1)
	if item.Title != "Chair" {
		t.Errorf("expected title restored from raw payload, got %q", item.Title)
	}
}

func TestReextractAllCancelled(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, "", "", `{"title": "A"}`)
	AddItem(ctx, database, "", "", `{"title": "B"}`)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	processed, err := ReextractAll(cancelled, database)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if processed != 0 {
		t.Errorf("expected no items processed after cancellation, got %d", processed)
	}
}
