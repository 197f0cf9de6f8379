package store

import (
	"context"
	"slices"
	"testing"

	"github.com/ahartman/provenance/internal/db"
	"github.com/ahartman/provenance/internal/model"
)

func TestGetFilterOptions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id1, _ := AddItem(ctx, database, "", "", `{"condition": "Good", "prices": {"low": 100, "high": 300}}`)
	id2, _ := AddItem(ctx, database, "", "", `{"condition": "Excellent", "prices": {"low": 50, "high": 80}}`)
	UpdateItemFields(ctx, database, id1, map[string]any{"category": "Furniture"})
	UpdateItemFields(ctx, database, id2, map[string]any{"category": "Ceramics"})

	opts, err := GetFilterOptions(ctx, database)
	if err != nil {
		t.Fatalf("GetFilterOptions: %v", err)
	}

	if len(opts.Categories) != 2 || opts.Categories[0] != "Ceramics" || opts.Categories[1] != "Furniture" {
		t.Errorf("expected sorted distinct categories, got %v", opts.Categories)
	}
	// Both seen conditions are canned, so the list is exactly the canned one.
	if !slices.Equal(opts.Conditions, model.KnownConditions) {
		t.Errorf("expected canned conditions, got %v", opts.Conditions)
	}
	if opts.PriceMin == nil || *opts.PriceMin != 50 {
		t.Errorf("expected global price min 50, got %v", opts.PriceMin)
	}
	if opts.PriceMax == nil || *opts.PriceMax != 300 {
		t.Errorf("expected global price max 300, got %v", opts.PriceMax)
	}
}

func TestGetFilterOptionsEnumStraysAppended(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, _ := AddItem(ctx, database, "", "", "")
	UpdateItemFields(ctx, database, id, map[string]any{
		"condition": "Salvage",
		"status":    model.StatusSold,
	})

	opts, err := GetFilterOptions(ctx, database)
	if err != nil {
		t.Fatalf("GetFilterOptions: %v", err)
	}

	// A historical value outside the canned list goes after it, once.
	want := append(slices.Clone(model.KnownConditions), "Salvage")
	if !slices.Equal(opts.Conditions, want) {
		t.Errorf("expected canned conditions plus stray, got %v", opts.Conditions)
	}

	// A historical value already in the canned list is not duplicated.
	if !slices.Equal(opts.Statuses, model.KnownStatuses) {
		t.Errorf("expected canned statuses without duplicates, got %v", opts.Statuses)
	}

	if !slices.Equal(opts.Authentications, model.KnownAuthentications) {
		t.Errorf("expected canned authentications, got %v", opts.Authentications)
	}
}

func TestGetFilterOptionsEmptyStore(t *testing.T) {
	database := db.NewTestDB(t)

	opts, err := GetFilterOptions(context.Background(), database)
	if err != nil {
		t.Fatalf("GetFilterOptions: %v", err)
	}
	if len(opts.Categories) != 0 || len(opts.Brands) != 0 {
		t.Errorf("expected empty free-form option lists, got %+v", opts)
	}
	// Dropdowns for enum-backed columns offer the canned options regardless.
	if !slices.Equal(opts.Rarities, model.KnownRarities) {
		t.Errorf("expected canned rarities on empty store, got %v", opts.Rarities)
	}
	if opts.PriceMin != nil || opts.PriceMax != nil {
		t.Errorf("expected nil price bounds, got %v and %v", opts.PriceMin, opts.PriceMax)
	}
}
