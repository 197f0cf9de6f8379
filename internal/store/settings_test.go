package store

import (
	"context"
	"testing"

	"github.com/ahartman/provenance/internal/db"
)

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := GetSetting(ctx, database, "theme"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := SetSetting(ctx, database, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, err := GetSetting(ctx, database, "theme")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "dark" {
		t.Errorf("expected 'dark', got %q", value)
	}

	// Overwrite.
	SetSetting(ctx, database, "theme", "light")
	value, _ = GetSetting(ctx, database, "theme")
	if value != "light" {
		t.Errorf("expected 'light' after overwrite, got %q", value)
	}
}
