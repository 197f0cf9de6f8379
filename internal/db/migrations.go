package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// itemColumn is one additive migration step for the items table.
type itemColumn struct {
	name string
	def  string
}

// itemColumns lists every column added to the items table after its initial
// shape, in the order they were introduced. Append new columns at the end;
// never reorder. Each entry is applied with add-if-missing semantics, so the
// list is safe to replay against a store created by any version.
//
// SQLite's ALTER TABLE ADD COLUMN only accepts constant defaults, which is why
// updated_at is nullable instead of defaulting to CURRENT_TIMESTAMP.
var itemColumns = []itemColumn{
	// Descriptive fields filled by analysis extraction.
	{"title", "TEXT NOT NULL DEFAULT ''"},
	{"brand", "TEXT NOT NULL DEFAULT ''"},
	{"maker", "TEXT NOT NULL DEFAULT ''"},
	{"description", "TEXT NOT NULL DEFAULT ''"},
	{"condition", "TEXT NOT NULL DEFAULT ''"},
	{"provenance_notes", "TEXT NOT NULL DEFAULT ''"},

	// Cached price summary, null until computed.
	{"prc_low", "REAL"},
	{"prc_med", "REAL"},
	{"prc_hi", "REAL"},

	// Extended cataloging fields.
	{"category", "TEXT NOT NULL DEFAULT ''"},
	{"subcategory", "TEXT NOT NULL DEFAULT ''"},
	{"era_period", "TEXT NOT NULL DEFAULT ''"},
	{"material", "TEXT NOT NULL DEFAULT ''"},
	{"dimensions", "TEXT NOT NULL DEFAULT ''"},
	{"weight", "TEXT NOT NULL DEFAULT ''"},
	{"color_scheme", "TEXT NOT NULL DEFAULT ''"},
	{"rarity", "TEXT NOT NULL DEFAULT ''"},
	{"authentication", "TEXT NOT NULL DEFAULT ''"},
	{"acquisition_date", "TEXT NOT NULL DEFAULT ''"},
	{"acquisition_source", "TEXT NOT NULL DEFAULT ''"},
	{"acquisition_cost", "REAL"},
	{"insurance_value", "REAL"},
	{"location_stored", "TEXT NOT NULL DEFAULT ''"},
	{"tags", "TEXT NOT NULL DEFAULT ''"},
	{"status", "TEXT NOT NULL DEFAULT ''"},
	{"public_display", "INTEGER NOT NULL DEFAULT 0"},
	{"featured_item", "INTEGER NOT NULL DEFAULT 0"},
	{"updated_at", "DATETIME"},
}

// itemBaseColumns are the columns the items table is created with.
var itemBaseColumns = []itemColumn{
	{"id", "INTEGER PRIMARY KEY"},
	{"image_path", "TEXT"},
	{"notes", "TEXT NOT NULL DEFAULT ''"},
	{"openai_result", "TEXT NOT NULL DEFAULT ''"},
	{"created_at", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"},
}

// legacyItemColumns are columns that older versions of the application wrote
// and the current schema no longer carries. Their presence triggers a table
// rebuild in Migrate.
var legacyItemColumns = []string{"value"}

// Migrate brings a store of any prior version up to the current schema. It is
// idempotent and best effort: an individual step that fails is logged and
// skipped so a partially migrated store stays usable, which matters more here
// than strict schema purity.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	existing, err := tableColumns(db, "items")
	if err != nil {
		return fmt.Errorf("probing items columns: %w", err)
	}

	for _, col := range itemColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE items ADD COLUMN %s %s", col.name, col.def)
		if _, err := db.Exec(stmt); err != nil {
			// Most likely a duplicate-column race with an older binary;
			// either way the store must stay usable.
			slog.Warn("skipping items column migration", "column", col.name, "error", err)
		}
	}

	rebuilt := false
	for _, name := range legacyItemColumns {
		changed, err := dropLegacyItemColumn(db, name)
		if err != nil {
			slog.Warn("skipping legacy column removal", "column", name, "error", err)
		}
		rebuilt = rebuilt || changed
	}

	// A rebuild drops the table's indexes along with it.
	if rebuilt {
		if err := EnsureSchema(db); err != nil {
			return err
		}
	}

	return nil
}

// tableColumns returns the set of column names currently on a table.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// currentItemColumns returns the full desired column list for items, in order.
func currentItemColumns() []itemColumn {
	all := make([]itemColumn, 0, len(itemBaseColumns)+len(itemColumns))
	all = append(all, itemBaseColumns...)
	all = append(all, itemColumns...)
	return all
}

// dropLegacyItemColumn removes a deprecated column from items by rebuilding
// the table: a shadow table with the desired column set is created, rows are
// copied over with an explicit column list, and the shadow is renamed into
// place. No-op when the column is already gone, reported by the bool.
// Referential integrity enforcement is suspended for the duration of the
// rebuild.
func dropLegacyItemColumn(db *sql.DB, column string) (bool, error) {
	existing, err := tableColumns(db, "items")
	if err != nil {
		return false, fmt.Errorf("probing items columns: %w", err)
	}
	if !existing[column] {
		return false, nil
	}

	slog.Info("rebuilding items table to drop legacy column", "column", column)

	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		return false, fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			slog.Error("re-enabling foreign keys", "error", err)
		}
	}()

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	desired := currentItemColumns()
	defs := make([]string, 0, len(desired))
	names := make([]string, 0, len(desired))
	for _, col := range desired {
		defs = append(defs, col.name+" "+col.def)
		// Only copy columns that exist on the old table; the additive pass
		// runs first, so in practice this is all of them.
		if existing[col.name] {
			names = append(names, col.name)
		}
	}

	create := fmt.Sprintf("CREATE TABLE items_new (%s)", strings.Join(defs, ", "))
	if _, err := tx.Exec(create); err != nil {
		return false, fmt.Errorf("creating shadow table: %w", err)
	}

	cols := strings.Join(names, ", ")
	copyStmt := fmt.Sprintf("INSERT INTO items_new (%s) SELECT %s FROM items", cols, cols)
	if _, err := tx.Exec(copyStmt); err != nil {
		return false, fmt.Errorf("copying rows: %w", err)
	}

	if _, err := tx.Exec("DROP TABLE items"); err != nil {
		return false, fmt.Errorf("dropping old table: %w", err)
	}
	if _, err := tx.Exec("ALTER TABLE items_new RENAME TO items"); err != nil {
		return false, fmt.Errorf("renaming shadow table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing rebuild: %w", err)
	}
	return true, nil
}
