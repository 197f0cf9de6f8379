package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ahartman/provenance/internal/extract"
	"github.com/ahartman/provenance/internal/model"
)

// analysisRevisionNote is the fixed revision marker appended whenever an
// item's analysis is re-run.
const analysisRevisionNote = "[analysis updated]"

// itemColumns is the column list every item SELECT uses, matching scanItem.
const itemColumns = `id, image_path, notes, openai_result, created_at, updated_at,
	title, brand, maker, description, condition, provenance_notes,
	category, subcategory, era_period, material, dimensions, weight, color_scheme,
	rarity, authentication, acquisition_date, acquisition_source, acquisition_cost,
	insurance_value, location_stored, tags, status, public_display, featured_item,
	prc_low, prc_med, prc_hi`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item row in itemColumns order.
func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var (
		imagePath                 sql.NullString
		updatedAt                 sql.NullTime
		acquisitionCost           sql.NullFloat64
		insuranceValue            sql.NullFloat64
		low, med, hi              sql.NullFloat64
		publicDisplay, featured   int
	)
	err := row.Scan(
		&item.ID, &imagePath, &item.Notes, &item.RawAnalysis, &item.CreatedAt, &updatedAt,
		&item.Title, &item.Brand, &item.Maker, &item.Description, &item.Condition, &item.ProvenanceNotes,
		&item.Category, &item.Subcategory, &item.EraPeriod, &item.Material, &item.Dimensions,
		&item.Weight, &item.ColorScheme, &item.Rarity, &item.Authentication,
		&item.AcquisitionDate, &item.AcquisitionSource, &acquisitionCost,
		&insuranceValue, &item.LocationStored, &item.Tags, &item.Status, &publicDisplay, &featured,
		&low, &med, &hi,
	)
	if err != nil {
		return nil, err
	}

	item.ImagePath = imagePath.String
	if updatedAt.Valid {
		t := updatedAt.Time
		item.UpdatedAt = &t
	}
	item.AcquisitionCost = nullFloat(acquisitionCost)
	item.InsuranceValue = nullFloat(insuranceValue)
	item.PublicDisplay = publicDisplay != 0
	item.FeaturedItem = featured != 0
	item.PriceLow = nullFloat(low)
	item.PriceMedian = nullFloat(med)
	item.PriceHigh = nullFloat(hi)
	return item, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// AddItem catalogs a new object. The analysis payload is run through the
// extractor, the item row is inserted fully populated, the first revision is
// created, and one price row is stored per extracted price — all in a single
// transaction. Payload shape can never make this fail; at worst every
// descriptive field is empty and the provenance notes hold the raw text.
func AddItem(ctx context.Context, db *sql.DB, imagePath, notes, payload string) (int64, error) {
	fields, prices := extract.Extract(payload)

	var low, med, hi any
	if l, m, h, ok := extract.Summary(prices); ok {
		low, med, hi = l, m, h
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (image_path, notes, openai_result,
		                    title, brand, maker, description, condition, provenance_notes,
		                    prc_low, prc_med, prc_hi)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imagePath, notes, payload,
		fields.Title, fields.Brand, fields.Maker, fields.Description, fields.Condition, fields.ProvenanceNotes,
		low, med, hi,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}

	if err := AddRevision(ctx, tx, id, notes); err != nil {
		return 0, err
	}

	for _, p := range prices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prices (item_id, price) VALUES (?, ?)`, id, p,
		); err != nil {
			return 0, fmt.Errorf("recording price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing item: %w", err)
	}
	return id, nil
}

// GetItem returns an item by ID, or ErrNotFound.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, most recently created first.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemAnalysis re-runs extraction against a new payload, records a
// change row for every descriptive field that differs, overwrites the fields
// and price summary, appends a fixed revision marker, and stores newly seen
// prices. Identical payloads leave no change rows and no duplicate prices.
func UpdateItemAnalysis(ctx context.Context, db *sql.DB, id int64, payload string) error {
	fields, prices := extract.Extract(payload)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var cur extract.Fields
	err = tx.QueryRowContext(ctx,
		`SELECT title, brand, maker, description, condition, provenance_notes FROM items WHERE id = ?`, id,
	).Scan(&cur.Title, &cur.Brand, &cur.Maker, &cur.Description, &cur.Condition, &cur.ProvenanceNotes)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading item fields: %w", err)
	}

	diffs := []struct{ name, old, new string }{
		{"title", cur.Title, fields.Title},
		{"brand", cur.Brand, fields.Brand},
		{"maker", cur.Maker, fields.Maker},
		{"description", cur.Description, fields.Description},
		{"condition", cur.Condition, fields.Condition},
		{"provenance_notes", cur.ProvenanceNotes, fields.ProvenanceNotes},
	}
	for _, d := range diffs {
		if err := RecordChange(ctx, tx, id, d.name, d.old, d.new); err != nil {
			return err
		}
	}

	var low, med, hi any
	if l, m, h, ok := extract.Summary(prices); ok {
		low, med, hi = l, m, h
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET title = ?, brand = ?, maker = ?, description = ?, condition = ?,
			        provenance_notes = ?, openai_result = ?, prc_low = ?, prc_med = ?, prc_hi = ?,
			        updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			fields.Title, fields.Brand, fields.Maker, fields.Description, fields.Condition,
			fields.ProvenanceNotes, payload, low, med, hi, id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET title = ?, brand = ?, maker = ?, description = ?, condition = ?,
			        provenance_notes = ?, openai_result = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			fields.Title, fields.Brand, fields.Maker, fields.Description, fields.Condition,
			fields.ProvenanceNotes, payload, id,
		)
	}
	if err != nil {
		return fmt.Errorf("updating item analysis: %w", err)
	}

	if err := AddRevision(ctx, tx, id, analysisRevisionNote); err != nil {
		return err
	}

	// Dedup by insert: a price value already on record for this item is not
	// stored again, which keeps re-runs of an identical payload idempotent.
	for _, p := range prices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prices (item_id, price)
			 SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM prices WHERE item_id = ? AND price = ?)`,
			id, p, id, p,
		); err != nil {
			return fmt.Errorf("recording price: %w", err)
		}
	}

	return tx.Commit()
}

// updatableColumns is the closed set of columns UpdateItemFields may touch.
// Anything else in the field map is rejected rather than interpolated into
// the query.
var updatableColumns = map[string]bool{
	"image_path":         true,
	"notes":              true,
	"title":              true,
	"brand":              true,
	"maker":              true,
	"description":        true,
	"condition":          true,
	"provenance_notes":   true,
	"category":           true,
	"subcategory":        true,
	"era_period":         true,
	"material":           true,
	"dimensions":         true,
	"weight":             true,
	"color_scheme":       true,
	"rarity":             true,
	"authentication":     true,
	"acquisition_date":   true,
	"acquisition_source": true,
	"acquisition_cost":   true,
	"insurance_value":    true,
	"location_stored":    true,
	"tags":               true,
	"status":             true,
	"public_display":     true,
	"featured_item":      true,
	"prc_low":            true,
	"prc_med":            true,
	"prc_hi":             true,
}

// UpdateItemFields applies a partial update over the updatable column set,
// stamping updated_at and writing a change row for every field whose string
// form actually changed. Returns (false, nil) when the item does not exist
// or the field map is empty; an unknown key is an error.
func UpdateItemFields(ctx context.Context, db *sql.DB, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if !updatableColumns[name] {
			return false, fmt.Errorf("unknown field %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Read the current values of the touched columns for the change log.
	selects := make([]string, len(names))
	for i, name := range names {
		selects[i] = name
	}
	current := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range current {
		dest[i] = &current[i]
	}
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM items WHERE id = ?", strings.Join(selects, ", ")), id,
	).Scan(dest...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading current fields: %w", err)
	}

	sets := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, fields[name])
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE items SET %s WHERE id = ?", strings.Join(sets, ", ")), args...,
	)
	if err != nil {
		return false, fmt.Errorf("updating item fields: %w", err)
	}

	for i, name := range names {
		oldVal := valueString(current[i])
		newVal := valueString(fields[name])
		if err := RecordChange(ctx, tx, id, name, oldVal, newVal); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing field update: %w", err)
	}
	return true, nil
}

// valueString is the canonical string form used for change-log comparison.
// nil and empty string compare equal; numbers drop trailing zeros so a JSON
// 100.0 matches a stored integer 100.
func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// GetPriceRange returns the (low, median, high) summary for an item. The
// cached columns are preferred; when all three are unset the summary is
// recomputed from the raw price samples and written back to the cache.
func GetPriceRange(ctx context.Context, db *sql.DB, id int64) (low, median, high *float64, err error) {
	var l, m, h sql.NullFloat64
	err = db.QueryRowContext(ctx,
		`SELECT prc_low, prc_med, prc_hi FROM items WHERE id = ?`, id,
	).Scan(&l, &m, &h)
	if err == sql.ErrNoRows {
		return nil, nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading price summary: %w", err)
	}

	if l.Valid || m.Valid || h.Valid {
		return nullFloat(l), nullFloat(m), nullFloat(h), nil
	}

	samples, err := GetPrices(ctx, db, id)
	if err != nil {
		return nil, nil, nil, err
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Price
	}

	lo, med, hi, ok := extract.Summary(values)
	if !ok {
		return nil, nil, nil, nil
	}

	// Self-healing cache: write the derived summary back so the next read
	// hits the item row directly.
	if _, err := db.ExecContext(ctx,
		`UPDATE items SET prc_low = ?, prc_med = ?, prc_hi = ? WHERE id = ?`,
		lo, med, hi, id,
	); err != nil {
		return nil, nil, nil, fmt.Errorf("caching price summary: %w", err)
	}

	return &lo, &med, &hi, nil
}

// GetPrices returns all raw price samples for an item, newest first.
func GetPrices(ctx context.Context, db *sql.DB, itemID int64) ([]model.PriceSample, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, price, timestamp FROM prices
		 WHERE item_id = ? ORDER BY timestamp DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting prices: %w", err)
	}
	defer rows.Close()

	var samples []model.PriceSample
	for rows.Next() {
		var s model.PriceSample
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Price, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ReextractAll re-runs the extractor over every item's preserved analysis
// payload, item by item. Each item commits independently; cancelling the
// context stops further items but leaves finished ones updated. Returns the
// number of items processed.
func ReextractAll(ctx context.Context, db *sql.DB) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, openai_result FROM items ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("listing items for re-extraction: %w", err)
	}

	type pending struct {
		id      int64
		payload string
	}
	var work []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning item: %w", err)
		}
		work = append(work, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	processed := 0
	for _, p := range work {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if strings.TrimSpace(p.payload) == "" {
			continue
		}
		if err := UpdateItemAnalysis(ctx, db, p.id, p.payload); err != nil {
			return processed, fmt.Errorf("re-extracting item %d: %w", p.id, err)
		}
		processed++
	}
	return processed, nil
}
