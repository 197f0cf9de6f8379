package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahartman/provenance/internal/model"
)

// execer lets audit writers run inside either a bare connection or a
// transaction owned by the calling operation.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddRevision appends an immutable snapshot of an item's notes text.
func AddRevision(ctx context.Context, e execer, itemID int64, notes string) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO revisions (item_id, notes) VALUES (?, ?)`,
		itemID, notes,
	)
	if err != nil {
		return fmt.Errorf("recording revision: %w", err)
	}
	return nil
}

// RecordChange appends a field-level change record. Equal old and new values
// (including both empty) are a no-op, so repeated saves of unchanged fields
// don't spam the log.
func RecordChange(ctx context.Context, e execer, itemID int64, field, oldValue, newValue string) error {
	if oldValue == newValue {
		return nil
	}
	_, err := e.ExecContext(ctx,
		`INSERT INTO item_changes (item_id, field, old_value, new_value) VALUES (?, ?, ?, ?)`,
		itemID, field, oldValue, newValue,
	)
	if err != nil {
		return fmt.Errorf("recording change: %w", err)
	}
	return nil
}

// RecordImageAction appends one image lifecycle record. Metadata carries
// action-specific context, e.g. "from:<old_path>" for a replace.
func RecordImageAction(ctx context.Context, e execer, itemID int64, path, action, metadata string) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO image_history (item_id, image_path, action, metadata) VALUES (?, ?, ?, ?)`,
		itemID, path, action, metadata,
	)
	if err != nil {
		return fmt.Errorf("recording image action: %w", err)
	}
	return nil
}

// GetRevisionHistory returns an item's revisions, newest first.
func GetRevisionHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.Revision, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, notes, timestamp FROM revisions
		 WHERE item_id = ? ORDER BY timestamp DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting revision history: %w", err)
	}
	defer rows.Close()

	var revisions []model.Revision
	for rows.Next() {
		var rev model.Revision
		if err := rows.Scan(&rev.ID, &rev.ItemID, &rev.Notes, &rev.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// GetItemChanges returns an item's field-level change log, newest first.
func GetItemChanges(ctx context.Context, db *sql.DB, itemID int64) ([]model.ItemChange, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, field, old_value, new_value, timestamp FROM item_changes
		 WHERE item_id = ? ORDER BY timestamp DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item changes: %w", err)
	}
	defer rows.Close()

	var changes []model.ItemChange
	for rows.Next() {
		var ch model.ItemChange
		if err := rows.Scan(&ch.ID, &ch.ItemID, &ch.Field, &ch.OldValue, &ch.NewValue, &ch.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning item change: %w", err)
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// GetImageHistory returns an item's image lifecycle log, newest first.
func GetImageHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.ImageHistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, image_path, action, metadata, timestamp FROM image_history
		 WHERE item_id = ? ORDER BY timestamp DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting image history: %w", err)
	}
	defer rows.Close()

	var entries []model.ImageHistoryEntry
	for rows.Next() {
		var e model.ImageHistoryEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ImagePath, &e.Action, &e.Metadata, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning image history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
