package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahartman/provenance/internal/model"
)

// GetImages enumerates an item's images. The legacy single-image reference
// on the item row and the images table are both honored, de-duplicated by
// path with the legacy reference first. If the legacy path also has a table
// row (e.g. it was annotated later), the row's annotation carries over.
func GetImages(ctx context.Context, db *sql.DB, itemID int64) ([]model.Image, error) {
	var legacy sql.NullString
	var createdAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT image_path, created_at FROM items WHERE id = ?`, itemID,
	).Scan(&legacy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading item: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, image_path, annotation, created_at FROM images
		 WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var stored []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.ItemID, &img.Path, &img.Annotation, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		stored = append(stored, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var images []model.Image
	seen := make(map[string]bool)

	if legacy.Valid && legacy.String != "" {
		entry := model.Image{ItemID: itemID, Path: legacy.String, CreatedAt: createdAt}
		for _, img := range stored {
			if img.Path == legacy.String {
				entry = img
				break
			}
		}
		images = append(images, entry)
		seen[legacy.String] = true
	}

	for _, img := range stored {
		if seen[img.Path] {
			continue
		}
		seen[img.Path] = true
		images = append(images, img)
	}
	return images, nil
}

// GetImageAnnotations returns the non-empty annotations for an item's
// images, keyed by path.
func GetImageAnnotations(ctx context.Context, db *sql.DB, itemID int64) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT image_path, annotation FROM images WHERE item_id = ? AND annotation != ''`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	annotations := make(map[string]string)
	for rows.Next() {
		var path, annotation string
		if err := rows.Scan(&path, &annotation); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		annotations[path] = annotation
	}
	return annotations, rows.Err()
}

// AddImage attaches an image to an item and logs the addition.
func AddImage(ctx context.Context, db *sql.DB, itemID int64, path, annotation string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := itemExists(ctx, tx, itemID); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO images (item_id, image_path, annotation) VALUES (?, ?, ?)`,
		itemID, path, annotation,
	)
	if err != nil {
		return 0, fmt.Errorf("adding image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting image id: %w", err)
	}

	if err := RecordImageAction(ctx, tx, itemID, path, model.ImageActionAdd, annotation); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing image: %w", err)
	}
	return id, nil
}

// AnnotateImage sets the annotation for an image path. A legacy reference
// without a table row gets one so the annotation has somewhere to live.
func AnnotateImage(ctx context.Context, db *sql.DB, itemID int64, path, annotation string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE images SET annotation = ? WHERE item_id = ? AND image_path = ?`,
		annotation, itemID, path,
	)
	if err != nil {
		return fmt.Errorf("annotating image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("annotating image: %w", err)
	}

	if n == 0 {
		legacy, err := legacyImagePath(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if legacy != path {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO images (item_id, image_path, annotation) VALUES (?, ?, ?)`,
			itemID, path, annotation,
		); err != nil {
			return fmt.Errorf("annotating legacy image: %w", err)
		}
	}

	if err := RecordImageAction(ctx, tx, itemID, path, model.ImageActionAnnotate, annotation); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceImage swaps an image path for a new one, resolving against the
// images table first and the legacy reference second.
func ReplaceImage(ctx context.Context, db *sql.DB, itemID int64, oldPath, newPath string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := resolveAndUpdatePath(ctx, tx, itemID, oldPath, newPath); err != nil {
		return err
	}

	if err := RecordImageAction(ctx, tx, itemID, newPath, model.ImageActionReplace, "from:"+oldPath); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteImage detaches an image path from an item and logs a delete action.
// The audit trail keeps the full history; nothing is erased from it.
func DeleteImage(ctx context.Context, db *sql.DB, itemID int64, path string) error {
	return unlinkImage(ctx, db, itemID, path, model.ImageActionDelete)
}

// RemoveImage detaches an image path like DeleteImage but logs a remove
// action, for callers that keep the underlying file.
func RemoveImage(ctx context.Context, db *sql.DB, itemID int64, path string) error {
	return unlinkImage(ctx, db, itemID, path, model.ImageActionRemove)
}

func unlinkImage(ctx context.Context, db *sql.DB, itemID int64, path, action string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM images WHERE item_id = ? AND image_path = ?`, itemID, path,
	)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}

	legacy, err := legacyImagePath(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if legacy == path {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET image_path = NULL WHERE id = ?`, itemID,
		); err != nil {
			return fmt.Errorf("clearing legacy image: %w", err)
		}
	} else if n == 0 {
		return ErrNotFound
	}

	if err := RecordImageAction(ctx, tx, itemID, path, action, ""); err != nil {
		return err
	}
	return tx.Commit()
}

// resolveAndUpdatePath updates an image path wherever it lives: images table
// row, legacy reference, or both.
func resolveAndUpdatePath(ctx context.Context, tx *sql.Tx, itemID int64, oldPath, newPath string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE images SET image_path = ? WHERE item_id = ? AND image_path = ?`,
		newPath, itemID, oldPath,
	)
	if err != nil {
		return fmt.Errorf("updating image path: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating image path: %w", err)
	}

	legacy, err := legacyImagePath(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if legacy == oldPath {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET image_path = ? WHERE id = ?`, newPath, itemID,
		); err != nil {
			return fmt.Errorf("updating legacy image path: %w", err)
		}
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// legacyImagePath reads the item's legacy single-image reference, or
// ErrNotFound when the item doesn't exist.
func legacyImagePath(ctx context.Context, tx *sql.Tx, itemID int64) (string, error) {
	var legacy sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT image_path FROM items WHERE id = ?`, itemID,
	).Scan(&legacy)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading item: %w", err)
	}
	return legacy.String, nil
}

// itemExists verifies an item id inside a transaction.
func itemExists(ctx context.Context, tx *sql.Tx, itemID int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	return nil
}
