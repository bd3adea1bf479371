package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers order sessions by creation and are never shown to the user.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counter := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", counter)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var next int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", counter)).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to read sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}
	return next, nil
}
