package portfolioai

import (
	"database/sql"
	"fmt"
)

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS ai_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			provider TEXT NOT NULL DEFAULT '',
			base_url TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			temperature REAL NOT NULL DEFAULT 0.2,
			max_tokens INTEGER NOT NULL DEFAULT 4096,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	// Columns added after the first release.
	for _, col := range []struct{ name, ddl string }{
		{"provider", "ALTER TABLE ai_settings ADD COLUMN provider TEXT NOT NULL DEFAULT ''"},
		{"max_tokens", "ALTER TABLE ai_settings ADD COLUMN max_tokens INTEGER NOT NULL DEFAULT 4096"},
	} {
		has, err := tableHasColumn(tx, "ai_settings", col.name)
		if err != nil {
			return err
		}
		if !has {
			if err := exec(tx, col.ddl); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

func tableHasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
