package seed

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
	"github.com/moyu7925/bag-unit-price-calculator/internal/templates"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way: the stock template
// exists, some template is the default, and the last-used pointer is set.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureStockTemplate(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureDefault(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureAppState(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureStockTemplate(tx *sql.Tx, stats *Stats) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&count); err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	result, err := tx.Exec(`INSERT INTO templates (name, is_default) VALUES (?, TRUE)`, templates.StockName)
	if err != nil {
		return fmt.Errorf("insert stock template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read stock template id: %w", err)
	}

	for key, value := range pricing.DefaultRecord() {
		if _, err := tx.Exec(`
			INSERT INTO template_settings (template_id, key, value)
			VALUES (?, ?, ?)
		`, id, key, value); err != nil {
			return fmt.Errorf("insert stock setting %s: %w", key, err)
		}
	}
	stats.Inserts++
	return nil
}

func ensureDefault(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM templates WHERE is_default LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check default template existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		UPDATE templates
		SET is_default = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT MIN(id) FROM templates)
	`); err != nil {
		return fmt.Errorf("promote default template: %w", err)
	}
	stats.Updates++
	return nil
}

func ensureAppState(tx *sql.Tx, stats *Stats) error {
	var lastID sql.NullInt64
	err := tx.QueryRow(`SELECT last_used_template_id FROM app_state WHERE id = 1`).Scan(&lastID)
	missing := errors.Is(err, sql.ErrNoRows)
	if err != nil && !missing {
		return fmt.Errorf("check app state existence: %w", err)
	}
	if !missing && lastID.Valid {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO app_state (id, last_used_template_id)
		VALUES (1, (SELECT id FROM templates WHERE is_default ORDER BY id LIMIT 1))
		ON CONFLICT(id) DO UPDATE SET
			last_used_template_id = excluded.last_used_template_id,
			updated_at = CURRENT_TIMESTAMP
	`); err != nil {
		return fmt.Errorf("insert app state singleton: %w", err)
	}
	if missing {
		stats.Inserts++
	} else {
		stats.Updates++
	}
	return nil
}
