package templates

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
)

// StockName is the name of the template created on first start.
const StockName = "默认模板"

var (
	ErrNotFound         = errors.New("template not found")
	ErrExists           = errors.New("template already exists")
	ErrDefaultProtected = errors.New("default template cannot be deleted or renamed")
	ErrEmptyName        = errors.New("template name is required")
	ErrInvalidSettings  = errors.New("invalid template settings")
)

// Template is a named, persisted settings record.
type Template struct {
	ID        int64
	Name      string
	IsDefault bool
	Settings  pricing.Record
}

// Store persists templates and the last-used pointer in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db. The schema must already be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// List returns all templates in creation order, without their settings.
func (s *Store) List() ([]Template, error) {
	rows, err := s.db.Query(`SELECT id, name, is_default FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	list := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.IsDefault); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return list, nil
}

// Names returns template names in creation order.
func (s *Store) Names() ([]string, error) {
	list, err := s.List()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, t.Name)
	}
	return names, nil
}

// Get returns the named template with its settings.
func (s *Store) Get(name string) (Template, error) {
	var t Template
	err := s.db.QueryRow(`SELECT id, name, is_default FROM templates WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Template{}, fmt.Errorf("query template: %w", err)
	}

	t.Settings, err = s.settings(t.ID)
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Store) settings(id int64) (pricing.Record, error) {
	rows, err := s.db.Query(`SELECT key, value FROM template_settings WHERE template_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query template settings: %w", err)
	}
	defer rows.Close()

	rec := pricing.Record{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan template setting: %w", err)
		}
		rec[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template settings: %w", err)
	}

	return rec, nil
}

// Create adds a template and makes it the last used one.
func (s *Store) Create(name string, rec pricing.Record, isDefault bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := Validate(rec); err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		id, err := insertTemplate(tx, name, normalizeRecord(rec), isDefault)
		if err != nil {
			return err
		}
		return setLastUsed(tx, id)
	})
}

// Update replaces the settings of an existing template.
func (s *Store) Update(name string, rec pricing.Record) error {
	if err := Validate(rec); err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		id, _, err := lookup(tx, name)
		if err != nil {
			return err
		}
		if err := writeSettings(tx, id, normalizeRecord(rec)); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE templates SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
			return fmt.Errorf("touch template: %w", err)
		}
		return nil
	})
}

// Delete removes a template. The default template cannot be deleted. When the
// deleted template was the last used one, the pointer moves to the oldest
// remaining template.
func (s *Store) Delete(name string) error {
	return s.withTx(func(tx *sql.Tx) error {
		id, isDefault, err := lookup(tx, name)
		if err != nil {
			return err
		}
		if isDefault {
			return ErrDefaultProtected
		}

		lastID, err := lastUsedID(tx)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM templates WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete template: %w", err)
		}

		if lastID.Valid && lastID.Int64 == id {
			var next sql.NullInt64
			if err := tx.QueryRow(`SELECT MIN(id) FROM templates`).Scan(&next); err != nil {
				return fmt.Errorf("query next template: %w", err)
			}
			if _, err := tx.Exec(`UPDATE app_state SET last_used_template_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`, next); err != nil {
				return fmt.Errorf("move last used template: %w", err)
			}
		}
		return nil
	})
}

// Rename changes a template's name. The default template keeps its name.
func (s *Store) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}

	return s.withTx(func(tx *sql.Tx) error {
		id, isDefault, err := lookup(tx, oldName)
		if err != nil {
			return err
		}
		if isDefault {
			return ErrDefaultProtected
		}
		if newName == oldName {
			return nil
		}
		if err := ensureFree(tx, newName); err != nil {
			return err
		}

		if _, err := tx.Exec(`UPDATE templates SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, newName, id); err != nil {
			return fmt.Errorf("rename template: %w", err)
		}
		return nil
	})
}

// SetDefault marks the named template as the only default.
func (s *Store) SetDefault(name string) error {
	return s.withTx(func(tx *sql.Tx) error {
		id, _, err := lookup(tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE templates SET is_default = (id = ?)`, id); err != nil {
			return fmt.Errorf("set default template: %w", err)
		}
		return nil
	})
}

// Duplicate copies the settings of src into a new, non-default template.
func (s *Store) Duplicate(src, dst string) error {
	source, err := s.Get(src)
	if err != nil {
		return err
	}
	return s.Create(dst, source.Settings, false)
}

// DefaultName returns the default template's name, or "" when there is none.
func (s *Store) DefaultName() (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM templates WHERE is_default ORDER BY id LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query default template: %w", err)
	}
	return name, nil
}

// LastUsed returns the last used template's name, or "" when there is none.
func (s *Store) LastUsed() (string, error) {
	var name string
	err := s.db.QueryRow(`
		SELECT t.name
		FROM app_state a
		JOIN templates t ON t.id = a.last_used_template_id
		WHERE a.id = 1
	`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last used template: %w", err)
	}
	return name, nil
}

// SetLastUsed records name as the last used template.
func (s *Store) SetLastUsed(name string) error {
	return s.withTx(func(tx *sql.Tx) error {
		id, _, err := lookup(tx, name)
		if err != nil {
			return err
		}
		return setLastUsed(tx, id)
	})
}

// Active resolves the template a new calculation starts from: the last used
// one, then the default one. Without either it returns an unnamed template
// holding the stock settings.
func (s *Store) Active() (Template, error) {
	name, err := s.LastUsed()
	if err != nil {
		return Template{}, err
	}
	if name == "" {
		if name, err = s.DefaultName(); err != nil {
			return Template{}, err
		}
	}
	if name == "" {
		return Template{Settings: pricing.DefaultRecord()}, nil
	}
	return s.Get(name)
}

func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin template transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template transaction: %w", err)
	}
	return nil
}

func lookup(q queryRower, name string) (int64, bool, error) {
	var (
		id        int64
		isDefault bool
	)
	err := q.QueryRow(`SELECT id, is_default FROM templates WHERE name = ?`, name).Scan(&id, &isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return 0, false, fmt.Errorf("query template: %w", err)
	}
	return id, isDefault, nil
}

func ensureFree(q queryRower, name string) error {
	var exists bool
	if err := q.QueryRow(`SELECT EXISTS(SELECT 1 FROM templates WHERE name = ? LIMIT 1)`, name).Scan(&exists); err != nil {
		return fmt.Errorf("check template existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	return nil
}

func insertTemplate(tx *sql.Tx, name string, rec pricing.Record, isDefault bool) (int64, error) {
	if err := ensureFree(tx, name); err != nil {
		return 0, err
	}

	if isDefault {
		if _, err := tx.Exec(`UPDATE templates SET is_default = FALSE`); err != nil {
			return 0, fmt.Errorf("clear default template: %w", err)
		}
	}

	result, err := tx.Exec(`INSERT INTO templates (name, is_default) VALUES (?, ?)`, name, isDefault)
	if err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read template id: %w", err)
	}

	if err := writeSettings(tx, id, rec); err != nil {
		return 0, err
	}
	return id, nil
}

func writeSettings(tx *sql.Tx, id int64, rec pricing.Record) error {
	if _, err := tx.Exec(`DELETE FROM template_settings WHERE template_id = ?`, id); err != nil {
		return fmt.Errorf("clear template settings: %w", err)
	}

	for key, value := range rec {
		if _, err := tx.Exec(`
			INSERT INTO template_settings (template_id, key, value)
			VALUES (?, ?, ?)
		`, id, key, value); err != nil {
			return fmt.Errorf("insert template setting %s: %w", key, err)
		}
	}
	return nil
}

func lastUsedID(q queryRower) (sql.NullInt64, error) {
	var id sql.NullInt64
	err := q.QueryRow(`SELECT last_used_template_id FROM app_state WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("query last used template: %w", err)
	}
	return id, nil
}

func setLastUsed(tx *sql.Tx, id int64) error {
	if _, err := tx.Exec(`
		INSERT INTO app_state (id, last_used_template_id)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_used_template_id = excluded.last_used_template_id,
			updated_at = CURRENT_TIMESTAMP
	`, id); err != nil {
		return fmt.Errorf("set last used template: %w", err)
	}
	return nil
}
