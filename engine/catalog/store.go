// Package catalog is the sole owner of the local SQLite food catalog. It is
// the default search backend: seedable, offline, and cheap to query.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/score"
)

// Store wraps the SQLite handle. Safe for concurrent use; database/sql pools
// connections underneath.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the catalog database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS foods (
		provider     TEXT NOT NULL,
		external_id  TEXT NOT NULL,
		display_name TEXT NOT NULL,
		brand        TEXT NOT NULL DEFAULT '',
		serving_size REAL,
		serving_unit TEXT NOT NULL DEFAULT '',
		calories     REAL,
		carbs        REAL,
		protein      REAL,
		fat          REAL,
		fibre        REAL,
		sugar        REAL,
		sodium_mg    REAL,
		PRIMARY KEY (provider, external_id)
	);

	CREATE INDEX IF NOT EXISTS idx_foods_name ON foods(display_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert inserts or updates catalog records keyed by provider+external_id.
func (s *Store) Upsert(ctx context.Context, foods []domain.NormalizedFood) error {
	if len(foods) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO foods (provider, external_id, display_name, brand, serving_size, serving_unit,
			calories, carbs, protein, fat, fibre, sugar, sodium_mg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			display_name = excluded.display_name,
			brand        = excluded.brand,
			serving_size = excluded.serving_size,
			serving_unit = excluded.serving_unit,
			calories     = excluded.calories,
			carbs        = excluded.carbs,
			protein      = excluded.protein,
			fat          = excluded.fat,
			fibre        = excluded.fibre,
			sugar        = excluded.sugar,
			sodium_mg    = excluded.sodium_mg`)
	if err != nil {
		return fmt.Errorf("catalog: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range foods {
		f = domain.SanitizeFood(f)
		var servingSize any
		if f.ServingSize > 0 {
			servingSize = f.ServingSize
		}
		m := f.Macros
		_, err := stmt.ExecContext(ctx,
			string(f.Provider), f.ExternalID, f.DisplayName, f.Brand, servingSize, f.ServingUnit,
			nullable(m.Calories), nullable(m.Carbs), nullable(m.Protein), nullable(m.Fat),
			nullable(m.Fibre), nullable(m.Sugar), nullable(m.SodiumMg))
		if err != nil {
			return fmt.Errorf("catalog: upsert %s: %w", f.Key(), err)
		}
	}
	return tx.Commit()
}

// Search implements resolve.Searcher: every query token must appear in the
// display name or brand. Ordered by name for determinism; ranking is the
// engine's job.
func (s *Store) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]domain.NormalizedFood, error) {
	tokens := score.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 15
	}

	var b strings.Builder
	var args []any
	b.WriteString(`SELECT provider, external_id, display_name, brand, serving_size, serving_unit,
		calories, carbs, protein, fat, fibre, sugar, sodium_mg FROM foods WHERE 1=1`)
	for _, tok := range tokens {
		b.WriteString(" AND (lower(display_name) LIKE ? OR lower(brand) LIKE ?)")
		pattern := "%" + tok + "%"
		args = append(args, pattern, pattern)
	}
	if len(excludeIDs) > 0 {
		b.WriteString(" AND external_id NOT IN (?" + strings.Repeat(",?", len(excludeIDs)-1) + ")")
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	b.WriteString(" ORDER BY display_name LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: search %q: %w", query, err)
	}
	defer rows.Close()

	var foods []domain.NormalizedFood
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		foods = append(foods, f)
	}
	return foods, rows.Err()
}

// Count reports how many records the catalog holds.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM foods`).Scan(&n)
	return n, err
}

func scanFood(rows *sql.Rows) (domain.NormalizedFood, error) {
	var f domain.NormalizedFood
	var provider string
	var servingSize, calories, carbs, protein, fat, fibre, sugar, sodium sql.NullFloat64

	err := rows.Scan(&provider, &f.ExternalID, &f.DisplayName, &f.Brand, &servingSize, &f.ServingUnit,
		&calories, &carbs, &protein, &fat, &fibre, &sugar, &sodium)
	if err != nil {
		return f, err
	}
	f.Provider = domain.Provider(provider)
	if servingSize.Valid {
		f.ServingSize = servingSize.Float64
	}
	f.Macros = domain.Nutrients{
		Calories: fromNull(calories),
		Carbs:    fromNull(carbs),
		Protein:  fromNull(protein),
		Fat:      fromNull(fat),
		Fibre:    fromNull(fibre),
		Sugar:    fromNull(sugar),
		SodiumMg: fromNull(sodium),
	}
	return f, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
