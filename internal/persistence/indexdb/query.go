package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

type PassRow struct {
	PassID     string
	Trigger    string
	StartedAt  string
	DurationMS int64
	Added      int
	Removed    int
	Unchanged  int
	Skipped    int
	Failures   int
	TableSize  int
	Metals     int
	Gems       int
	Rules      map[string]int
}

type MutationRow struct {
	PassID   string
	Seq      int
	Op       string
	RecipeID string
	Type     string
	Rule     string
	Content  string
	At       string
}

// Reader runs queries against an index written by SQLiteIndex.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// RecentPasses returns up to limit passes, newest first.
func (r *Reader) RecentPasses(ctx context.Context, limit int) ([]PassRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT pass_id,trigger_name,started_at,duration_ms,added,removed,unchanged,skipped,failures,table_size,metals,gems,raw_json
		FROM passes ORDER BY started_at DESC, pass_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PassRow
	for rows.Next() {
		var p PassRow
		var raw string
		if err := rows.Scan(&p.PassID, &p.Trigger, &p.StartedAt, &p.DurationMS, &p.Added, &p.Removed,
			&p.Unchanged, &p.Skipped, &p.Failures, &p.TableSize, &p.Metals, &p.Gems, &raw); err != nil {
			return nil, err
		}
		var full struct {
			Rules map[string]int `json:"rules"`
		}
		if err := json.Unmarshal([]byte(raw), &full); err != nil {
			return nil, fmt.Errorf("pass %s: %w", p.PassID, err)
		}
		p.Rules = full.Rules
		out = append(out, p)
	}
	return out, rows.Err()
}

// Mutations lists the changes of one pass in application order.
func (r *Reader) Mutations(ctx context.Context, passID string) ([]MutationRow, error) {
	return r.mutations(ctx, `WHERE pass_id = ? ORDER BY seq`, passID)
}

// RecipeHistory lists every change that touched a recipe id.
func (r *Reader) RecipeHistory(ctx context.Context, recipeID string) ([]MutationRow, error) {
	return r.mutations(ctx, `WHERE recipe_id = ? ORDER BY at, pass_id, seq`, recipeID)
}

func (r *Reader) mutations(ctx context.Context, where string, arg any) ([]MutationRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pass_id,seq,op,recipe_id,type,rule,COALESCE(content,''),at FROM mutations `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MutationRow
	for rows.Next() {
		var m MutationRow
		if err := rows.Scan(&m.PassID, &m.Seq, &m.Op, &m.RecipeID, &m.Type, &m.Rule, &m.Content, &m.At); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CatalogDigest returns the stored digest of a named catalog row.
func (r *Reader) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := r.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name = ?`, name).Scan(&d)
	return d, err
}
