package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	eventlog "smeltingmetal.dev/internal/persistence/log"
	"smeltingmetal.dev/internal/persistence/snapshot"
	"smeltingmetal.dev/internal/sim/catalogs"
)

// SQLiteIndex is a queryable read-model of passes and mutations.
// The compressed JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropPass     atomic.Uint64
	dropMutation atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqPass reqKind = iota + 1
	reqMutation
	reqSnapshot
)

type req struct {
	kind reqKind

	pass     eventlog.PassEntry
	mutation eventlog.MutationEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	PassID  string
	Path    string
	TakenAt int64
	Recipes int
	Metals  int
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropPassTotal     uint64
	DropMutationTotal uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS passes (
			pass_id TEXT PRIMARY KEY,
			trigger_name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			unchanged INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			table_size INTEGER NOT NULL,
			metals INTEGER NOT NULL,
			gems INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started_at);`,
		`CREATE TABLE IF NOT EXISTS mutations (
			pass_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			op TEXT NOT NULL,
			recipe_id TEXT NOT NULL,
			type TEXT NOT NULL,
			rule TEXT NOT NULL,
			content TEXT,
			at TEXT NOT NULL,
			PRIMARY KEY (pass_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_recipe ON mutations(recipe_id, at);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_content ON mutations(content, rule);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			pass_id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			taken_at INTEGER NOT NULL,
			recipes INTEGER NOT NULL,
			metals INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropPassTotal:     s.dropPass.Load(),
		DropMutationTotal: s.dropMutation.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WritePass(entry eventlog.PassEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqPass, pass: entry}:
	default:
		// Drop if the indexer falls behind.
		s.dropPass.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteMutation(entry eventlog.MutationEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqMutation, mutation: entry}:
	default:
		s.dropMutation.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		PassID:  snap.Header.PassID,
		Path:    path,
		TakenAt: snap.Header.TakenAt,
		Recipes: len(snap.Recipes),
		Metals:  len(snap.Metals),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertCatalogs stores the host catalog palettes and the raw mod config.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, configRaw []byte, configDigest string) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	for _, r := range []*catalogs.Registry{cats.Items, cats.Blocks, cats.Fluids} {
		if r == nil || r.Len() == 0 {
			continue
		}
		ids := make([]string, 0, r.Len())
		for _, id := range r.All() {
			ids = append(ids, id.String())
		}
		if b, _ := json.Marshal(ids); len(b) > 0 {
			rows = append(rows, kv{name: r.Kind.String() + "_palette", digest: r.PaletteDigest(), json: b})
		}
	}
	if len(cats.Recipes.Defs) > 0 {
		if b, _ := json.Marshal(cats.Recipes.Defs); len(b) > 0 {
			rows = append(rows, kv{name: "recipes", digest: cats.Recipes.Digest, json: b})
		}
	}
	if len(configRaw) > 0 {
		rows = append(rows, kv{name: "config", digest: configDigest, json: configRaw})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertPass, _ := s.db.Prepare(`INSERT OR REPLACE INTO passes(pass_id,trigger_name,started_at,duration_ms,added,removed,unchanged,skipped,failures,table_size,metals,gems,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertMutation, _ := s.db.Prepare(`INSERT OR REPLACE INTO mutations(pass_id,seq,op,recipe_id,type,rule,content,at) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(pass_id,path,taken_at,recipes,metals) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertPass, insertMutation, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastPass    string
		mutationSeq int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqPass:
			p := r.pass
			raw, _ := json.Marshal(p)
			exec(insertPass,
				p.PassID, p.Trigger, p.StartedAt, p.DurationMS,
				p.Added, p.Removed, p.Unchanged, p.Skipped, len(p.Failures),
				p.TableSize, p.Metals, p.Gems, string(raw),
			)

		case reqMutation:
			m := r.mutation
			if m.PassID != lastPass {
				lastPass = m.PassID
				mutationSeq = 0
			}
			seq := mutationSeq
			mutationSeq++
			exec(insertMutation, m.PassID, seq, m.Op, m.RecipeID, m.Type, m.Rule, m.Content, m.At)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.PassID, sn.Path, sn.TakenAt, sn.Recipes, sn.Metals)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
