package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/metrics"
	eventlog "smeltingmetal.dev/internal/persistence/log"
	"smeltingmetal.dev/internal/persistence/snapshot"
	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/metals"
	"smeltingmetal.dev/internal/sim/modcontent"
	"smeltingmetal.dev/internal/sim/recipes"
)

type MutationSink interface {
	WriteMutation(eventlog.MutationEntry) error
}

type PassSink interface {
	WritePass(eventlog.PassEntry) error
}

type SnapshotRecorder interface {
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

type Options struct {
	Config   config.Config
	Catalogs *catalogs.Catalogs
	Log      *zap.Logger

	// SnapshotDir, when set, receives one table snapshot per pass.
	SnapshotDir string

	MutationSinks []MutationSink
	PassSinks     []PassSink
	Snapshots     SnapshotRecorder

	Now   func() time.Time
	NewID func() string
}

// Result is the outcome of one handled event.
type Result struct {
	PassID       string
	Trigger      Trigger
	Ran          bool
	Init         metals.InitResult
	Report       recipes.Report
	Duration     time.Duration
	TableSize    int
	SnapshotPath string
}

// Engine owns the property store and the recipe table and serialises every
// lifecycle event against them.
type Engine struct {
	log  *zap.Logger
	opts Options

	mu      sync.Mutex
	cfg     config.Config
	cat     *catalogs.Catalogs
	content *modcontent.Content
	store   *metals.Store
	table   *recipes.Table
	last    *Result

	// owned holds the recipes the last pass synthesized, across namespace changes.
	owned []ident.ID
}

func New(opts Options) (*Engine, error) {
	if opts.Catalogs == nil {
		return nil, fmt.Errorf("engine: nil catalogs")
	}
	opts.Config.Normalize()
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	e := &Engine{
		log:  logging.OrNop(opts.Log).With(zap.String("component", "engine")),
		opts: opts,
		cat:  opts.Catalogs,
	}
	e.applyConfig(opts.Config)
	e.table = e.tableFrom(opts.Catalogs.Recipes.Defs)
	return e, nil
}

func (e *Engine) applyConfig(cfg config.Config) {
	e.cfg = cfg
	e.content = modcontent.New(cfg.Namespace,
		metals.ParseShapeDefinitions(cfg.Metals.ItemResultDefinitions).Keys(),
		metals.ParseShapeDefinitions(cfg.Metals.BlockResultDefinitions).Keys())
	if n := e.content.Register(e.cat); n > 0 {
		e.log.Info("mod content registered", zap.String("namespace", cfg.Namespace), zap.Int("items", n))
	}
	e.store = metals.NewStore(e.cat, e.content, e.log)
}

func (e *Engine) tableFrom(defs []catalogs.RecipeDef) *recipes.Table {
	rs := make([]*recipes.Recipe, 0, len(defs))
	for _, d := range defs {
		r, err := recipes.FromDef(d, e.content.Caps)
		if err != nil {
			e.log.Error("host recipe skipped", zap.String("recipe_id", d.ID), zap.Error(err))
			continue
		}
		rs = append(rs, r)
	}
	return recipes.NewTableFrom(rs, e.log)
}

// Handle applies one lifecycle event. Per-recipe problems end up in the
// report; an error means the event itself could not be applied.
func (e *Engine) Handle(ctx context.Context, ev Event) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Config != nil {
		cfg := *ev.Config
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return Result{}, fmt.Errorf("engine: %w", err)
		}
		e.applyConfig(cfg)
		e.table = e.rebuildFromCurrent()
	}
	if ev.Trigger == TriggerReloadBegin || ev.Trigger == TriggerConfigReloaded {
		e.store.Reset()
	}
	if ev.Recipes != nil {
		e.table = e.tableFrom(ev.Recipes)
	}
	if !ev.Trigger.RunsPass() {
		e.log.Info("store marked stale", zap.String("trigger", string(ev.Trigger)))
		return Result{Trigger: ev.Trigger, TableSize: e.table.Len()}, nil
	}
	return e.passLocked(ev.Trigger), nil
}

// rebuildFromCurrent recomputes capability tags after the mod content changed.
func (e *Engine) rebuildFromCurrent() *recipes.Table {
	cur := e.table.All()
	defs := make([]catalogs.RecipeDef, 0, len(cur))
	for _, r := range cur {
		defs = append(defs, r.Def())
	}
	return e.tableFrom(defs)
}

func (e *Engine) passLocked(trigger Trigger) Result {
	started := e.opts.Now()
	res := Result{PassID: e.opts.NewID(), Trigger: trigger, Ran: true}
	log := e.log.With(zap.String("pass_id", res.PassID), zap.String("trigger", string(trigger)))

	res.Init = e.store.Init(e.cfg)
	if res.Init.Rebuilt {
		log.Info("property store built",
			zap.Int("metals", res.Init.Metals),
			zap.Int("gems", res.Init.Gems),
			zap.Int("rejected", len(res.Init.Rejected)))
	}
	res.Report = recipes.NewProcessor(e.store, e.content, e.cat, e.cfg, log).
		WithPrevious(e.owned).
		Process(e.table)
	e.owned = res.Report.Owned
	res.Duration = e.opts.Now().Sub(started)
	res.TableSize = e.table.Len()

	metrics.RecordPass(string(trigger), res.Duration, res.TableSize)
	metrics.SetStoreRecords(res.Init.Metals, res.Init.Gems)
	for rule, c := range res.Report.Counts {
		metrics.RecordRule(string(rule), c.Added, c.Removed, c.Skipped)
	}

	e.emit(log, started, &res)
	e.last = &res
	return res
}

func (e *Engine) emit(log *zap.Logger, started time.Time, res *Result) {
	at := started.UTC().Format(time.RFC3339Nano)
	for _, m := range res.Report.Mutations {
		entry := eventlog.MutationEntry{
			PassID:   res.PassID,
			Trigger:  string(res.Trigger),
			Op:       string(m.Op),
			RecipeID: m.RecipeID.String(),
			Type:     string(m.Type),
			Rule:     string(m.Rule),
			Content:  m.Content,
			Shape:    m.Shape,
			At:       at,
		}
		for _, s := range e.opts.MutationSinks {
			if err := s.WriteMutation(entry); err != nil {
				log.Warn("mutation sink failed", zap.Error(err))
			}
		}
	}

	if e.opts.SnapshotDir != "" {
		snap := e.snapshotLocked(res.PassID, res.Trigger, started)
		path := snapshot.PathFor(e.opts.SnapshotDir, started.Unix(), res.PassID)
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			log.Error("snapshot failed", zap.String("path", path), zap.Error(err))
		} else {
			res.SnapshotPath = path
			if e.opts.Snapshots != nil {
				e.opts.Snapshots.RecordSnapshot(path, snap)
			}
		}
	}

	rules := map[string]int{}
	skipped := 0
	for rule, c := range res.Report.Counts {
		rules[string(rule)] = c.Added + c.Removed
		skipped += c.Skipped
	}
	pass := eventlog.PassEntry{
		PassID:     res.PassID,
		Trigger:    string(res.Trigger),
		StartedAt:  at,
		DurationMS: res.Duration.Milliseconds(),
		Added:      res.Report.Added(),
		Removed:    res.Report.Removed(),
		Unchanged:  res.Report.Unchanged,
		Skipped:    skipped,
		Failures:   res.Report.Failures,
		TableSize:  res.TableSize,
		Metals:     res.Init.Metals,
		Gems:       res.Init.Gems,
		Rules:      rules,
	}
	for _, s := range e.opts.PassSinks {
		if err := s.WritePass(pass); err != nil {
			log.Warn("pass sink failed", zap.Error(err))
		}
	}
}

func (e *Engine) snapshotLocked(passID string, trigger Trigger, at time.Time) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			PassID:    passID,
			Trigger:   string(trigger),
			Namespace: e.cfg.Namespace,
			TakenAt:   at.Unix(),
		},
		ItemsDigest:  e.cat.Items.PaletteDigest(),
		BlocksDigest: e.cat.Blocks.PaletteDigest(),
		ConfigDigest: ConfigDigest(e.cfg),
	}
	for _, p := range e.store.All() {
		snap.Metals = append(snap.Metals, metalV1(p))
	}
	for _, r := range e.table.All() {
		snap.Recipes = append(snap.Recipes, r.Def())
	}
	return snap
}

func metalV1(p metals.Properties) snapshot.MetalV1 {
	m := snapshot.MetalV1{
		Kind:     p.Kind.String(),
		Name:     p.Name,
		Primary:  idString(p.Primary),
		Block:    idString(p.Block),
		Raw:      idString(p.Raw),
		RawBlock: idString(p.RawBlock),
		Nugget:   idString(p.Nugget),
		Crushed:  idString(p.Crushed),
		Bucket:   idString(p.Bucket),
		Fluid:    idString(p.Fluid),
		Color:    uint32(p.Color),
	}
	if n := len(p.ItemResults) + len(p.BlockResults); n > 0 {
		m.Results = make(map[string]string, n)
		for _, r := range p.ItemResults {
			m.Results[r.Shape] = r.Item.String()
		}
		for _, r := range p.BlockResults {
			m.Results["block:"+r.Shape] = r.Item.String()
		}
	}
	return m
}

func idString(id ident.ID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}

// ConfigDigest hashes the canonical JSON form of cfg.
func ConfigDigest(cfg config.Config) string {
	b, _ := json.Marshal(cfg)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (e *Engine) Table() *recipes.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table
}

func (e *Engine) Store() *metals.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

func (e *Engine) Content() *modcontent.Content {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// LastResult returns the most recent pass, if any.
func (e *Engine) LastResult() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Result{}, false
	}
	return *e.last, true
}

// Status describes what the engine currently serves.
type Status struct {
	Namespace     string
	Metals        []string
	ItemCount     int
	ItemsDigest   string
	BlockCount    int
	BlocksDigest  string
	RecipesDigest string
	ConfigDigest  string
	TableSize     int
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Namespace:     e.cfg.Namespace,
		ItemCount:     e.cat.Items.Len(),
		ItemsDigest:   e.cat.Items.PaletteDigest(),
		BlockCount:    e.cat.Blocks.Len(),
		BlocksDigest:  e.cat.Blocks.PaletteDigest(),
		RecipesDigest: e.cat.Recipes.Digest,
		ConfigDigest:  ConfigDigest(e.cfg),
		TableSize:     e.table.Len(),
	}
	for _, p := range e.store.All() {
		st.Metals = append(st.Metals, p.Name)
	}
	return st
}
