package recipes

import (
	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/metals"
	"smeltingmetal.dev/internal/sim/modcontent"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Mutation is one applied table change.
type Mutation struct {
	Op       Op
	RecipeID ident.ID
	Type     Type
	Rule     Rule
	Content  string
	Shape    string
}

type RuleCount struct {
	Added   int
	Removed int
	Skipped int
}

// Report describes one pass over the table. Owned lists the synthesized
// recipes present in the table once the pass is done.
type Report struct {
	Mutations []Mutation
	Unchanged int
	Kept      []Decision
	Skips     []Skip
	Failures  []string
	Counts    map[Rule]RuleCount
	Owned     []ident.ID
}

func (r Report) Added() int   { return r.count(OpAdd) }
func (r Report) Removed() int { return r.count(OpRemove) }

func (r Report) count(op Op) int {
	n := 0
	for _, m := range r.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Processor runs classify, synthesize and mutate over a table.
type Processor struct {
	log     *zap.Logger
	store   *metals.Store
	content *modcontent.Content
	cat     metals.Catalog
	cfg     config.Config
	prev    map[ident.ID]bool
}

func NewProcessor(store *metals.Store, content *modcontent.Content, cat metals.Catalog, cfg config.Config, log *zap.Logger) *Processor {
	return &Processor{
		log:     logging.OrNop(log).With(zap.String("component", "processor")),
		store:   store,
		content: content,
		cat:     cat,
		cfg:     cfg,
	}
}

// WithPrevious sets the recipes an earlier pass added. Those that are no longer
// synthesized are swept, whatever namespace they were added under.
func (p *Processor) WithPrevious(ids []ident.ID) *Processor {
	p.prev = make(map[ident.ID]bool, len(ids))
	for _, id := range ids {
		p.prev[id] = true
	}
	return p
}

// Plan computes the additions and removals for t without applying them.
// Removals cover classified host recipes and earlier additions that are no
// longer synthesized. Other recipes in the mod's namespace pass through.
func (p *Processor) Plan(t *Table) ([]Addition, []Mutation, Report) {
	rep := Report{Counts: map[Rule]RuleCount{}}

	adds, skips := NewSynthesizer(p.store, p.content, p.cat, p.cfg, p.log).Synthesize()
	rep.Skips = skips
	for _, sk := range skips {
		c := rep.Counts[sk.Rule]
		c.Skipped++
		rep.Counts[sk.Rule] = c
	}
	want := make(map[ident.ID]bool, len(adds))
	for _, a := range adds {
		want[a.Recipe.ID] = true
	}

	cls := NewClassifier(p.store, p.cfg)
	var removals []Mutation
	for _, r := range t.All() {
		if p.prev[r.ID] && !want[r.ID] {
			removals = append(removals, Mutation{Op: OpRemove, RecipeID: r.ID, Type: r.Type, Rule: RuleStale})
			continue
		}
		if r.ID.Namespace == p.cfg.Namespace {
			continue
		}
		d := cls.Classify(r)
		switch {
		case d.Remove:
			removals = append(removals, Mutation{Op: OpRemove, RecipeID: r.ID, Type: r.Type, Rule: d.Rule, Content: d.Content, Shape: d.Shape})
		case d.Rule != "":
			rep.Kept = append(rep.Kept, d)
		}
	}
	return adds, removals, rep
}

// Process applies removals then additions. A failed mutation is logged and
// skipped; the rest of the batch still runs.
func (p *Processor) Process(t *Table) Report {
	adds, removals, rep := p.Plan(t)

	for _, m := range removals {
		if !t.Remove(m.RecipeID) {
			rep.Failures = append(rep.Failures, "remove "+m.RecipeID.String())
			continue
		}
		rep.record(m)
	}
	for _, a := range adds {
		if cur, ok := t.Lookup(a.Recipe.ID); ok && cur.Equal(a.Recipe) {
			rep.Unchanged++
			rep.Owned = append(rep.Owned, a.Recipe.ID)
			continue
		}
		if err := t.Add(a.Recipe.ID, a.Recipe); err != nil {
			rep.Failures = append(rep.Failures, err.Error())
			if _, ok := t.Lookup(a.Recipe.ID); ok && p.prev[a.Recipe.ID] {
				rep.Owned = append(rep.Owned, a.Recipe.ID)
			}
			continue
		}
		rep.Owned = append(rep.Owned, a.Recipe.ID)
		rep.record(Mutation{Op: OpAdd, RecipeID: a.Recipe.ID, Type: a.Recipe.Type, Rule: a.Rule, Content: a.Content})
	}

	p.log.Info("recipe pass complete",
		zap.Int("added", rep.Added()),
		zap.Int("removed", rep.Removed()),
		zap.Int("unchanged", rep.Unchanged),
		zap.Int("skipped", len(rep.Skips)),
		zap.Int("failed", len(rep.Failures)),
		zap.Int("table_size", t.Len()),
	)
	return rep
}

func (r *Report) record(m Mutation) {
	r.Mutations = append(r.Mutations, m)
	c := r.Counts[m.Rule]
	if m.Op == OpAdd {
		c.Added++
	} else {
		c.Removed++
	}
	r.Counts[m.Rule] = c
}
