package recipes

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/sim/ident"
)

// Table is the host recipe table. Writers never touch a published state: every
// Add or Remove builds new indices and swaps them in, so readers always see a
// consistent pair.
type Table struct {
	log *zap.Logger

	mu    sync.Mutex // serialises writers
	state atomic.Pointer[tableState]
}

type tableState struct {
	byType map[Type]map[ident.ID]*Recipe
	byID   map[ident.ID]*Recipe
}

func NewTable(log *zap.Logger) *Table {
	t := &Table{log: logging.OrNop(log).With(zap.String("component", "recipe_table"))}
	t.state.Store(&tableState{
		byType: map[Type]map[ident.ID]*Recipe{},
		byID:   map[ident.ID]*Recipe{},
	})
	return t
}

// NewTableFrom seeds a table. Invalid or duplicate recipes are logged and skipped.
func NewTableFrom(rs []*Recipe, log *zap.Logger) *Table {
	t := NewTable(log)
	st := t.state.Load()
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			t.log.Error("seed recipe skipped", zap.Error(err))
			continue
		}
		if _, dup := st.byID[r.ID]; dup {
			t.log.Warn("duplicate seed recipe skipped", zap.String("recipe_id", r.ID.String()))
			continue
		}
		st.byID[r.ID] = r
		inner := st.byType[r.Type]
		if inner == nil {
			inner = map[ident.ID]*Recipe{}
			st.byType[r.Type] = inner
		}
		inner[r.ID] = r
	}
	return t
}

// Add inserts or replaces the recipe stored under id.
func (t *Table) Add(id ident.ID, r *Recipe) error {
	if err := r.Validate(); err != nil {
		t.log.Error("add abandoned", zap.String("recipe_id", id.String()), zap.Error(err))
		return err
	}
	if id != r.ID {
		err := fmt.Errorf("%w: id %s does not match recipe %s", ErrInvalidRecipe, id, r.ID)
		t.log.Error("add abandoned", zap.String("recipe_id", id.String()), zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.state.Load()
	next := &tableState{byType: cloneOuter(cur.byType), byID: cloneInner(cur.byID)}

	if old, ok := cur.byID[id]; ok && old.Type != r.Type {
		oldInner := cloneInner(cur.byType[old.Type])
		delete(oldInner, id)
		setInner(next.byType, old.Type, oldInner)
	}
	inner := cloneInner(next.byType[r.Type])
	inner[id] = r
	next.byType[r.Type] = inner
	next.byID[id] = r

	t.state.Store(next)
	return nil
}

// Remove deletes id. An absent id is logged and reported as false.
func (t *Table) Remove(id ident.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.state.Load()
	old, ok := cur.byID[id]
	if !ok {
		t.log.Warn("remove of absent recipe", zap.String("recipe_id", id.String()))
		return false
	}
	next := &tableState{byType: cloneOuter(cur.byType), byID: cloneInner(cur.byID)}
	delete(next.byID, id)
	inner := cloneInner(cur.byType[old.Type])
	delete(inner, id)
	setInner(next.byType, old.Type, inner)

	t.state.Store(next)
	return true
}

func (t *Table) Lookup(id ident.ID) (*Recipe, bool) {
	r, ok := t.state.Load().byID[id]
	return r, ok
}

func (t *Table) Len() int { return len(t.state.Load().byID) }

// All returns every recipe ordered by id.
func (t *Table) All() []*Recipe {
	return sorted(t.state.Load().byID)
}

// ByType returns the recipes of one type ordered by id.
func (t *Table) ByType(tp Type) []*Recipe {
	return sorted(t.state.Load().byType[tp])
}

func (t *Table) IDs() []ident.ID {
	rs := t.All()
	out := make([]ident.ID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

// CheckConsistency verifies that both indices describe the same recipes.
func (t *Table) CheckConsistency() error {
	st := t.state.Load()
	n := 0
	for tp, inner := range st.byType {
		if len(inner) == 0 {
			return fmt.Errorf("empty type index %s", tp)
		}
		for id, r := range inner {
			n++
			if st.byID[id] != r {
				return fmt.Errorf("recipe %s: type index and id index disagree", id)
			}
			if r.Type != tp {
				return fmt.Errorf("recipe %s: indexed under %s, has type %s", id, tp, r.Type)
			}
		}
	}
	if n != len(st.byID) {
		return fmt.Errorf("type index holds %d recipes, id index %d", n, len(st.byID))
	}
	return nil
}

func cloneOuter(m map[Type]map[ident.ID]*Recipe) map[Type]map[ident.ID]*Recipe {
	out := make(map[Type]map[ident.ID]*Recipe, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneInner(m map[ident.ID]*Recipe) map[ident.ID]*Recipe {
	out := make(map[ident.ID]*Recipe, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func setInner(m map[Type]map[ident.ID]*Recipe, tp Type, inner map[ident.ID]*Recipe) {
	if len(inner) == 0 {
		delete(m, tp)
		return
	}
	m[tp] = inner
}

func sorted(m map[ident.ID]*Recipe) []*Recipe {
	out := make([]*Recipe, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
