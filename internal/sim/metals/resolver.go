package metals

import (
	"strings"

	"smeltingmetal.dev/internal/sim/ident"
)

// Catalog is the read side of the host catalog.
type Catalog interface {
	Lookup(kind ident.Kind, path string) (ident.ID, bool)
	All(kind ident.Kind) []ident.ID
	Has(kind ident.Kind, id ident.ID) bool
}

// Resolver maps derived names onto catalog entries.
type Resolver struct {
	cat Catalog
}

func NewResolver(cat Catalog) *Resolver { return &Resolver{cat: cat} }

// Resolve finds the entry whose short name equals name. A namespaced name must
// match exactly.
func (r *Resolver) Resolve(kind ident.Kind, name string) (ident.ID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ident.ID{}, false
	}
	if strings.Contains(name, ":") {
		id := ident.Parse(name)
		return id, r.cat.Has(kind, id)
	}
	return r.cat.Lookup(kind, name)
}

// ResolveOrDefault never fails: a miss yields fallback.
func (r *Resolver) ResolveOrDefault(kind ident.Kind, name string, fallback ident.ID) ident.ID {
	if id, ok := r.Resolve(kind, name); ok {
		return id
	}
	return fallback
}

// ResolveByAllSubstrings returns the first entry, in catalog order, whose short
// name contains every one of subs.
func (r *Resolver) ResolveByAllSubstrings(kind ident.Kind, subs []string) (ident.ID, bool) {
	if len(subs) == 0 {
		return ident.ID{}, false
	}
	for _, id := range r.cat.All(kind) {
		if containsAll(id.Path, subs) {
			return id, true
		}
	}
	return ident.ID{}, false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// resolveShapes finds, per shape, the item name_<syn> or the first item
// containing both name and _<syn>. Synonym order is the tie-break.
func (r *Resolver) resolveShapes(name string, shapes ShapeMap) []ShapeResult {
	var out []ShapeResult
	for _, shape := range shapes {
		for _, syn := range shape.Synonyms {
			id, ok := r.Resolve(ident.KindItem, name+"_"+syn)
			if !ok {
				id, ok = r.ResolveByAllSubstrings(ident.KindItem, []string{name, "_" + syn})
			}
			if ok {
				out = append(out, ShapeResult{Shape: shape.Key, Item: id})
				break
			}
		}
	}
	return out
}
