package recipes

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/itemtag"
)

var ErrInvalidRecipe = errors.New("invalid recipe")

type Type string

const (
	TypeSmelting          Type = "smelting"
	TypeBlasting          Type = "blasting"
	TypeCraftingShaped    Type = "crafting_shaped"
	TypeCraftingShapeless Type = "crafting_shapeless"
	TypeCrushing          Type = "crushing"
	TypeSmithingTransform Type = "smithing_transform"
)

// Ingredient is the set of items accepted in one slot. An empty ingredient is an
// empty slot.
type Ingredient []ident.ID

func (in Ingredient) IsEmpty() bool { return len(in) == 0 }

// Output is a chance output of a processing recipe.
type Output struct {
	Stack  itemtag.Stack
	Chance float64
}

type Recipe struct {
	ID          ident.ID
	Type        Type
	Ingredients []Ingredient
	Width       int
	Height      int
	Result      itemtag.Stack
	Outputs     []Output
	CookingTime int
	Experience  float64
}

// Validate checks the fields every table entry needs.
func (r *Recipe) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil", ErrInvalidRecipe)
	}
	if r.ID.IsZero() {
		return fmt.Errorf("%w: empty id", ErrInvalidRecipe)
	}
	if r.Type == "" {
		return fmt.Errorf("%w: %s: empty type", ErrInvalidRecipe, r.ID)
	}
	if r.Result.IsEmpty() {
		return fmt.Errorf("%w: %s: empty result", ErrInvalidRecipe, r.ID)
	}
	if r.Type == TypeCraftingShaped && r.Width*r.Height != len(r.Ingredients) {
		return fmt.Errorf("%w: %s: %dx%d grid with %d ingredients", ErrInvalidRecipe, r.ID, r.Width, r.Height, len(r.Ingredients))
	}
	return nil
}

// InputItems returns every distinct item any ingredient accepts, sorted.
func (r *Recipe) InputItems() []ident.ID {
	seen := map[ident.ID]bool{}
	var out []ident.ID
	for _, in := range r.Ingredients {
		for _, id := range in {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IsGrid reports whether r is a shaped w×h crafting recipe.
func (r *Recipe) IsGrid(w, h int) bool {
	return r.Type == TypeCraftingShaped && r.Width == w && r.Height == h
}

func (r *Recipe) Equal(o *Recipe) bool {
	return reflect.DeepEqual(r, o)
}

func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	out := *r
	out.Ingredients = make([]Ingredient, len(r.Ingredients))
	for i, in := range r.Ingredients {
		out.Ingredients[i] = append(Ingredient(nil), in...)
	}
	out.Result = r.Result.Clone()
	if r.Outputs != nil {
		out.Outputs = make([]Output, len(r.Outputs))
		for i, o := range r.Outputs {
			out.Outputs[i] = Output{Stack: o.Stack.Clone(), Chance: o.Chance}
		}
	}
	return &out
}

// CapsFunc reports the capability tags of an item.
type CapsFunc func(ident.ID) itemtag.Capability

// FromDef converts a host data-file recipe.
func FromDef(d catalogs.RecipeDef, caps CapsFunc) (*Recipe, error) {
	r := &Recipe{
		ID:          ident.Parse(d.ID),
		Type:        Type(d.Type),
		Width:       d.Width,
		Height:      d.Height,
		Result:      stackFromDef(d.Result, caps),
		CookingTime: d.CookingTime,
		Experience:  d.Experience,
	}
	for _, ing := range d.Ingredients {
		var in Ingredient
		for _, s := range ing {
			if id := ident.Parse(s); !id.IsZero() {
				in = append(in, id)
			}
		}
		r.Ingredients = append(r.Ingredients, in)
	}
	for _, o := range d.Outputs {
		r.Outputs = append(r.Outputs, Output{Stack: stackFromDef(o.StackDef, caps), Chance: o.Chance})
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func stackFromDef(d catalogs.StackDef, caps CapsFunc) itemtag.Stack {
	id := ident.Parse(d.Item)
	var c itemtag.Capability
	if caps != nil {
		c = caps(id)
	}
	s := itemtag.NewStack(id, d.Count, c)
	for k, v := range d.Tags {
		s.SetString(k, v)
	}
	return s
}

// Def converts r to its data-file form.
func (r *Recipe) Def() catalogs.RecipeDef {
	d := catalogs.RecipeDef{
		ID:          r.ID.String(),
		Type:        string(r.Type),
		Width:       r.Width,
		Height:      r.Height,
		Result:      stackDef(r.Result),
		CookingTime: r.CookingTime,
		Experience:  r.Experience,
	}
	for _, in := range r.Ingredients {
		ids := make([]string, 0, len(in))
		for _, id := range in {
			ids = append(ids, id.String())
		}
		d.Ingredients = append(d.Ingredients, ids)
	}
	for _, o := range r.Outputs {
		d.Outputs = append(d.Outputs, catalogs.OutputDef{StackDef: stackDef(o.Stack), Chance: o.Chance})
	}
	return d
}

func stackDef(s itemtag.Stack) catalogs.StackDef {
	d := catalogs.StackDef{Item: s.Item.String(), Count: s.Count}
	if len(s.Tags) > 0 {
		d.Tags = make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			d.Tags[k] = v
		}
	}
	return d
}
