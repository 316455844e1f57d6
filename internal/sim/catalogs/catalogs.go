package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smeltingmetal.dev/internal/sim/ident"
)

// Catalogs is the host's view of every registered item, block and fluid, plus the
// recipe table as shipped by the host's data files.
type Catalogs struct {
	Items  *Registry
	Blocks *Registry
	Fluids *Registry

	Recipes RecipeCatalog
}

// Registry is an append-only list of identifiers of one kind. Iteration order is
// registration order.
type Registry struct {
	Kind ident.Kind

	order  []ident.ID
	set    map[ident.ID]struct{}
	byPath map[string]ident.ID

	// FileDigest is the sha256 of the data file the registry was loaded from (empty if built in code).
	FileDigest string
}

type RecipeCatalog struct {
	Defs   []RecipeDef
	Digest string
}

// RecipeDef is the on-disk form of a host recipe.
type RecipeDef struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Ingredients [][]string  `json:"ingredients,omitempty"`
	Width       int         `json:"width,omitempty"`
	Height      int         `json:"height,omitempty"`
	Result      StackDef    `json:"result"`
	Outputs     []OutputDef `json:"outputs,omitempty"`
	CookingTime int         `json:"cooking_time,omitempty"`
	Experience  float64     `json:"experience,omitempty"`
}

type StackDef struct {
	Item  string            `json:"item"`
	Count int               `json:"count,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type OutputDef struct {
	StackDef
	Chance float64 `json:"chance,omitempty"`
}

func New() *Catalogs {
	return &Catalogs{
		Items:  NewRegistry(ident.KindItem),
		Blocks: NewRegistry(ident.KindBlock),
		Fluids: NewRegistry(ident.KindFluid),
	}
}

func NewRegistry(kind ident.Kind) *Registry {
	return &Registry{
		Kind:   kind,
		set:    map[ident.ID]struct{}{},
		byPath: map[string]ident.ID{},
	}
}

// Register appends id. It reports false if id is zero or already present.
func (r *Registry) Register(id ident.ID) bool {
	if id.IsZero() {
		return false
	}
	if _, ok := r.set[id]; ok {
		return false
	}
	r.set[id] = struct{}{}
	r.order = append(r.order, id)
	if _, ok := r.byPath[id.Path]; !ok {
		r.byPath[id.Path] = id
	}
	return true
}

func (r *Registry) Has(id ident.ID) bool {
	_, ok := r.set[id]
	return ok
}

// Lookup returns the first registered entry whose path equals path.
func (r *Registry) Lookup(path string) (ident.ID, bool) {
	id, ok := r.byPath[path]
	return id, ok
}

// All returns a copy of the registry in registration order.
func (r *Registry) All() []ident.ID {
	out := make([]ident.ID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// PaletteDigest hashes the sorted identifier list, independent of registration order.
func (r *Registry) PaletteDigest() string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	b, _ := json.Marshal(ids)
	return sha256Hex(b)
}

func (c *Catalogs) Registry(kind ident.Kind) *Registry {
	switch kind {
	case ident.KindItem:
		return c.Items
	case ident.KindBlock:
		return c.Blocks
	case ident.KindFluid:
		return c.Fluids
	}
	return nil
}

func (c *Catalogs) Lookup(kind ident.Kind, path string) (ident.ID, bool) {
	r := c.Registry(kind)
	if r == nil {
		return ident.ID{}, false
	}
	return r.Lookup(path)
}

func (c *Catalogs) All(kind ident.Kind) []ident.ID {
	r := c.Registry(kind)
	if r == nil {
		return nil
	}
	return r.All()
}

func (c *Catalogs) Has(kind ident.Kind, id ident.ID) bool {
	r := c.Registry(kind)
	return r != nil && r.Has(id)
}

// Load reads items.json, blocks.json, fluids.json and recipes.json from configDir.
// fluids.json and recipes.json may be absent.
func Load(configDir string) (*Catalogs, error) {
	c := New()

	if err := loadRegistry(filepath.Join(configDir, "items.json"), c.Items, false); err != nil {
		return nil, err
	}
	if err := loadRegistry(filepath.Join(configDir, "blocks.json"), c.Blocks, false); err != nil {
		return nil, err
	}
	if err := loadRegistry(filepath.Join(configDir, "fluids.json"), c.Fluids, true); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	return c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadRegistry(path string, out *Registry, optional bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			out.FileDigest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.FileDigest = sha256Hex(raw)

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	for _, s := range ids {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s: empty id", filepath.Base(path))
		}
		out.Register(ident.Parse(s))
	}
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	seen := map[string]bool{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("recipes.json: empty id")
		}
		if d.Type == "" {
			return fmt.Errorf("recipes.json: recipe %q: empty type", d.ID)
		}
		key := ident.Parse(d.ID).String()
		if seen[key] {
			return fmt.Errorf("recipes.json: duplicate recipe id %q", d.ID)
		}
		seen[key] = true
	}
	out.Defs = defs
	return nil
}
