package recipes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/itemtag"
	"smeltingmetal.dev/internal/sim/metals"
	"smeltingmetal.dev/internal/sim/modcontent"
)

const ns = config.DefaultNamespace

type fixture struct {
	cfg     config.Config
	cat     *catalogs.Catalogs
	content *modcontent.Content
	store   *metals.Store
}

var ironItems = []string{
	"iron_ingot", "iron_block", "raw_iron", "raw_iron_block", "iron_nugget",
	"iron_sword", "iron_pickaxe", "wheat", "bread", "stick",
}

func ironConfig() config.Config {
	cfg := config.Defaults()
	cfg.Metals.MetalDefinitions = []string{"iron"}
	cfg.Metals.GemDefinitions = nil
	return cfg
}

func newFixture(t *testing.T, cfg config.Config, items, blocks []string) *fixture {
	t.Helper()
	cat := catalogs.New()
	for _, s := range items {
		cat.Items.Register(ident.Parse(s))
	}
	for _, s := range blocks {
		cat.Blocks.Register(ident.Parse(s))
	}
	content := modcontent.New(cfg.Namespace,
		metals.ParseShapeDefinitions(cfg.Metals.ItemResultDefinitions).Keys(),
		metals.ParseShapeDefinitions(cfg.Metals.BlockResultDefinitions).Keys())
	content.Register(cat)
	store := metals.NewStore(cat, content, nil)
	res := store.Init(cfg)
	require.Empty(t, res.Rejected)
	return &fixture{cfg: cfg, cat: cat, content: content, store: store}
}

func ironFixture(t *testing.T) *fixture {
	return newFixture(t, ironConfig(), ironItems, []string{"iron_block", "raw_iron_block"})
}

func (f *fixture) processor() *Processor {
	return NewProcessor(f.store, f.content, f.cat, f.cfg, nil)
}

func id(s string) ident.ID { return ident.Parse(s) }

func stack(item string, count int) itemtag.Stack {
	return itemtag.NewStack(id(item), count, 0)
}

func cooking(rid string, tp Type, in, out string) *Recipe {
	return &Recipe{
		ID:          id(rid),
		Type:        tp,
		Ingredients: []Ingredient{{id(in)}},
		Result:      stack(out, 1),
		CookingTime: 200,
		Experience:  0.7,
	}
}

func shaped(rid string, w, h int, in []string, out string, count int) *Recipe {
	r := &Recipe{ID: id(rid), Type: TypeCraftingShaped, Width: w, Height: h, Result: stack(out, count)}
	for _, s := range in {
		if s == "" {
			r.Ingredients = append(r.Ingredients, nil)
			continue
		}
		r.Ingredients = append(r.Ingredients, Ingredient{id(s)})
	}
	return r
}

func grid(item string) []string {
	out := make([]string, 9)
	for i := range out {
		out[i] = item
	}
	return out
}

// vanillaIron is a small host table around iron.
func vanillaIron() []*Recipe {
	return []*Recipe{
		cooking("minecraft:iron_ingot_from_smelting_raw_iron", TypeSmelting, "raw_iron", "iron_ingot"),
		cooking("minecraft:iron_ingot_from_blasting_raw_iron", TypeBlasting, "raw_iron", "iron_ingot"),
		cooking("minecraft:iron_ingot_from_smelting_iron_nugget", TypeSmelting, "iron_nugget", "iron_ingot"),
		cooking("minecraft:iron_nugget_from_smelting", TypeSmelting, "iron_sword", "iron_nugget"),
		shaped("minecraft:iron_ingot_from_nuggets", 3, 3, grid("iron_nugget"), "iron_ingot", 1),
		shaped("minecraft:iron_block", 3, 3, grid("iron_ingot"), "iron_block", 1),
		shaped("minecraft:iron_sword", 1, 3, []string{"iron_ingot", "iron_ingot", "stick"}, "iron_sword", 1),
		{ID: id("minecraft:bread"), Type: TypeCraftingShapeless, Ingredients: []Ingredient{{id("wheat")}, {id("wheat")}, {id("wheat")}}, Result: stack("bread", 1)},
	}
}
