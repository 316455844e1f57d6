package metals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/modcontent"
)

func newCatalog(items, blocks []string) *catalogs.Catalogs {
	c := catalogs.New()
	for _, s := range items {
		c.Items.Register(ident.Parse(s))
	}
	for _, s := range blocks {
		c.Blocks.Register(ident.Parse(s))
	}
	return c
}

func newStore(t *testing.T, cat *catalogs.Catalogs, cfg config.Config) (*Store, *modcontent.Content) {
	t.Helper()
	content := modcontent.New(cfg.Namespace, nil, nil)
	content.Register(cat)
	return NewStore(cat, content, nil), content
}

func metalsOnly(defs ...string) config.Config {
	cfg := config.Defaults()
	cfg.Metals.MetalDefinitions = defs
	cfg.Metals.GemDefinitions = nil
	return cfg
}

func TestResolver(t *testing.T) {
	cat := newCatalog([]string{"othermod:tin_plate", "thermal:tin_ingot", "tin_ingot"}, nil)
	r := NewResolver(cat)

	id, ok := r.Resolve(ident.KindItem, "tin_ingot")
	require.True(t, ok)
	assert.Equal(t, "thermal", id.Namespace)

	id, ok = r.Resolve(ident.KindItem, "minecraft:tin_ingot")
	require.True(t, ok)
	assert.Equal(t, ident.DefaultNamespace, id.Namespace)

	_, ok = r.Resolve(ident.KindItem, "tin_nugget")
	assert.False(t, ok)
	_, ok = r.Resolve(ident.KindBlock, "tin_ingot")
	assert.False(t, ok)

	fallback := ident.New("smeltingmetal", "metal_nugget")
	assert.Equal(t, fallback, r.ResolveOrDefault(ident.KindItem, "tin_nugget", fallback))

	id, ok = r.ResolveByAllSubstrings(ident.KindItem, []string{"tin", "_ingot"})
	require.True(t, ok)
	assert.Equal(t, ident.New("thermal", "tin_ingot"), id)
}

func TestStore_IronScenario(t *testing.T) {
	cat := newCatalog(
		[]string{"iron_ingot", "iron_block", "raw_iron", "iron_nugget", "iron_sword", "iron_pickaxe", "iron_axe", "iron_helmet", "iron_chestplate", "iron_boots"},
		[]string{"iron_block", "raw_iron_block"},
	)
	s, content := newStore(t, cat, metalsOnly("iron,color=b9835f"))
	res := s.Init(metalsOnly("iron,color=b9835f"))
	require.True(t, res.Rebuilt)
	require.Equal(t, 1, res.Metals)
	require.Empty(t, res.Rejected)

	p, ok := s.Get("iron")
	require.True(t, ok)
	assert.Equal(t, KindMetal, p.Kind)
	assert.Equal(t, ident.Parse("iron_ingot"), p.Primary)
	assert.Equal(t, ident.Parse("iron_block"), p.Block)
	assert.Equal(t, ident.Parse("raw_iron"), p.Raw)
	assert.Equal(t, ident.Parse("raw_iron_block"), p.RawBlock)
	assert.Equal(t, ident.Parse("iron_nugget"), p.Nugget)
	// no crushed form in the catalog: falls back to the raw ore
	assert.Equal(t, ident.Parse("raw_iron"), p.Crushed)
	assert.Equal(t, content.MoltenBucket(), p.Bucket)
	assert.True(t, p.Fluid.IsZero())
	assert.Equal(t, 0xb9835f, p.Color)

	sword, ok := p.ItemResult("sword")
	require.True(t, ok)
	assert.Equal(t, ident.Parse("iron_sword"), sword)
	pick, _ := p.ItemResult("pickaxe")
	assert.Equal(t, ident.Parse("iron_pickaxe"), pick)
	axe, _ := p.ItemResult("axe")
	assert.Equal(t, ident.Parse("iron_axe"), axe)
	armor, ok := p.BlockResult("armor")
	require.True(t, ok)
	assert.Equal(t, ident.Parse("iron_chestplate"), armor)
	_, ok = p.BlockResult("pants")
	assert.False(t, ok)
}

func TestStore_NuggetFallsBackToDefault(t *testing.T) {
	cat := newCatalog([]string{"tin_ingot"}, nil)
	cfg := metalsOnly("tin")
	s, content := newStore(t, cat, cfg)
	s.Init(cfg)

	p, ok := s.Get("tin")
	require.True(t, ok)
	assert.Equal(t, content.DefaultNugget(), p.Nugget)
	assert.Equal(t, content.DefaultRaw(), p.Raw)
	assert.True(t, p.Block.IsZero())
	assert.True(t, p.Bucket.IsZero())
}

func TestStore_RejectsUnresolvedAndKeepsOthers(t *testing.T) {
	cat := newCatalog([]string{"iron_ingot"}, nil)
	cfg := metalsOnly("lead", "iron", "iron", "bad,color=nothex")
	s, _ := newStore(t, cat, cfg)
	res := s.Init(cfg)

	require.Equal(t, 1, res.Metals)
	require.Len(t, res.Rejected, 3)
	assert.ErrorIs(t, res.Rejected[0].Err, ErrMissingRequired)
	assert.ErrorIs(t, res.Rejected[1].Err, ErrDuplicateName)
	assert.ErrorIs(t, res.Rejected[2].Err, ErrMalformedDefinition)
	assert.True(t, s.Exists("iron"))
	assert.False(t, s.Exists("lead"))
}

func TestStore_BuildIsDeterministic(t *testing.T) {
	items := []string{"gold_ingot", "gold_block", "raw_gold", "gold_nugget", "golden_sword", "gold_sword", "copper_ingot", "raw_copper", "diamond", "diamond_block"}
	blocks := []string{"gold_block", "copper_block", "diamond_block"}
	cfg := config.Defaults()

	a, _ := newStore(t, newCatalog(items, blocks), cfg)
	a.Init(cfg)
	b, _ := newStore(t, newCatalog(items, blocks), cfg)
	b.Init(cfg)

	require.Equal(t, a.All(), b.All())
	require.Equal(t, []string{"gold", "copper", "diamond"}, names(a.All()))
	require.Len(t, a.Gems(), 1)
	require.Len(t, a.Metals(), 2)
}

func TestStore_InitIsIdempotentUntilReset(t *testing.T) {
	cat := newCatalog([]string{"iron_ingot"}, nil)
	cfg := metalsOnly("iron")
	s, _ := newStore(t, cat, cfg)

	require.True(t, s.Init(cfg).Rebuilt)
	res := s.Init(metalsOnly("gold"))
	require.False(t, res.Rebuilt)
	require.True(t, s.Exists("iron"))

	s.Reset()
	require.False(t, s.Initialized())
	res = s.Init(metalsOnly())
	require.True(t, res.Rebuilt)
	require.Empty(t, s.All())
}

func TestStore_ContentKeyFromPath(t *testing.T) {
	cat := newCatalog([]string{"tin_ingot", "iron_ingot", "diamond"}, nil)
	cfg := metalsOnly("tin", "iron")
	cfg.Metals.GemDefinitions = []string{"diamond"}
	s, _ := newStore(t, cat, cfg)
	s.Init(cfg)

	key, ok := s.ContentKeyFromPath("Raw_Iron", false)
	require.True(t, ok)
	assert.Equal(t, "iron", key)

	// literal substring rule: "tin" is inside "platinum" but not "titanium"
	key, ok = s.ContentKeyFromPath("platinum_ingot", false)
	require.True(t, ok)
	assert.Equal(t, "tin", key)
	_, ok = s.ContentKeyFromPath("titanium_ingot", false)
	assert.False(t, ok)

	_, ok = s.ContentKeyFromPath("iron_nugget", false)
	assert.False(t, ok, "blacklisted")

	_, ok = s.ContentKeyFromPath("diamond_pickaxe", false)
	assert.False(t, ok)
	key, ok = s.ContentKeyFromPath("diamond_pickaxe", true)
	require.True(t, ok)
	assert.Equal(t, "diamond", key)
}

func TestStore_ShapeAndBlockClassification(t *testing.T) {
	cat := newCatalog([]string{"iron_ingot"}, nil)
	cfg := metalsOnly("iron")
	s, _ := newStore(t, cat, cfg)
	s.Init(cfg)

	shape, ok := s.ShapeKeyFromPath("iron_leggings", true)
	require.True(t, ok)
	assert.Equal(t, "pants", shape)
	shape, ok = s.ShapeKeyFromPath("iron_shovel", false)
	require.True(t, ok)
	assert.Equal(t, "shovel", shape)
	_, ok = s.ShapeKeyFromPath("item_mold_clay", false)
	assert.False(t, ok)

	assert.True(t, s.IsBlockPath("raw_iron_block"))
	assert.True(t, s.IsBlockPath("iron_bricks"))
	assert.False(t, s.IsBlockPath("raw_iron"))
}

func TestStore_ReverseLookupByIngot(t *testing.T) {
	cat := newCatalog([]string{"iron_ingot", "gold_ingot"}, nil)
	cfg := metalsOnly("iron", "gold")
	s, _ := newStore(t, cat, cfg)
	s.Init(cfg)

	name, ok := s.ReverseLookupByIngot(ident.Parse("gold_ingot"))
	require.True(t, ok)
	assert.Equal(t, "gold", name)
	_, ok = s.ReverseLookupByIngot(ident.Parse("copper_ingot"))
	assert.False(t, ok)
	_, ok = s.ReverseLookupByIngot(ident.ID{})
	assert.False(t, ok)
}

func TestStore_EmptyConfiguration(t *testing.T) {
	cfg := metalsOnly()
	s, _ := newStore(t, newCatalog(nil, nil), cfg)
	res := s.Init(cfg)
	require.True(t, res.Rebuilt)
	require.Empty(t, s.All())
}

func names(ps []Properties) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
