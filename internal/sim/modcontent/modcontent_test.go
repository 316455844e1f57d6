package modcontent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/itemtag"
)

func TestNew_Layout(t *testing.T) {
	c := New("smeltingmetal", []string{"ingot", "sword"}, []string{"block", "helmet"})

	id, ok := c.ClayMold(ScaleItem, "sword")
	require.True(t, ok)
	assert.Equal(t, ident.New("smeltingmetal", "item_mold_clay_sword"), id)

	id, ok = c.ClayMold(ScaleBlock, "helmet")
	require.True(t, ok)
	assert.Equal(t, ident.New("smeltingmetal", "block_mold_clay_helmet"), id)

	_, ok = c.ClayMold(ScaleItem, "helmet")
	assert.False(t, ok)

	assert.Equal(t, ident.New("smeltingmetal", "block_mold_netherite"), c.Mold(ScaleBlock, TierNetherite))
	// 6 shared items, 2+2 clay molds, 2+2 upgraded molds
	assert.Len(t, c.Entries(), 14)
}

func TestCaps(t *testing.T) {
	c := New("smeltingmetal", []string{"ingot"}, nil)

	caps := c.Caps(c.MoltenMetalBlock())
	assert.True(t, caps.Has(itemtag.CapMolten|itemtag.CapBlockScale))
	assert.True(t, c.Caps(c.Mold(ScaleItem, TierHardened)).Has(itemtag.CapMold|itemtag.CapContent))
	assert.Equal(t, itemtag.Capability(0), c.Caps(ident.Parse("iron_ingot")))

	s := c.NewStack(c.MoltenMetal(), 1)
	s.SetContent("iron", nil)
	assert.Equal(t, "iron", s.Content())
}

func TestRegister_IsAppendOnly(t *testing.T) {
	cat := catalogs.New()
	cat.Items.Register(ident.Parse("iron_ingot"))
	c := New("smeltingmetal", []string{"ingot"}, []string{"block"})

	n := c.Register(cat)
	require.Equal(t, len(c.Entries()), n)
	require.Equal(t, 0, c.Register(cat))

	require.True(t, cat.Has(ident.KindItem, ident.Parse("iron_ingot")))
	require.True(t, cat.Has(ident.KindBlock, c.DefaultRawBlock()))
	require.True(t, cat.Has(ident.KindFluid, c.MoltenMetal()))
	require.True(t, c.IsSentinel(c.DefaultNugget()))
	require.False(t, c.IsSentinel(c.MoltenMetal()))
}
