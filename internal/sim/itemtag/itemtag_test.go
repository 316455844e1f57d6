package itemtag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/ident"
)

func TestSetContent_RequiresCapability(t *testing.T) {
	plain := NewStack(ident.Parse("iron_ingot"), 1, 0)
	plain.SetContent("iron", nil)
	require.Nil(t, plain.Tags)
	require.Equal(t, DefaultContent, plain.Content())

	molten := NewStack(ident.New("smeltingmetal", "molten_metal"), 1, CapContent|CapMolten)
	molten.SetContent("iron", func(string) bool { return true })
	v, ok := molten.GetString(ContentKey)
	require.True(t, ok)
	require.Equal(t, "iron", v)
}

func TestSetContent_ClearsDefaultAndUnknown(t *testing.T) {
	s := NewStack(ident.New("smeltingmetal", "molten_metal"), 1, CapContent)
	s.SetContent("iron", nil)
	require.Equal(t, "iron", s.Content())

	s.SetContent("mithril", func(n string) bool { return n == "iron" })
	require.Equal(t, DefaultContent, s.Content())
	require.Nil(t, s.Tags)

	s.SetContent("iron", nil)
	s.SetContent(DefaultContent, nil)
	require.Nil(t, s.Tags)
}

func TestSetShape(t *testing.T) {
	mold := NewStack(ident.New("smeltingmetal", "hardened_item_mold"), 1, CapMold|CapContent)
	mold.SetShape("axe", "ingot", nil)
	assert.Equal(t, "axe", mold.Shape("ingot"))

	mold.SetShape("ingot", "ingot", nil)
	assert.Equal(t, "ingot", mold.Shape("ingot"))
	assert.Nil(t, mold.Tags)

	ingot := NewStack(ident.Parse("iron_ingot"), 1, 0)
	ingot.SetShape("axe", "ingot", nil)
	assert.Nil(t, ingot.Tags)
}

func TestClone_IsDeep(t *testing.T) {
	s := NewStack(ident.Parse("x"), 2, CapContent)
	s.SetString(ContentKey, "gold")
	c := s.Clone()
	c.SetString(ContentKey, "iron")
	require.Equal(t, "gold", s.Content())
	require.Equal(t, "{content=iron}", c.TagString())
}

func TestCapability_String(t *testing.T) {
	require.Equal(t, "none", Capability(0).String())
	require.Equal(t, "content|molten", (CapContent | CapMolten).String())
}
