package recipes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AddRemoveKeepsIndicesConsistent(t *testing.T) {
	tbl := NewTable(nil)
	r := cooking("minecraft:a", TypeSmelting, "raw_iron", "iron_ingot")
	require.NoError(t, tbl.Add(r.ID, r))
	require.Equal(t, 1, tbl.Len())
	require.Len(t, tbl.ByType(TypeSmelting), 1)

	// same id, new type: the old type index must drop it
	b := cooking("minecraft:a", TypeBlasting, "raw_iron", "iron_ingot")
	require.NoError(t, tbl.Add(b.ID, b))
	require.Equal(t, 1, tbl.Len())
	require.Empty(t, tbl.ByType(TypeSmelting))
	require.Len(t, tbl.ByType(TypeBlasting), 1)
	require.NoError(t, tbl.CheckConsistency())

	require.True(t, tbl.Remove(b.ID))
	require.Equal(t, 0, tbl.Len())
	require.NoError(t, tbl.CheckConsistency())
}

func TestTable_RemoveAbsentIsNoop(t *testing.T) {
	tbl := NewTableFrom(vanillaIron(), nil)
	n := tbl.Len()
	require.False(t, tbl.Remove(id("minecraft:nope")))
	require.Equal(t, n, tbl.Len())
	require.NoError(t, tbl.CheckConsistency())
}

func TestTable_AddRejectsInvalid(t *testing.T) {
	tbl := NewTable(nil)
	r := cooking("minecraft:a", TypeSmelting, "raw_iron", "iron_ingot")

	require.ErrorIs(t, tbl.Add(id("minecraft:b"), r), ErrInvalidRecipe)
	require.ErrorIs(t, tbl.Add(r.ID, nil), ErrInvalidRecipe)
	bad := shaped("minecraft:c", 3, 3, []string{"x"}, "y", 1)
	require.ErrorIs(t, tbl.Add(bad.ID, bad), ErrInvalidRecipe)
	require.Equal(t, 0, tbl.Len())
}

func TestTable_SnapshotsAreStable(t *testing.T) {
	tbl := NewTableFrom(vanillaIron(), nil)
	before := tbl.All()
	require.True(t, tbl.Remove(id("minecraft:bread")))
	// a slice taken before the swap is unaffected
	assert.Len(t, before, len(vanillaIron()))
	assert.Len(t, tbl.All(), len(vanillaIron())-1)
}

func TestTable_ConcurrentWriters(t *testing.T) {
	tbl := NewTable(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := cooking("minecraft:r"+string(rune('a'+i)), TypeSmelting, "raw_iron", "iron_ingot")
			assert.NoError(t, tbl.Add(r.ID, r))
		}(i)
	}
	wg.Wait()
	require.Equal(t, 8, tbl.Len())
	require.NoError(t, tbl.CheckConsistency())
}

func TestNewTableFrom_SkipsDuplicates(t *testing.T) {
	rs := append(vanillaIron(), cooking("minecraft:bread", TypeSmelting, "wheat", "bread"))
	tbl := NewTableFrom(rs, nil)
	require.Equal(t, len(vanillaIron()), tbl.Len())
	r, ok := tbl.Lookup(id("minecraft:bread"))
	require.True(t, ok)
	require.Equal(t, TypeCraftingShapeless, r.Type)
}
