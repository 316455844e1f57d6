package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/catalogs"
)

func sample() SnapshotV1 {
	return SnapshotV1{
		Header:       Header{PassID: "p1", Trigger: "server_started", Namespace: "smeltingmetal", TakenAt: 1714569600},
		ItemsDigest:  "abc",
		ConfigDigest: "def",
		Metals: []MetalV1{{
			Kind: "metal", Name: "iron", Primary: "minecraft:iron_ingot", Color: 0xFFFFFF,
			Results: map[string]string{"sword": "minecraft:iron_sword"},
		}},
		Recipes: []catalogs.RecipeDef{
			{
				ID: "smeltingmetal:smelting_minecraft_raw_iron", Type: "smelting",
				Ingredients: [][]string{{"minecraft:raw_iron"}},
				Result:      catalogs.StackDef{Item: "smeltingmetal:molten_metal", Count: 1, Tags: map[string]string{"content": "iron"}},
				CookingTime: 200, Experience: 0.7,
			},
			{
				ID: "smeltingmetal:crushing/minecraft_raw_iron_to_crushed_raw_iron", Type: "crushing",
				Ingredients: [][]string{{"minecraft:raw_iron"}},
				Result:      catalogs.StackDef{Item: "create:crushed_raw_iron", Count: 1},
				Outputs:     []catalogs.OutputDef{{StackDef: catalogs.StackDef{Item: "create:crushed_raw_iron", Count: 1}, Chance: 0.1}},
			},
		},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	path := PathFor(t.TempDir(), 1714569600, "p1")
	require.NoError(t, WriteSnapshot(path, sample()))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, 2, h.Recipes)
	assert.Equal(t, "p1", h.PassID)

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	want := sample()
	want.Header.Version = Version
	want.Header.Recipes = 2
	assert.Equal(t, want, got)
	assert.NoFileExists(t, path+".tmp")
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.snap.zst")
	s := sample()
	s.Header.Version = 9
	require.NoError(t, WriteSnapshot(path, s))

	_, err := ReadSnapshot(path)
	require.ErrorIs(t, err, ErrVersion)
	_, err = ReadHeader(path)
	require.ErrorIs(t, err, ErrVersion)
}
