package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultNamespace, cfg.Namespace)
	require.Len(t, cfg.Metals.MetalDefinitions, 4)
	require.True(t, cfg.Features.EnableMeltingRecipeReplacement)
	require.False(t, cfg.CrushingAvailable())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smeltingmetal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metals:
  metal_definitions: ["tin", " ", "lead,color=444466"]
  blacklist_keywords: ["Nugget"]
features:
  enable_mold_recipes: false
integrations: ["Create"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"tin", "lead,color=444466"}, cfg.Metals.MetalDefinitions)
	require.Equal(t, []string{"nugget"}, cfg.Metals.BlacklistKeywords)
	// untouched lists keep their defaults
	require.Equal(t, []string{"diamond,color=B0FFFF"}, cfg.Metals.GemDefinitions)
	require.False(t, cfg.Features.EnableMoldRecipes)
	require.True(t, cfg.Features.EnableNuggetRecipeReplacement)
	require.True(t, cfg.CrushingAvailable())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("metals:\n  metal_defs: [\"tin\"]\n"))
	require.Error(t, err)
}

func TestParse_RejectsWrongTypes(t *testing.T) {
	_, err := Parse([]byte("features:\n  enable_mold_recipes: 3\n"))
	require.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Defaults().Metals.BlockKeywords, cfg.Metals.BlockKeywords)
}

func TestValidate_ShapeKey(t *testing.T) {
	_, err := Parse([]byte("metals:\n  item_result_definitions: [\"=sword\"]\n"))
	require.ErrorContains(t, err, "missing shape key")
}
