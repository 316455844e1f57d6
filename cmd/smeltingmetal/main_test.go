package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/sim/catalogs"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestApply_RewritesSampleTable(t *testing.T) {
	data := t.TempDir()
	outPath := filepath.Join(data, "table.json")

	out := run(t, "--configs", "../../configs", "--data", data, "--log-level", "error", "apply", "--out", outPath)
	assert.Contains(t, out, "(server_started)")
	assert.Contains(t, out, "melting")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var defs []catalogs.RecipeDef
	require.NoError(t, json.Unmarshal(b, &defs))
	ids := map[string]bool{}
	for _, d := range defs {
		ids[d.ID] = true
	}
	assert.True(t, ids["smeltingmetal:smelting_minecraft_raw_iron"])
	assert.True(t, ids["smeltingmetal:blasting_minecraft_raw_iron"])
	assert.True(t, ids["minecraft:bread"])
	assert.False(t, ids["minecraft:iron_sword"])
	assert.False(t, ids["minecraft:iron_ingot_from_nuggets"])

	_, err = os.Stat(filepath.Join(data, "index.sqlite"))
	require.NoError(t, err)

	out = run(t, "--configs", "../../configs", "--data", data, "inspect", "passes", "--mutations")
	assert.Contains(t, out, "server_started")
	assert.Contains(t, out, "minecraft:iron_sword")

	out = run(t, "--configs", "../../configs", "--data", data, "inspect", "snapshot", "--content", "iron")
	assert.Contains(t, out, "namespace=smeltingmetal")
	assert.Contains(t, out, "smelting")

	out = run(t, "--configs", "../../configs", "--data", data, "inspect", "recipe", "minecraft:iron_sword")
	assert.Contains(t, out, "result")
}

func TestApply_RejectsUnknownTrigger(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--configs", "../../configs", "--data", t.TempDir(), "apply", "--trigger", "tick"})
	require.Error(t, cmd.Execute())
}

func TestLoadSettings_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SMELTINGMETAL_DATA", "/var/lib/smeltingmetal")
	t.Setenv("SMELTINGMETAL_DISABLE_DB", "true")

	var got Settings
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--configs", "cfg", "version"})
	for _, c := range cmd.Commands() {
		if c.Name() == "version" {
			c.Run = func(c2 *cobra.Command, _ []string) {
				s, err := loadSettings(c2)
				require.NoError(t, err)
				got = s
			}
		}
	}
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/var/lib/smeltingmetal", got.DataDir)
	assert.True(t, got.DisableDB)
	assert.Equal(t, "cfg", got.ConfigDir)
	assert.Equal(t, filepath.Join("cfg", "smeltingmetal.yaml"), got.ConfigPath)
	assert.Equal(t, "info", got.LogLevel)
	assert.Equal(t, filepath.Join("/var/lib/smeltingmetal", "index.sqlite"), got.IndexPath())
}
