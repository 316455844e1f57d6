package ident

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	require.Equal(t, ID{Namespace: "minecraft", Path: "iron_ingot"}, Parse("iron_ingot"))
	require.Equal(t, ID{Namespace: "create", Path: "crushed_raw_iron"}, Parse(" create:crushed_raw_iron "))
	require.Equal(t, ID{Namespace: "minecraft", Path: "x"}, Parse(":x"))
	require.True(t, Parse("").IsZero())
	require.Equal(t, "tin", StripNamespace("thermal:tin"))
	require.Equal(t, "tin", StripNamespace("tin"))
}

func TestID_JSONRoundTrip(t *testing.T) {
	in := map[string]ID{"a": New("smeltingmetal", "molten_metal")}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":"smeltingmetal:molten_metal"}`, string(b))

	var out map[string]ID
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in, out)
}
