package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultNamespace = "smeltingmetal"

// IntegrationCreate enables crushing recipes and crushed-ore nugget groups.
const IntegrationCreate = "create"

type Config struct {
	Namespace    string   `yaml:"namespace" json:"namespace"`
	Metals       Metals   `yaml:"metals" json:"metals"`
	Features     Features `yaml:"features" json:"features"`
	Integrations []string `yaml:"integrations" json:"integrations"`
}

type Metals struct {
	MetalDefinitions       []string `yaml:"metal_definitions" json:"metal_definitions"`
	GemDefinitions         []string `yaml:"gem_definitions" json:"gem_definitions"`
	ItemResultDefinitions  []string `yaml:"item_result_definitions" json:"item_result_definitions"`
	BlockResultDefinitions []string `yaml:"block_result_definitions" json:"block_result_definitions"`
	BlacklistKeywords      []string `yaml:"blacklist_keywords" json:"blacklist_keywords"`
	BlockKeywords          []string `yaml:"block_keywords" json:"block_keywords"`
	IntermediateKeywords   []string `yaml:"intermediate_keywords" json:"intermediate_keywords"`
}

type Features struct {
	EnableMeltingRecipeReplacement  bool `yaml:"enable_melting_recipe_replacement" json:"enable_melting_recipe_replacement"`
	EnableGemRecipeReplacement      bool `yaml:"enable_gem_recipe_replacement" json:"enable_gem_recipe_replacement"`
	EnableCrushingRecipeReplacement bool `yaml:"enable_crushing_recipe_replacement" json:"enable_crushing_recipe_replacement"`
	EnableNuggetRecipeReplacement   bool `yaml:"enable_nugget_recipe_replacement" json:"enable_nugget_recipe_replacement"`
	EnableResultRecipeRemoval       bool `yaml:"enable_result_recipe_removal" json:"enable_result_recipe_removal"`
	EnableMoldRecipes               bool `yaml:"enable_mold_recipes" json:"enable_mold_recipes"`
}

// Load overlays the yaml file at path on Defaults. An empty path yields Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse validates raw against the config schema and overlays it on Defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Defaults()
	if err := validateDocument(raw); err != nil {
		return cfg, fmt.Errorf("smeltingmetal.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("smeltingmetal.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("smeltingmetal.yaml: %w", err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Namespace: DefaultNamespace,
		Metals: Metals{
			MetalDefinitions: []string{
				"iron,color=b9835f",
				"gold,color=fbeb2e",
				"copper,color=e97b53",
				"netherite,color=5d342c",
			},
			GemDefinitions:        []string{"diamond,color=B0FFFF"},
			ItemResultDefinitions: []string{"ingot", "pickaxe", "axe", "shovel", "sword", "hoe"},
			BlockResultDefinitions: []string{
				"block",
				"helmet=helmet,cap",
				"armor=chestplate,tunic,armor",
				"pants=pants,leggings",
				"boots=boots,shoes",
			},
			BlacklistKeywords:    []string{"nugget", "scrap", "mold", "template", "shard"},
			BlockKeywords:        []string{"block", "slab", "stairs", "wall", "bricks", "tiles"},
			IntermediateKeywords: []string{"nugget", "shard"},
		},
		Features: Features{
			EnableMeltingRecipeReplacement:  true,
			EnableGemRecipeReplacement:      true,
			EnableCrushingRecipeReplacement: true,
			EnableNuggetRecipeReplacement:   true,
			EnableResultRecipeRemoval:       true,
			EnableMoldRecipes:               true,
		},
	}
}

func (c *Config) Normalize() {
	c.Namespace = strings.ToLower(strings.TrimSpace(c.Namespace))
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	c.Metals.MetalDefinitions = trimList(c.Metals.MetalDefinitions, false)
	c.Metals.GemDefinitions = trimList(c.Metals.GemDefinitions, false)
	c.Metals.ItemResultDefinitions = trimList(c.Metals.ItemResultDefinitions, false)
	c.Metals.BlockResultDefinitions = trimList(c.Metals.BlockResultDefinitions, false)
	c.Metals.BlacklistKeywords = trimList(c.Metals.BlacklistKeywords, true)
	c.Metals.BlockKeywords = trimList(c.Metals.BlockKeywords, true)
	c.Metals.IntermediateKeywords = trimList(c.Metals.IntermediateKeywords, true)
	c.Integrations = trimList(c.Integrations, true)
}

func (c Config) Validate() error {
	if strings.ContainsAny(c.Namespace, ": ") {
		return fmt.Errorf("namespace %q: must not contain ':' or spaces", c.Namespace)
	}
	for _, def := range c.Metals.ItemResultDefinitions {
		if strings.HasPrefix(def, "=") {
			return fmt.Errorf("item_result_definitions: %q: missing shape key", def)
		}
	}
	for _, def := range c.Metals.BlockResultDefinitions {
		if strings.HasPrefix(def, "=") {
			return fmt.Errorf("block_result_definitions: %q: missing shape key", def)
		}
	}
	return nil
}

func (c Config) HasIntegration(name string) bool {
	name = strings.ToLower(name)
	for _, i := range c.Integrations {
		if i == name {
			return true
		}
	}
	return false
}

// CrushingAvailable reports whether a crushing system is loaded.
func (c Config) CrushingAvailable() bool { return c.HasIntegration(IntegrationCreate) }

func trimList(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}
