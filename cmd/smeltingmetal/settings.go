package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings are runtime paths and switches. Flags win over SMELTINGMETAL_* env
// variables, which win over defaults.
type Settings struct {
	ConfigDir  string `mapstructure:"configs"`
	ConfigPath string `mapstructure:"config"`
	DataDir    string `mapstructure:"data"`
	LogLevel   string `mapstructure:"log-level"`
	DisableDB  bool   `mapstructure:"disable-db"`
	Snapshots  bool   `mapstructure:"snapshots"`
	Addr       string `mapstructure:"addr"`
}

func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("configs", "./configs", "directory with items.json, blocks.json, fluids.json, recipes.json")
	f.String("config", "", "path to smeltingmetal.yaml (default: <configs>/smeltingmetal.yaml)")
	f.String("data", "./data", "runtime data directory")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.Bool("disable-db", false, "disable the sqlite pass index")
	f.Bool("snapshots", true, "write a table snapshot after every pass")
}

func loadSettings(cmd *cobra.Command) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SMELTINGMETAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("addr", ":8080")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Settings{}, err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	if s.ConfigPath == "" {
		s.ConfigPath = filepath.Join(s.ConfigDir, "smeltingmetal.yaml")
	}
	if s.DataDir == "" {
		return s, fmt.Errorf("settings: empty data dir")
	}
	return s, nil
}

func (s Settings) IndexPath() string   { return filepath.Join(s.DataDir, "index.sqlite") }
func (s Settings) SnapshotDir() string  { return filepath.Join(s.DataDir, "snapshots") }
