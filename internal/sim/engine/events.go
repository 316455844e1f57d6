package engine

import (
	"fmt"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
)

// Trigger is a host lifecycle event.
type Trigger string

const (
	// TriggerServerStarted fires once the host world is ready.
	TriggerServerStarted Trigger = "server_started"
	// TriggerReloadBegin marks the store stale ahead of a reload.
	TriggerReloadBegin Trigger = "reload_begin"
	// TriggerDatapackReloaded fires after the host rebuilt its recipe table.
	TriggerDatapackReloaded Trigger = "datapack_reloaded"
	// TriggerConfigReloaded fires after the mod config file changed.
	TriggerConfigReloaded Trigger = "config_reloaded"
)

func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerServerStarted, TriggerReloadBegin, TriggerDatapackReloaded, TriggerConfigReloaded:
		return t, nil
	}
	return "", fmt.Errorf("unknown trigger %q", s)
}

// RunsPass reports whether the trigger rewrites the table.
func (t Trigger) RunsPass() bool { return t != TriggerReloadBegin }

// Event is one delivered trigger. Recipes, when non-nil, replace the table
// before the pass, as the host does on a datapack reload. Config, when non-nil,
// replaces the active mod config.
type Event struct {
	Trigger Trigger
	Recipes []catalogs.RecipeDef
	Config  *config.Config
}
