package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/engine"
	"smeltingmetal.dev/internal/sim/recipes"
)

func newApplyCmd() *cobra.Command {
	var (
		trigger string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run one rewrite pass over recipes.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			tr, err := engine.ParseTrigger(trigger)
			if err != nil {
				return err
			}
			rt, err := openRuntime(s)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.eng.Handle(cmd.Context(), engine.Event{Trigger: tr})
			if err != nil {
				return err
			}
			printResult(cmd, res)

			if out != "" {
				return writeTable(out, rt.eng)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&trigger, "trigger", string(engine.TriggerServerStarted), "lifecycle trigger to apply")
	cmd.Flags().StringVar(&out, "out", "", "write the resulting recipe table as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, res engine.Result) {
	w := cmd.OutOrStdout()
	if !res.Ran {
		fmt.Fprintf(w, "%s: no pass\n", res.Trigger)
		return
	}
	fmt.Fprintf(w, "pass %s (%s): +%d -%d =%d skipped=%d failed=%d table=%d\n",
		res.PassID, res.Trigger, res.Report.Added(), res.Report.Removed(), res.Report.Unchanged,
		len(res.Report.Skips), len(res.Report.Failures), res.TableSize)

	rules := make([]string, 0, len(res.Report.Counts))
	for r := range res.Report.Counts {
		rules = append(rules, string(r))
	}
	sort.Strings(rules)
	for _, r := range rules {
		c := res.Report.Counts[recipes.Rule(r)]
		fmt.Fprintf(w, "  %-16s +%d -%d skipped=%d\n", r, c.Added, c.Removed, c.Skipped)
	}
	for _, f := range res.Report.Failures {
		fmt.Fprintf(w, "  failed: %s\n", f)
	}
	if res.SnapshotPath != "" {
		fmt.Fprintf(w, "snapshot: %s\n", res.SnapshotPath)
	}
}

func writeTable(path string, eng *engine.Engine) error {
	all := eng.Table().All()
	defs := make([]catalogs.RecipeDef, 0, len(all))
	for _, r := range all {
		defs = append(defs, r.Def())
	}
	b, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
