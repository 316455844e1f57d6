package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smeltingmetal.dev/internal/persistence/indexdb"
	"smeltingmetal.dev/internal/persistence/snapshot"
	"smeltingmetal.dev/internal/sim/itemtag"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect recorded passes and snapshots",
	}
	cmd.AddCommand(newInspectPassesCmd(), newInspectRecipeCmd(), newInspectSnapshotCmd())
	return cmd
}

func newInspectPassesCmd() *cobra.Command {
	var limit int
	var mutations bool
	cmd := &cobra.Command{
		Use:   "passes",
		Short: "List recent passes from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			r, err := indexdb.OpenReader(s.IndexPath())
			if err != nil {
				return err
			}
			defer r.Close()

			passes, err := r.RecentPasses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PASS\tTRIGGER\tSTARTED\tADDED\tREMOVED\tUNCHANGED\tSKIPPED\tTABLE")
			for _, p := range passes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					p.PassID, p.Trigger, p.StartedAt, p.Added, p.Removed, p.Unchanged, p.Skipped, p.TableSize)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !mutations || len(passes) == 0 {
				return nil
			}
			muts, err := r.Mutations(cmd.Context(), passes[0].PassID)
			if err != nil {
				return err
			}
			for _, m := range muts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-14s %s %s\n", m.Op, m.Rule, m.RecipeID, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of passes")
	cmd.Flags().BoolVar(&mutations, "mutations", false, "list the mutations of the newest pass")
	return cmd
}

func newInspectRecipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <id>",
		Short: "Show every recorded change to a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			r, err := indexdb.OpenReader(s.IndexPath())
			if err != nil {
				return err
			}
			defer r.Close()

			hist, err := r.RecipeHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(hist) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no changes recorded for %s\n", args[0])
				return nil
			}
			for _, m := range hist {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %-6s %s\n", m.At, m.PassID, m.Op, m.Rule)
			}
			return nil
		},
	}
}

func newInspectSnapshotCmd() *cobra.Command {
	var contentFilter string
	cmd := &cobra.Command{
		Use:   "snapshot [path]",
		Short: "Summarise a table snapshot (default: the newest one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				s, err := loadSettings(cmd)
				if err != nil {
					return err
				}
				if path, err = latestSnapshot(s.SnapshotDir()); err != nil {
					return err
				}
			}
			snap, err := snapshot.ReadSnapshot(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			h := snap.Header
			fmt.Fprintf(w, "%s\npass %s (%s) namespace=%s recipes=%d metals=%d\n",
				path, h.PassID, h.Trigger, h.Namespace, len(snap.Recipes), len(snap.Metals))
			for _, m := range snap.Metals {
				fmt.Fprintf(w, "  %s %-10s primary=%s block=%s nugget=%s\n", m.Kind, m.Name, m.Primary, m.Block, m.Nugget)
			}
			byType := map[string]int{}
			for _, r := range snap.Recipes {
				if contentFilter != "" && r.Result.Tags[itemtag.ContentKey] != contentFilter {
					continue
				}
				byType[r.Type]++
			}
			types := make([]string, 0, len(byType))
			for t := range byType {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(w, "  %-20s %d\n", t, byType[t])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contentFilter, "content", "", "count only recipes whose result carries this metal")
	return cmd
}

// latestSnapshot picks the newest snapshot; names start with the unix time.
func latestSnapshot(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".snap.zst") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no snapshots in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
