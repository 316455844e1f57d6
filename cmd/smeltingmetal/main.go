package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Set at build time.
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := signalContext()
	defer cancel()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smeltingmetal",
		Short: "Metal recipe derivation and recipe-table rewriting",
		Long: `smeltingmetal reads metal and gem definitions, rewrites a host recipe table
into molten-metal smelting, nugget assembly and crushing recipes, and records
every pass.`,
		SilenceUsage: true,
	}
	addSettingsFlags(rootCmd)

	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smeltingmetal %s (%s)\n", Version, GitCommit)
		},
	})
	return rootCmd
}
