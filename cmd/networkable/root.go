package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/networkable/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	baseURL    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   appName,
		Short: "Send HTTP requests through a configured networkable session",
		Long: `networkable builds requests, runs them through the configured middlewares
(auth, rate limiting, circuit breaking, tracing, logging, metrics) and sends
them over the configured transport.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file path (default: ./networkable.yaml)")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "override session.base_url")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging and startup summary")

	root.AddCommand(
		newRequestCmd(g),
		newCallCmd(g),
		newRoutesCmd(g),
		newVersionCmd(),
	)
	return root
}
