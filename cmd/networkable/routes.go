package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRoutesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the named routes of the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g.configFile)
			if err != nil {
				return err
			}
			router, err := cfg.router()
			if err != nil {
				return err
			}
			routes := router.Routes()
			if len(routes) == 0 {
				_, err := fmt.Fprintln(cmd.ErrOrStderr(), "no routes configured")
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range routes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Method, r.Template)
			}
			return tw.Flush()
		},
	}
}
