package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/networkable/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\nuser-agent: %s\n", appName, info.String(), version.UserAgent())
			return err
		},
	}
}
