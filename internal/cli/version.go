package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kennel/pkg/kennel"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kennel version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version": kennel.Version,
					"module":  kennel.ModulePath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kennel v%s\nmodule: %s\n", kennel.Version, kennel.ModulePath)
			return nil
		},
	}
}
