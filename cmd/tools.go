package cmd

import (
	"fmt"
	"io"

	"ghost/internal/approval"
	"ghost/internal/tools"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalog",
	Long:  "Print the tools the assistant may call. Tools marked [approval] ask before running.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		registry := tools.NewCatalog(tools.CatalogConfig{})
		printCatalog(cmd.OutOrStdout(), registry, approval.NewPolicy(cfg.Approval.Extra...))
	},
}

func printCatalog(w io.Writer, registry *tools.Registry, policy *approval.Policy) {
	for _, info := range registry.List() {
		marker := ""
		if policy.RequiresApproval(info.Name) {
			marker = " [approval]"
		}
		fmt.Fprintf(w, "%-22s%s\n    %s\n", info.Name, marker, info.Description)
	}
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
