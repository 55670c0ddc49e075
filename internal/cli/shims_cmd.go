package cli

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/encoder"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(shimsCmd)
}

var shimsCmd = &cobra.Command{
	Use:   "shims",
	Short: "List the capabilities a script can be granted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range encoder.ShimNames() {
			shim, _ := encoder.LookupShim(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, shim.Kind)
		}
		return nil
	},
}
