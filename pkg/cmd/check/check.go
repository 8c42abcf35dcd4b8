package check

import (
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "commands to check the race data",
	}

	cmd.AddCommand(NewSummaryCmd())
	cmd.AddCommand(NewChartCmd())

	return cmd
}
