package check

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/cmd/util"
	"github.com/mpapenbr/lapviewer/pkg/processing/chart"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
)

func NewChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart bib...",
		Short: "print the chart definition for the selected runners as json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bibs, err := parseBibs(args)
			if err != nil {
				return err
			}
			util.WaitForServices(cmd.Context())
			holder, err := util.LoadFeeds(cmd.Context())
			if err != nil {
				log.GetFromContext(cmd.Context()).Error("race data could not be loaded",
					log.ErrorField(err))
				return err
			}
			return printChart(cmd.OutOrStdout(), holder.Store(), bibs)
		},
	}
	return cmd
}

func printChart(w io.Writer, store *racedata.Store, bibs []int) error {
	spec := chart.NewAssembler().Assemble(bibs, store.ResultsByBib(), store.AllLapTimes())
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}
