package check

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/cmd/util"
	"github.com/mpapenbr/lapviewer/pkg/processing/laptime"
	"github.com/mpapenbr/lapviewer/pkg/processing/stats"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
)

func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [bib...]",
		Short: "print lap statistics per runner (all runners if no bib is given)",
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
			return printSummary(cmd.OutOrStdout(), Summarize(holder.Store(), bibs))
		},
	}
	return cmd
}

// RunnerSummary holds the lap statistics of one runner
type RunnerSummary struct {
	Bib       int
	Name      string
	Laps      int
	ValidLaps int
	Min       float64
	Max       float64
	Stats     stats.Summary
	Slope     float64
	HasTrend  bool
	HasValues bool
}

// Summarize computes the statistics for bibs in the given order. Without
// bibs all runners are used in feed order, unknown bibs are skipped.
func Summarize(store *racedata.Store, bibs []int) []RunnerSummary {
	if len(bibs) == 0 {
		bibs = store.Bibs()
	}
	ret := make([]RunnerSummary, 0, len(bibs))
	for _, bib := range bibs {
		r, ok := store.Runner(bib)
		if !ok {
			continue
		}
		lapTimes := store.LapTimes(bib)
		valid := lapTimes.Valid()
		item := RunnerSummary{
			Bib:       bib,
			Name:      r.Name,
			Laps:      len(lapTimes),
			ValidLaps: len(valid),
			Stats:     stats.Compute(valid),
		}
		item.Min, item.Max, item.HasValues = stats.MinMax(valid)
		if trend, ok := stats.Trend(lapTimes); ok {
			item.Slope = trend.Slope
			item.HasTrend = true
		}
		ret = append(ret, item)
	}
	return ret
}

func printSummary(w io.Writer, data []RunnerSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Bib\tName\tLaps\tValid\tMin\tMax\tMean\tStdDev\tTrend/lap")
	for i := range data {
		s := data[i]
		minVal, maxVal, mean, stdDev, slope := "-", "-", "-", "-", "-"
		if s.HasValues {
			minVal = laptime.Format(s.Min)
			maxVal = laptime.Format(s.Max)
			mean = laptime.Format(s.Stats.Mean)
			stdDev = strconv.FormatFloat(s.Stats.StdDev, 'f', 2, 64)
		}
		if s.HasTrend {
			slope = strconv.FormatFloat(s.Slope, 'f', 2, 64)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Bib, s.Name, s.Laps, s.ValidLaps, minVal, maxVal, mean, stdDev, slope)
	}
	return tw.Flush()
}

func parseBibs(args []string) ([]int, error) {
	ret := make([]int, 0, len(args))
	for _, arg := range args {
		bib, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid bib %q: %w", arg, err)
		}
		ret = append(ret, bib)
	}
	return ret, nil
}
