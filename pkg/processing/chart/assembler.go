package chart

import (
	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/background"
	"github.com/mpapenbr/lapviewer/pkg/processing/series"
)

// DefaultPalette assigns colors by position in the selection.
// Duplicates are intended, they match the colors known from the race page.
var DefaultPalette = []string{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF",
	"#FF9F40", "#FF6384", "#C9CBCF", "#4BC0C0", "#FF6384",
}

type (
	Option    func(*Assembler)
	Assembler struct {
		palette []string
	}
)

func NewAssembler(opts ...Option) *Assembler {
	ret := &Assembler{palette: DefaultPalette}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithPalette(palette []string) Option {
	return func(a *Assembler) {
		if len(palette) > 0 {
			a.palette = palette
		}
	}
}

// Color returns the color for the given position in the selection
func (a *Assembler) Color(position int) string {
	return a.palette[position%len(a.palette)]
}

// Assemble builds the chart for the selected bibs in selection order.
// Bibs without result record are skipped but still occupy their color slot.
// Overlay thresholds apply to the whole selection.
//
//nolint:whitespace // can't make both editor and linter happy
func (a *Assembler) Assemble(
	selection []int,
	results map[int]*model.ResultRecord,
	laps map[int]model.LapTimeSeries,
) *model.ChartSpec {
	datasets := make([]model.Dataset, 0)
	maxLaps := 0
	for position, bib := range selection {
		runner, ok := results[bib]
		if !ok {
			continue
		}
		lapTimes := laps[bib]
		maxLaps = max(maxLaps, len(lapTimes))
		datasets = append(datasets,
			series.Build(runner, lapTimes, a.Color(position), len(selection))...)
	}
	labels := make([]int, maxLaps)
	for i := range labels {
		labels[i] = i + 1
	}
	return &model.ChartSpec{
		Labels:     labels,
		Datasets:   datasets,
		Background: background.Compute(float64(maxLaps)),
	}
}
