package series

import (
	"fmt"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/stats"
)

// overlays are reduced as more runners are compared
const (
	TrendMaxSelection = 3 // trendlines up to this many selected runners
	BandMaxSelection  = 2 // std-dev bands up to this many selected runners
)

const (
	MinPointColor       = "#00FF00"
	MaxPointColor       = "#FF0000"
	HighlightBorder     = "#000000"
	Transparent         = "transparent"
	highlightRadius     = 6
	defaultRadius       = 3
	highlightBorderSize = 2
	defaultBorderSize   = 1
)

// Build creates the datasets for one runner: the lap times, optionally
// the trendline and the std-dev bands depending on selectionSize.
//
//nolint:whitespace // can't make both editor and linter happy
func Build(
	runner *model.ResultRecord,
	lapTimes model.LapTimeSeries,
	color string,
	selectionSize int,
) []model.Dataset {
	ret := []model.Dataset{Main(runner, lapTimes, color)}
	if selectionSize <= TrendMaxSelection {
		if trend, ok := Trend(runner, lapTimes, color); ok {
			ret = append(ret, trend)
		}
	}
	if selectionSize <= BandMaxSelection {
		upper, lower := Bands(runner, lapTimes, color)
		ret = append(ret, upper, lower)
	}
	return ret
}

// Main creates the lap time dataset. Points matching the fastest or slowest
// lap are highlighted. If a value is both (single valid lap, all laps equal)
// it is marked as max.
func Main(runner *model.ResultRecord, lapTimes model.LapTimeSeries, color string) model.Dataset {
	minVal, maxVal, hasValues := stats.MinMax(lapTimes.Valid())
	points := make([]model.PointStyle, len(lapTimes))
	for i, v := range lapTimes {
		points[i] = model.PointStyle{
			Radius:          defaultRadius,
			BackgroundColor: color,
			BorderColor:     color,
			BorderWidth:     defaultBorderSize,
		}
		t, ok := v.Get()
		if !ok || !hasValues {
			continue
		}
		switch t {
		case maxVal:
			points[i] = highlight(MaxPointColor, model.FlagMax)
		case minVal:
			points[i] = highlight(MinPointColor, model.FlagMin)
		}
	}
	return model.Dataset{
		Label:           runner.Name,
		Kind:            model.KindMain,
		Bib:             runner.Bib,
		Data:            lapTimes,
		BorderColor:     color,
		BackgroundColor: color + "33",
		Tension:         0.1,
		Fill:            model.FillNone,
		PointRadius:     defaultRadius,
		Points:          points,
	}
}

func highlight(fill string, flag model.PointFlag) model.PointStyle {
	return model.PointStyle{
		Radius:          highlightRadius,
		BackgroundColor: fill,
		BorderColor:     HighlightBorder,
		BorderWidth:     highlightBorderSize,
		Flag:            flag,
	}
}

// Trend creates the dashed trendline dataset, values are clamped to the
// display range. Returns false if no trend can be computed.
//
//nolint:whitespace // can't make both editor and linter happy
func Trend(
	runner *model.ResultRecord, lapTimes model.LapTimeSeries, color string,
) (model.Dataset, bool) {
	trend, ok := stats.Trend(lapTimes)
	if !ok {
		return model.Dataset{}, false
	}
	data := make(model.LapTimeSeries, len(lapTimes))
	for i := range lapTimes {
		data[i] = null.From(stats.Clamp(trend.At(i+1),
			model.MinDisplayMinutes, model.MaxDisplayMinutes))
	}
	return model.Dataset{
		Label:           fmt.Sprintf("%s Trend", runner.Name),
		Kind:            model.KindTrend,
		Bib:             runner.Bib,
		Data:            data,
		BorderColor:     color + "CC",
		BackgroundColor: Transparent,
		BorderDash:      []float64{15, 5},
		BorderWidth:     2,
		Fill:            model.FillNone,
		PointRadius:     0,
	}, true
}

// Bands creates the mean+stddev and mean-stddev datasets. A band value is
// only present where the lap time is present. The lower band fills the
// area to the upper band.
//
//nolint:whitespace // can't make both editor and linter happy
func Bands(
	runner *model.ResultRecord, lapTimes model.LapTimeSeries, color string,
) (upper, lower model.Dataset) {
	summary := stats.Compute(lapTimes.Valid())
	upperVal := min(summary.Mean+summary.StdDev, model.MaxDisplayMinutes)
	lowerVal := max(summary.Mean-summary.StdDev, model.MinDisplayMinutes)
	upperData := make(model.LapTimeSeries, len(lapTimes))
	lowerData := make(model.LapTimeSeries, len(lapTimes))
	for i, v := range lapTimes {
		if v.IsNull() {
			continue
		}
		upperData[i] = null.From(upperVal)
		lowerData[i] = null.From(lowerVal)
	}
	upper = model.Dataset{
		Label:           fmt.Sprintf("%s Upper Std Dev", runner.Name),
		Kind:            model.KindUpperBand,
		Bib:             runner.Bib,
		Data:            upperData,
		BorderColor:     color + "40",
		BackgroundColor: Transparent,
		BorderDash:      []float64{5, 5},
		Fill:            model.FillNone,
		PointRadius:     0,
	}
	lower = model.Dataset{
		Label:           fmt.Sprintf("%s Lower Std Dev", runner.Name),
		Kind:            model.KindLowerBand,
		Bib:             runner.Bib,
		Data:            lowerData,
		BorderColor:     color + "40",
		BackgroundColor: color + "20",
		BorderDash:      []float64{5, 5},
		Fill:            model.FillPrevious,
		PointRadius:     0,
	}
	return upper, lower
}
