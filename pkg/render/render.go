package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/laptime"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

const (
	Title     = "Lap Split Times (Trail: 11 hours, Road: 13 hours)"
	XAxisName = "Lap Number"
	YAxisName = "Time (minutes)"

	DefaultWidth  = 1024
	DefaultHeight = 600
	MinSize       = 200
	MaxSize       = 4096

	yTickStep     = 5.0
	maxXAxisTicks = 25
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatSVG {
		return chart.ContentTypeSVG
	}
	return chart.ContentTypePNG
}

type (
	Option   func(*Renderer)
	Renderer struct {
		width  int
		height int
	}
)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = clampSize(width, DefaultWidth)
		r.height = clampSize(height, DefaultHeight)
	}
}

func clampSize(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return max(MinSize, min(v, MaxSize))
}

func New(opts ...Option) *Renderer {
	ret := &Renderer{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Render writes the chart as image in the requested format
func (r *Renderer) Render(spec *model.ChartSpec, format Format, w io.Writer) error {
	graph := r.Graph(spec)
	var err error
	switch format {
	case FormatPNG:
		err = graph.Render(chart.PNG, w)
	case FormatSVG:
		// svg text is written as is
		graph.Elements = []chart.Renderable{legend(spec, html.EscapeString)}
		err = graph.Render(chart.SVG, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Graph maps the chart spec onto a go-chart graph. The x-axis covers at
// least two laps, the y-axis always shows the fixed display range.
func (r *Renderer) Graph(spec *model.ChartSpec) chart.Chart {
	maxLap := max(spec.MaxLap(), 2)
	return chart.Chart{
		Title:  Title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.NewBox(50, 20, 20, 10),
		},
		XAxis: chart.XAxis{
			Name:  XAxisName,
			Range: &chart.ContinuousRange{Min: 1, Max: float64(maxLap)},
			Ticks: xTicks(maxLap),
		},
		YAxis: chart.YAxis{
			Name:     YAxisName,
			AxisType: chart.YAxisPrimary,
			Range:    &chart.ContinuousRange{Min: model.MinDisplayMinutes, Max: model.MaxDisplayMinutes},
			Ticks:    yTicks(),
		},
		Series:   series(spec),
		Elements: []chart.Renderable{legend(spec, nil)},
	}
}

func series(spec *model.ChartSpec) []chart.Series {
	ret := []chart.Series{backgroundSeries{}}
	for i := 0; i < len(spec.Datasets); i++ {
		ds := spec.Datasets[i]
		if ds.Kind == model.KindUpperBand && i+1 < len(spec.Datasets) &&
			spec.Datasets[i+1].Fill == model.FillPrevious {

			ret = append(ret, bandSeries{upper: ds, lower: spec.Datasets[i+1]})
			i++
			continue
		}
		ret = append(ret, lineSeries{dataset: ds})
	}
	return ret
}

func xTicks(maxLap int) []chart.Tick {
	step := (maxLap + maxXAxisTicks - 1) / maxXAxisTicks
	ret := make([]chart.Tick, 0, maxXAxisTicks+1)
	for lap := 1; lap <= maxLap; lap += step {
		ret = append(ret, chart.Tick{Value: float64(lap), Label: strconv.Itoa(lap)})
	}
	if last := ret[len(ret)-1].Value; last < float64(maxLap) {
		ret = append(ret, chart.Tick{Value: float64(maxLap), Label: strconv.Itoa(maxLap)})
	}
	return ret
}

func yTicks() []chart.Tick {
	ret := make([]chart.Tick, 0)
	for v := model.MinDisplayMinutes; v <= model.MaxDisplayMinutes; v += yTickStep {
		ret = append(ret, chart.Tick{Value: v, Label: laptime.Format(v)})
	}
	return ret
}

// legend lists the runners (main datasets) in the top right corner
func legend(spec *model.ChartSpec, escape func(string) string) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		const (
			lineHeight = 14
			boxSize    = 10
			fontSize   = 9.0
		)
		y := canvasBox.Top + 8
		for i := range spec.Datasets {
			ds := spec.Datasets[i]
			if ds.Kind != model.KindMain {
				continue
			}
			label := ds.Label
			if escape != nil {
				label = escape(label)
			}
			r.SetFont(defaults.GetFont())
			r.SetFontSize(fontSize)
			textBox := r.MeasureText(ds.Label)
			x := canvasBox.Right - textBox.Width() - boxSize - 14
			r.SetFillColor(parseColor(ds.BorderColor))
			r.MoveTo(x, y)
			r.LineTo(x+boxSize, y)
			r.LineTo(x+boxSize, y+boxSize)
			r.LineTo(x, y+boxSize)
			r.Close()
			r.Fill()
			r.SetFontColor(chart.DefaultTextColor)
			r.Text(label, x+boxSize+4, y+boxSize)
			r.ResetStyle()
			y += lineHeight
		}
	}
}
