package render

import (
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/background"
)

// backgroundSeries paints the day/night bands. It is registered as the
// first series so the bands end up behind the data.
type backgroundSeries struct{}

var _ chart.Series = backgroundSeries{}

func (backgroundSeries) GetName() string          { return "Trail / Road" }
func (backgroundSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (backgroundSeries) GetStyle() chart.Style     { return chart.Style{} }
func (backgroundSeries) Validate() error           { return nil }

//nolint:whitespace // can't make both editor and linter happy
func (backgroundSeries) Render(
	r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, s chart.Style,
) {
	background.Paint(
		&surface{r: r, style: s},
		axisScale{xrange: xrange, left: canvasBox.Left},
		background.Area{
			Left:   float64(canvasBox.Left),
			Top:    float64(canvasBox.Top),
			Right:  float64(canvasBox.Right),
			Bottom: float64(canvasBox.Bottom),
		})
}

// axisScale maps lap numbers to pixels using the current x-axis
type axisScale struct {
	xrange chart.Range
	left   int
}

func (a axisScale) Max() float64 {
	return a.xrange.GetMax()
}

func (a axisScale) Pixel(value float64) float64 {
	return float64(a.left + a.xrange.Translate(value))
}

type surface struct {
	r     chart.Renderer
	style chart.Style
}

func (s *surface) FillRect(x0, y0, x1, y1 float64, color string) {
	s.r.SetFillColor(parseColor(color))
	s.r.SetStrokeWidth(0)
	s.r.MoveTo(int(x0), int(y0))
	s.r.LineTo(int(x1), int(y0))
	s.r.LineTo(int(x1), int(y1))
	s.r.LineTo(int(x0), int(y1))
	s.r.Close()
	s.r.Fill()
	s.r.ResetStyle()
}

func (s *surface) CenterText(text string, x, y float64, color string, size float64) {
	s.r.SetFont(s.style.GetFont())
	s.r.SetFontColor(parseColor(color))
	s.r.SetFontSize(size)
	box := s.r.MeasureText(text)
	s.r.Text(text, int(x)-box.Width()/2, int(y)+box.Height()/2)
	s.r.ResetStyle()
}

// lineSeries draws one dataset. Null values interrupt the line,
// each valid value gets its own marker style.
type lineSeries struct {
	dataset model.Dataset
}

func (l lineSeries) GetName() string          { return l.dataset.Label }
func (l lineSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (l lineSeries) GetStyle() chart.Style {
	return chart.Style{
		StrokeColor:     parseColor(l.dataset.BorderColor),
		StrokeWidth:     l.strokeWidth(),
		StrokeDashArray: l.dataset.BorderDash,
	}
}
func (l lineSeries) Validate() error { return nil }

func (l lineSeries) strokeWidth() float64 {
	if l.dataset.BorderWidth > 0 {
		return l.dataset.BorderWidth
	}
	return 1.5
}

//nolint:whitespace // can't make both editor and linter happy
func (l lineSeries) Render(
	r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, s chart.Style,
) {
	style := l.GetStyle()
	r.SetStrokeColor(style.StrokeColor)
	r.SetStrokeWidth(style.StrokeWidth)
	r.SetStrokeDashArray(style.StrokeDashArray)
	for _, run := range runs(l.dataset.Data) {
		if len(run) < 2 {
			continue
		}
		for i, p := range run {
			x, y := toPixel(p, canvasBox, xrange, yrange)
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.Stroke()
	}
	r.ResetStyle()
	l.renderPoints(r, canvasBox, xrange, yrange)
}

//nolint:whitespace // can't make both editor and linter happy
func (l lineSeries) renderPoints(
	r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range,
) {
	for i, v := range l.dataset.Data {
		value, ok := v.Get()
		if !ok {
			continue
		}
		ps := model.PointStyle{
			Radius:          l.dataset.PointRadius,
			BackgroundColor: l.dataset.BorderColor,
			BorderColor:     l.dataset.BorderColor,
			BorderWidth:     1,
		}
		if i < len(l.dataset.Points) {
			ps = l.dataset.Points[i]
		}
		if ps.Radius <= 0 {
			continue
		}
		x, y := toPixel(point{lap: i + 1, value: value}, canvasBox, xrange, yrange)
		r.SetFillColor(parseColor(ps.BackgroundColor))
		r.SetStrokeColor(parseColor(ps.BorderColor))
		r.SetStrokeWidth(ps.BorderWidth)
		r.Circle(ps.Radius, x, y)
		r.FillStroke()
		r.ResetStyle()
	}
}

// bandSeries fills the area between the upper and lower std-dev
// datasets and draws both borders.
type bandSeries struct {
	upper model.Dataset
	lower model.Dataset
}

func (b bandSeries) GetName() string          { return b.lower.Label }
func (b bandSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (b bandSeries) GetStyle() chart.Style {
	return chart.Style{FillColor: parseColor(b.lower.BackgroundColor)}
}
func (b bandSeries) Validate() error { return nil }

//nolint:whitespace // can't make both editor and linter happy
func (b bandSeries) Render(
	r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, s chart.Style,
) {
	fill := parseColor(b.lower.BackgroundColor)
	upperRuns := runs(b.upper.Data)
	lowerRuns := runs(b.lower.Data)
	for i := range min(len(upperRuns), len(lowerRuns)) {
		up, low := upperRuns[i], lowerRuns[i]
		if len(up) < 2 || len(up) != len(low) {
			continue
		}
		r.SetFillColor(fill)
		r.SetStrokeWidth(0)
		for j, p := range up {
			x, y := toPixel(p, canvasBox, xrange, yrange)
			if j == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		for j := len(low) - 1; j >= 0; j-- {
			x, y := toPixel(low[j], canvasBox, xrange, yrange)
			r.LineTo(x, y)
		}
		r.Close()
		r.Fill()
		r.ResetStyle()
	}
	lineSeries{dataset: b.upper}.Render(r, canvasBox, xrange, yrange, s)
	lineSeries{dataset: b.lower}.Render(r, canvasBox, xrange, yrange, s)
}

type point struct {
	lap   int
	value float64
}

// runs splits a series at its gaps into runs of consecutive valid points
func runs(data model.LapTimeSeries) [][]point {
	ret := make([][]point, 0)
	var current []point
	for i, v := range data {
		value, ok := v.Get()
		if !ok {
			if len(current) > 0 {
				ret = append(ret, current)
				current = nil
			}
			continue
		}
		current = append(current, point{lap: i + 1, value: value})
	}
	if len(current) > 0 {
		ret = append(ret, current)
	}
	return ret
}

// values outside the fixed display range are drawn at its border
//
//nolint:whitespace // can't make both editor and linter happy
func toPixel(
	p point, canvasBox chart.Box, xrange, yrange chart.Range,
) (x, y int) {
	v := math.Max(model.MinDisplayMinutes, math.Min(p.value, model.MaxDisplayMinutes))
	return canvasBox.Left + xrange.Translate(float64(p.lap)),
		canvasBox.Bottom - yrange.Translate(v)
}
