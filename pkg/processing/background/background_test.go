//nolint:funlen // ok for tests
package background

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

func trail(from, to float64) model.BackgroundBand {
	return model.BackgroundBand{Kind: model.SegmentTrail, From: from, To: to, Color: TrailColor}
}

func road(from, to float64) model.BackgroundBand {
	return model.BackgroundBand{Kind: model.SegmentRoad, From: from, To: to, Color: RoadColor}
}

func label(kind model.SegmentKind, at float64) model.BackgroundLabel {
	return model.BackgroundLabel{Text: string(kind), At: at}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		maxLap float64
		want   model.BackgroundLayout
	}{
		{
			name:   "no laps",
			maxLap: 0,
			want: model.BackgroundLayout{
				Bands: []model.BackgroundBand{}, Labels: []model.BackgroundLabel{},
			},
		},
		{
			name:   "trail only",
			maxLap: 10,
			want: model.BackgroundLayout{
				Bands:  []model.BackgroundBand{trail(0, 10)},
				Labels: []model.BackgroundLabel{label(model.SegmentTrail, 5.5)},
			},
		},
		{
			name:   "first road lap",
			maxLap: 11,
			want: model.BackgroundLayout{
				Bands:  []model.BackgroundBand{trail(0, 10), road(10, 11)},
				Labels: []model.BackgroundLabel{label(model.SegmentTrail, 5.5)},
			},
		},
		{
			name:   "second cycle partially present",
			maxLap: 30,
			want: model.BackgroundLayout{
				Bands: []model.BackgroundBand{trail(0, 10), road(10, 23), trail(24, 30)},
				Labels: []model.BackgroundLabel{
					label(model.SegmentTrail, 5.5),
					label(model.SegmentRoad, 17.5),
					label(model.SegmentTrail, 29.5),
				},
			},
		},
		{
			name:   "label beyond max lap suppressed",
			maxLap: 29,
			want: model.BackgroundLayout{
				Bands: []model.BackgroundBand{trail(0, 10), road(10, 23), trail(24, 29)},
				Labels: []model.BackgroundLabel{
					label(model.SegmentTrail, 5.5),
					label(model.SegmentRoad, 17.5),
				},
			},
		},
		{
			name:   "two full cycles",
			maxLap: 48,
			want: model.BackgroundLayout{
				Bands: []model.BackgroundBand{
					trail(0, 10), road(10, 23), trail(24, 34), road(34, 47),
				},
				Labels: []model.BackgroundLabel{
					label(model.SegmentTrail, 5.5),
					label(model.SegmentRoad, 17.5),
					label(model.SegmentTrail, 29.5),
					label(model.SegmentRoad, 41.5),
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.DeepEqual(t, tt.want, Compute(tt.maxLap))
		})
	}
}

type linearScale struct {
	maxLap  float64
	left    float64
	perUnit float64
}

func (s linearScale) Max() float64 { return s.maxLap }

func (s linearScale) Pixel(v float64) float64 { return s.left + (v-1)*s.perUnit }

type rect struct {
	X0, Y0, X1, Y1 float64
	Color          string
}

type text struct {
	Body string
	X, Y float64
}

type recordingSurface struct {
	rects []rect
	texts []text
}

func (r *recordingSurface) FillRect(x0, y0, x1, y1 float64, color string) {
	r.rects = append(r.rects, rect{x0, y0, x1, y1, color})
}

//nolint:revive // color and size are not needed here
func (r *recordingSurface) CenterText(body string, x, y float64, color string, size float64) {
	r.texts = append(r.texts, text{body, x, y})
}

func TestPaint(t *testing.T) {
	surface := &recordingSurface{}
	area := Area{Left: 100, Top: 20, Right: 390, Bottom: 400}
	// lap 1 at x=100, lap 30 at x=390
	Paint(surface, linearScale{maxLap: 30, left: 100, perUnit: 10}, area)

	assert.DeepEqual(t, []rect{
		{100, 20, 190, 400, TrailColor}, // lap 0 is left of the plot area
		{190, 20, 320, 400, RoadColor},
		{330, 20, 390, 400, TrailColor},
	}, surface.rects)
	assert.DeepEqual(t, []text{
		{"Trail", 145, 35},
		{"Road", 265, 35},
		{"Trail", 385, 35},
	}, surface.texts)
}

func TestPaint_recomputedForEachScale(t *testing.T) {
	surface := &recordingSurface{}
	area := Area{Left: 0, Top: 0, Right: 1000, Bottom: 100}
	Paint(surface, linearScale{maxLap: 10, left: 0, perUnit: 10}, area)
	assert.Equal(t, 1, len(surface.rects))

	surface = &recordingSurface{}
	Paint(surface, linearScale{maxLap: 48, left: 0, perUnit: 10}, area)
	assert.Equal(t, 4, len(surface.rects))
}
