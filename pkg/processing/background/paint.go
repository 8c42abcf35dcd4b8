package background

// Scale maps lap values of the x-axis to pixels
type Scale interface {
	Max() float64
	Pixel(value float64) float64
}

// Area is the plot area in pixels
type Area struct {
	Left, Top, Right, Bottom float64
}

// Surface is the drawing target. Colors are css color values.
type Surface interface {
	FillRect(x0, y0, x1, y1 float64, color string)
	// CenterText draws text horizontally centered at x with baseline y
	CenterText(text string, x, y float64, color string, size float64)
}

// Paint draws the day/night background into area. It has to be called before
// the datasets are drawn. The layout is computed from the current scale on
// each call since the axis range changes with the selection.
func Paint(s Surface, scale Scale, area Area) {
	layout := Compute(scale.Max())
	clip := func(x float64) float64 {
		return max(area.Left, min(area.Right, x))
	}
	for _, b := range layout.Bands {
		x0, x1 := clip(scale.Pixel(b.From)), clip(scale.Pixel(b.To))
		if x1 <= x0 {
			continue
		}
		s.FillRect(x0, area.Top, x1, area.Bottom, b.Color)
	}
	for _, l := range layout.Labels {
		s.CenterText(l.Text, scale.Pixel(l.At), area.Top+LabelTop, LabelColor, LabelSize)
	}
}
