package model

// the y-axis of the lap chart always shows this range (minutes)
const (
	MinDisplayMinutes = 30.0
	MaxDisplayMinutes = 60.0
)

type (
	DatasetKind string
	PointFlag   string
	FillMode    string
	SegmentKind string
)

const (
	KindMain      DatasetKind = "main"
	KindTrend     DatasetKind = "trend"
	KindUpperBand DatasetKind = "upperBand"
	KindLowerBand DatasetKind = "lowerBand"
)

const (
	FlagNone PointFlag = ""
	FlagMin  PointFlag = "min"
	FlagMax  PointFlag = "max"
)

const (
	FillNone     FillMode = "none"
	FillPrevious FillMode = "-1" // fill the area down/up to the preceding dataset
)

const (
	SegmentTrail SegmentKind = "Trail"
	SegmentRoad  SegmentKind = "Road"
)

// PointStyle describes the marker of one data point
type PointStyle struct {
	Radius          float64   `json:"radius"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	BorderWidth     float64   `json:"borderWidth"`
	Flag            PointFlag `json:"flag,omitempty"`
}

type Dataset struct {
	Label           string        `json:"label"`
	Kind            DatasetKind   `json:"kind"`
	Bib             int           `json:"bib"`
	Data            LapTimeSeries `json:"data"`
	BorderColor     string        `json:"borderColor"`
	BackgroundColor string        `json:"backgroundColor"`
	BorderDash      []float64     `json:"borderDash,omitempty"`
	BorderWidth     float64       `json:"borderWidth,omitempty"`
	Tension         float64       `json:"tension,omitempty"`
	Fill            FillMode      `json:"fill"`
	// PointRadius applies to all points when Points is empty
	PointRadius float64      `json:"pointRadius"`
	Points      []PointStyle `json:"points,omitempty"`
}

type BackgroundBand struct {
	Kind  SegmentKind `json:"kind"`
	From  float64     `json:"from"`
	To    float64     `json:"to"`
	Color string      `json:"color"`
}

type BackgroundLabel struct {
	Text string  `json:"text"`
	At   float64 `json:"at"`
}

// BackgroundLayout is the day/night segmentation in lap units
type BackgroundLayout struct {
	Bands  []BackgroundBand  `json:"bands"`
	Labels []BackgroundLabel `json:"labels"`
}

type ChartSpec struct {
	Labels     []int            `json:"labels"`
	Datasets   []Dataset        `json:"datasets"`
	Background BackgroundLayout `json:"background"`
}

// MaxLap returns the highest lap number on the x-axis
func (c *ChartSpec) MaxLap() int {
	return len(c.Labels)
}
