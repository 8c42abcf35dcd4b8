package model

import (
	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"
)

// ResultRecord is the final result of one runner
type ResultRecord struct {
	Bib      int             `json:"bib"`
	Place    int             `json:"place"`
	Name     string          `json:"name"`
	Age      int             `json:"age"`
	State    string          `json:"state"`
	Laps     int             `json:"laps"`
	Miles    decimal.Decimal `json:"miles"`
	KM       decimal.Decimal `json:"km"`
	RaceTime string          `json:"raceTime"`
}

// LapRecord is a single lap split. File refers to ResultRecord.Bib,
// the lap number is given by the position within the records of the same File.
type LapRecord struct {
	File     int    `json:"file"`
	LapSplit string `json:"lapSplit"`
}

// LapTimeSeries holds lap times in minutes, index 0 is lap 1.
// A null entry marks a missing or unparsable split.
type LapTimeSeries []null.Val[float64]

// Valid returns the non-null values in lap order
func (s LapTimeSeries) Valid() []float64 {
	ret := make([]float64, 0, len(s))
	for _, v := range s {
		if f, ok := v.Get(); ok {
			ret = append(ret, f)
		}
	}
	return ret
}

// Trendline is a linear fit over lap numbers (1-based)
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At returns the trend value for lap (1-based)
func (t Trendline) At(lap int) float64 {
	return t.Slope*float64(lap) + t.Intercept
}
