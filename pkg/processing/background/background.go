package background

import (
	"github.com/mpapenbr/lapviewer/pkg/model"
)

// a race day consists of 11 trail laps followed by 13 road laps
const (
	CycleLaps = 24
	TrailLaps = 11
	RoadLaps  = 13
)

const (
	TrailColor = "rgba(255, 223, 0, 0.1)"
	RoadColor  = "rgba(0, 0, 139, 0.08)"
	LabelColor = "rgba(0, 0, 0, 0.3)"
	LabelSize  = 12.0
	LabelTop   = 15.0 // label baseline below the top of the plot area
)

// Compute returns the day/night bands and labels for an x-axis ranging
// from 1 to maxLap. Each cycle starts at a multiple of CycleLaps: the trail
// band covers [c, c+10], the road band [c+10, c+23]. The road band is only
// present if at least one road lap is on the axis, bands are cut at maxLap.
// Labels are centered at c+5.5 and c+17.5 if that position is on the axis.
func Compute(maxLap float64) model.BackgroundLayout {
	ret := model.BackgroundLayout{
		Bands:  make([]model.BackgroundBand, 0),
		Labels: make([]model.BackgroundLabel, 0),
	}
	addLabel := func(kind model.SegmentKind, at float64) {
		if at >= 1 && at <= maxLap {
			ret.Labels = append(ret.Labels, model.BackgroundLabel{Text: string(kind), At: at})
		}
	}
	for cycle := 0.0; cycle+1 <= maxLap; cycle += CycleLaps {
		ret.Bands = append(ret.Bands, model.BackgroundBand{
			Kind:  model.SegmentTrail,
			From:  cycle,
			To:    min(cycle+TrailLaps-1, maxLap),
			Color: TrailColor,
		})
		if cycle+TrailLaps <= maxLap {
			ret.Bands = append(ret.Bands, model.BackgroundBand{
				Kind:  model.SegmentRoad,
				From:  cycle + TrailLaps - 1,
				To:    min(cycle+CycleLaps-1, maxLap),
				Color: RoadColor,
			})
		}
		addLabel(model.SegmentTrail, cycle+5.5)
		addLabel(model.SegmentRoad, cycle+17.5)
	}
	return ret
}
