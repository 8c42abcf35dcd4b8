package laptime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

// Parse converts a race clock value (MM:SS or HH:MM:SS) into minutes.
// Hours and minutes must be integers, seconds may be fractional.
// Returns null for anything else. Values like "5:75" are taken as they are.
func Parse(s string) null.Val[float64] {
	if s == "" {
		return null.Val[float64]{}
	}
	parts := strings.Split(s, ":")
	var hours, minutes int
	var err error
	switch len(parts) {
	case 2:
		if minutes, err = atoi(parts[0]); err != nil {
			return null.Val[float64]{}
		}
	case 3:
		if hours, err = atoi(parts[0]); err != nil {
			return null.Val[float64]{}
		}
		if minutes, err = atoi(parts[1]); err != nil {
			return null.Val[float64]{}
		}
	default:
		return null.Val[float64]{}
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return null.Val[float64]{}
	}
	return null.From(float64(hours*60+minutes) + seconds/60)
}

// ParseAll converts a sequence of splits into a lap time series
func ParseAll(splits []string) model.LapTimeSeries {
	ret := make(model.LapTimeSeries, len(splits))
	for i, s := range splits {
		ret[i] = Parse(s)
	}
	return ret
}

// Format renders minutes as M:SS (used for the y-axis ticks)
func Format(minutes float64) string {
	mins := int(math.Floor(minutes))
	secs := int(math.Round((minutes - float64(mins)) * 60))
	if secs == 60 {
		mins++
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
