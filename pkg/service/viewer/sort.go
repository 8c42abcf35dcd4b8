package viewer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/laptime"
)

type (
	Column    string
	Direction string
)

const (
	ColumnPlace    Column = "Place"
	ColumnBib      Column = "Bib"
	ColumnName     Column = "Name"
	ColumnAge      Column = "Age"
	ColumnState    Column = "State"
	ColumnLaps     Column = "Laps"
	ColumnMiles    Column = "Miles"
	ColumnKM       Column = "KM"
	ColumnRaceTime Column = "RaceTime"
)

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Columns lists the table columns in display order
var Columns = []Column{
	ColumnPlace, ColumnBib, ColumnName, ColumnAge, ColumnState,
	ColumnLaps, ColumnMiles, ColumnKM, ColumnRaceTime,
}

// ParseColumn resolves a column name (case insensitive)
func ParseColumn(name string) (Column, error) {
	for _, c := range Columns {
		if strings.EqualFold(string(c), name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown column %q", ErrInvalidMessage, name)
}

// SortState is the current table ordering. An empty column keeps feed order.
type SortState struct {
	Column    Column    `json:"column,omitempty"`
	Direction Direction `json:"direction"`
}

// next returns the state after the user requested column:
// the same column flips the direction, another one starts ascending.
func (s SortState) next(column Column) SortState {
	if s.Column == column {
		if s.Direction == Asc {
			return SortState{Column: column, Direction: Desc}
		}
		return SortState{Column: column, Direction: Asc}
	}
	return SortState{Column: column, Direction: Asc}
}

func compareBy(column Column) func(a, b *model.ResultRecord) int {
	switch column {
	case ColumnPlace:
		return func(a, b *model.ResultRecord) int { return cmp.Compare(a.Place, b.Place) }
	case ColumnBib:
		return func(a, b *model.ResultRecord) int { return cmp.Compare(a.Bib, b.Bib) }
	case ColumnName:
		return func(a, b *model.ResultRecord) int { return strings.Compare(a.Name, b.Name) }
	case ColumnAge:
		return func(a, b *model.ResultRecord) int { return cmp.Compare(a.Age, b.Age) }
	case ColumnState:
		return func(a, b *model.ResultRecord) int { return strings.Compare(a.State, b.State) }
	case ColumnLaps:
		return func(a, b *model.ResultRecord) int { return cmp.Compare(a.Laps, b.Laps) }
	case ColumnMiles:
		return func(a, b *model.ResultRecord) int { return a.Miles.Cmp(b.Miles) }
	case ColumnKM:
		return func(a, b *model.ResultRecord) int { return a.KM.Cmp(b.KM) }
	case ColumnRaceTime:
		// unparsable race times sort first
		return func(a, b *model.ResultRecord) int {
			return cmp.Compare(raceMinutes(a), raceMinutes(b))
		}
	default:
		return nil
	}
}

func raceMinutes(r *model.ResultRecord) float64 {
	if v, ok := laptime.Parse(r.RaceTime).Get(); ok {
		return v
	}
	return -1
}

// sortRecords returns a sorted copy, equal values keep their feed order
func sortRecords(records []*model.ResultRecord, state SortState) []*model.ResultRecord {
	ret := slices.Clone(records)
	compare := compareBy(state.Column)
	if compare == nil {
		return ret
	}
	slices.SortStableFunc(ret, func(a, b *model.ResultRecord) int {
		if state.Direction == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return ret
}
