package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

const (
	SheetResults = "Results"
	SheetLaps    = "Laps"
)

// Runner is a selected runner with the data shown on the laps sheet
type Runner struct {
	Record   *model.ResultRecord
	LapTimes model.LapTimeSeries
}

var resultsHeader = []any{
	"Place", "Bib", "Name", "Age", "State", "Laps", "Miles", "KM", "RaceTime",
}

// Write creates the workbook and writes it to w
func Write(w io.Writer, results []*model.ResultRecord, selected []Runner) error {
	f, err := Build(results, selected)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Build creates a workbook with the results table and, if runners are
// selected, their lap times (minutes) including a line chart.
func Build(results []*model.ResultRecord, selected []Runner) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return nil, err
	}
	if err := writeResults(f, results, selected); err != nil {
		return nil, fmt.Errorf("results sheet: %w", err)
	}
	if len(selected) > 0 {
		if err := writeLaps(f, selected); err != nil {
			return nil, fmt.Errorf("laps sheet: %w", err)
		}
	}
	return f, nil
}

//nolint:whitespace // can't make both editor and linter happy
func writeResults(
	f *excelize.File, results []*model.ResultRecord, selected []Runner,
) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1c399e"}},
		Font: &excelize.Font{Color: "ffffff", Bold: true},
	})
	if err != nil {
		return err
	}
	activeStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"dbe5f1"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetResults, "A1", &resultsHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetResults, "A1", "I1", headerStyle); err != nil {
		return err
	}
	active := map[int]bool{}
	for _, r := range selected {
		active[r.Record.Bib] = true
	}
	for i, r := range results {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{
			r.Place, r.Bib, r.Name, r.Age, r.State, r.Laps,
			r.Miles.InexactFloat64(), r.KM.InexactFloat64(), r.RaceTime,
		}
		if err := f.SetSheetRow(SheetResults, cell, &values); err != nil {
			return err
		}
		if active[r.Bib] {
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(SheetResults, cell, last, activeStyle); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(SheetResults, "C", "C", 24); err != nil {
		return err
	}
	return f.SetPanes(SheetResults, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

func writeLaps(f *excelize.File, selected []Runner) error {
	if _, err := f.NewSheet(SheetLaps); err != nil {
		return err
	}
	maxLaps := 0
	for _, r := range selected {
		maxLaps = max(maxLaps, len(r.LapTimes))
	}
	if err := f.SetCellValue(SheetLaps, "A1", "Lap"); err != nil {
		return err
	}
	for lap := 1; lap <= maxLaps; lap++ {
		cell, _ := excelize.CoordinatesToCellName(1, lap+1)
		if err := f.SetCellValue(SheetLaps, cell, lap); err != nil {
			return err
		}
	}
	for i, r := range selected {
		col := i + 2
		cell, _ := excelize.CoordinatesToCellName(col, 1)
		if err := f.SetCellValue(SheetLaps, cell, runnerTitle(r.Record)); err != nil {
			return err
		}
		for lap, v := range r.LapTimes {
			minutes, ok := v.Get()
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, lap+2)
			if err := f.SetCellValue(SheetLaps, cell, math.Round(minutes*100)/100); err != nil {
				return err
			}
		}
	}
	if maxLaps < 2 {
		return nil
	}
	return addLapChart(f, selected, maxLaps)
}

func addLapChart(f *excelize.File, selected []Runner, maxLaps int) error {
	series := make([]excelize.ChartSeries, 0, len(selected))
	for i := range selected {
		colName, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", SheetLaps, colName),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", SheetLaps, maxLaps+1),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", SheetLaps, colName, colName, maxLaps+1),
			Line:       excelize.ChartLine{Width: 1.5},
		})
	}
	minY, maxY := model.MinDisplayMinutes, model.MaxDisplayMinutes
	anchor, _ := excelize.CoordinatesToCellName(len(selected)+3, 2)
	return f.AddChart(SheetLaps, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: "Lap Split Times"}},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: "Lap Number"}},
		},
		YAxis: excelize.ChartAxis{
			Minimum:        &minY,
			Maximum:        &maxY,
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: "Time (minutes)"}},
		},
		Dimension:    excelize.ChartDimension{Width: 720, Height: 400},
		ShowBlanksAs: "gap",
	})
}

func runnerTitle(r *model.ResultRecord) string {
	return r.Name + " (#" + strconv.Itoa(r.Bib) + ")"
}
