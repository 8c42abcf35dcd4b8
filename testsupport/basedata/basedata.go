package basedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

// ResultsJSON is a small results feed as published by the timing system
const ResultsJSON = `[
  {"Place": 1, "Bib": 7, "Name": "Jane Doe", "Age": 34, "State": "CO",
   "Laps": 5, "Miles": 20.835, "KM": 33.53, "RaceTime": "4:06:30"},
  {"Place": 2, "Bib": 12, "Name": "John Roe", "Age": 41, "State": "TN",
   "Laps": 4, "Miles": 16.668, "KM": 26.82, "RaceTime": "3:35:45"},
  {"Place": 3, "Bib": 3, "Name": "Ann Poe", "Age": 29, "State": "GA",
   "Laps": 3, "Miles": 12.501, "KM": 20.12, "RaceTime": "2:03:00"},
  {"Place": 4, "Bib": 21, "Name": "Max Moe", "Age": 52, "State": "TN",
   "Laps": 2, "Miles": 8.334, "KM": 13.41, "RaceTime": "1:59:30"}
]`

// LapsJSON contains the splits for ResultsJSON plus one unmatched record
const LapsJSON = `[
  {"File": 7, "Lap Split": "45:10"},
  {"File": 7, "Lap Split": "44:50"},
  {"File": 12, "Lap Split": "50:00"},
  {"File": 7, "Lap Split": "bad"},
  {"File": 12, "Lap Split": "52:30"},
  {"File": 7, "Lap Split": "50:00"},
  {"File": 7, "Lap Split": "46:30"},
  {"File": 12, "Lap Split": "55:00"},
  {"File": 12, "Lap Split": "58:15"},
  {"File": 3, "Lap Split": "40:00"},
  {"File": 3, "Lap Split": "41:00"},
  {"File": 3, "Lap Split": "42:00"},
  {"File": 21, "Lap Split": "59:00"},
  {"File": 21, "Lap Split": "1:00:30"},
  {"File": 99, "Lap Split": "48:00"}
]`

func SampleResults() []model.ResultRecord {
	return []model.ResultRecord{
		{
			Place: 1, Bib: 7, Name: "Jane Doe", Age: 34, State: "CO", Laps: 5,
			Miles: decimal.RequireFromString("20.835"),
			KM:    decimal.RequireFromString("33.53"), RaceTime: "4:06:30",
		},
		{
			Place: 2, Bib: 12, Name: "John Roe", Age: 41, State: "TN", Laps: 4,
			Miles: decimal.RequireFromString("16.668"),
			KM:    decimal.RequireFromString("26.82"), RaceTime: "3:35:45",
		},
		{
			Place: 3, Bib: 3, Name: "Ann Poe", Age: 29, State: "GA", Laps: 3,
			Miles: decimal.RequireFromString("12.501"),
			KM:    decimal.RequireFromString("20.12"), RaceTime: "2:03:00",
		},
		{
			Place: 4, Bib: 21, Name: "Max Moe", Age: 52, State: "TN", Laps: 2,
			Miles: decimal.RequireFromString("8.334"),
			KM:    decimal.RequireFromString("13.41"), RaceTime: "1:59:30",
		},
	}
}

func SampleLaps() []model.LapRecord {
	return []model.LapRecord{
		{File: 7, LapSplit: "45:10"},
		{File: 7, LapSplit: "44:50"},
		{File: 12, LapSplit: "50:00"},
		{File: 7, LapSplit: "bad"},
		{File: 12, LapSplit: "52:30"},
		{File: 7, LapSplit: "50:00"},
		{File: 7, LapSplit: "46:30"},
		{File: 12, LapSplit: "55:00"},
		{File: 12, LapSplit: "58:15"},
		{File: 3, LapSplit: "40:00"},
		{File: 3, LapSplit: "41:00"},
		{File: 3, LapSplit: "42:00"},
		{File: 21, LapSplit: "59:00"},
		{File: 21, LapSplit: "1:00:30"},
		{File: 99, LapSplit: "48:00"},
	}
}

// WriteFeeds stores the sample feeds as json files in a temporary directory
func WriteFeeds(t *testing.T) (results, laps string) {
	t.Helper()
	dir := t.TempDir()
	results = filepath.Join(dir, "results.json")
	laps = filepath.Join(dir, "laps.json")
	WriteFile(t, results, ResultsJSON)
	WriteFile(t, laps, LapsJSON)
	return results, laps
}

func WriteFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write %s: %v", name, err)
	}
}
