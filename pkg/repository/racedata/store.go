package racedata

import (
	"github.com/samber/lo"

	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/laptime"
)

// Store is the immutable, indexed view of one data load.
// It is shared read-only between sessions.
type Store struct {
	results []*model.ResultRecord
	byBib   map[int]*model.ResultRecord
	splits  map[int][]string
	laps    map[int]model.LapTimeSeries
	report  Report
}

// Report counts the records dropped while building a store
type Report struct {
	Results       int   `json:"results"`
	LapRecords    int   `json:"lapRecords"`
	DuplicateBibs []int `json:"duplicateBibs,omitempty"`
	Quarantined   int   `json:"quarantined"`
	UnmatchedLaps int   `json:"unmatchedLaps"`
}

// NewStore indexes results by Bib and groups the lap records by File in
// feed order. For duplicate Bibs the first record wins.
// Lap records without a matching result are kept but never shown.
func NewStore(results []model.ResultRecord, laps []model.LapRecord) *Store {
	s := &Store{
		results: make([]*model.ResultRecord, 0, len(results)),
		byBib:   make(map[int]*model.ResultRecord, len(results)),
		splits:  make(map[int][]string),
		laps:    make(map[int]model.LapTimeSeries),
	}
	for i := range results {
		r := results[i]
		if _, ok := s.byBib[r.Bib]; ok {
			s.report.DuplicateBibs = append(s.report.DuplicateBibs, r.Bib)
			s.report.Quarantined++
			continue
		}
		s.byBib[r.Bib] = &r
		s.results = append(s.results, &r)
	}
	for _, l := range laps {
		s.splits[l.File] = append(s.splits[l.File], l.LapSplit)
	}
	for file, splits := range s.splits {
		s.laps[file] = laptime.ParseAll(splits)
		if _, ok := s.byBib[file]; !ok {
			s.report.UnmatchedLaps += len(splits)
		}
	}
	s.report.Results = len(s.results)
	s.report.LapRecords = len(laps)
	return s
}

// Results returns the result records in feed order
func (s *Store) Results() []*model.ResultRecord {
	return s.results
}

func (s *Store) Runner(bib int) (*model.ResultRecord, bool) {
	r, ok := s.byBib[bib]
	return r, ok
}

// ResultsByBib returns the index used by the chart assembler
func (s *Store) ResultsByBib() map[int]*model.ResultRecord {
	return s.byBib
}

// LapTimes returns the parsed lap times of bib, nil if there are none
func (s *Store) LapTimes(bib int) model.LapTimeSeries {
	return s.laps[bib]
}

// AllLapTimes returns the lap series of every File found in the lap feed
func (s *Store) AllLapTimes() map[int]model.LapTimeSeries {
	return s.laps
}

// Splits returns the raw split strings of bib in lap order
func (s *Store) Splits(bib int) []string {
	return s.splits[bib]
}

func (s *Store) Bibs() []int {
	return lo.Map(s.results, func(r *model.ResultRecord, _ int) int { return r.Bib })
}

func (s *Store) Report() Report {
	return s.report
}

func (s *Store) addQuarantined(n int) {
	s.report.Quarantined += n
}
