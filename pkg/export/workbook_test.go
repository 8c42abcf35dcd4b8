package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/testsupport/basedata"
)

func sampleWorkbook(t *testing.T, bibs ...int) *excelize.File {
	t.Helper()
	store := racedata.NewStore(basedata.SampleResults(), basedata.SampleLaps())
	selected := make([]Runner, 0, len(bibs))
	for _, bib := range bibs {
		r, ok := store.Runner(bib)
		require.True(t, ok)
		selected = append(selected, Runner{Record: r, LapTimes: store.LapTimes(bib)})
	}
	buf := bytes.Buffer{}
	require.NoError(t, Write(&buf, store.Results(), selected))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWrite_results(t *testing.T) {
	f := sampleWorkbook(t)
	assert.Equal(t, []string{SheetResults}, f.GetSheetList())
	rows, err := f.GetRows(SheetResults)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t,
		[]string{"Place", "Bib", "Name", "Age", "State", "Laps", "Miles", "KM", "RaceTime"},
		rows[0])
	assert.Equal(t,
		[]string{"1", "7", "Jane Doe", "34", "CO", "5", "20.835", "33.53", "4:06:30"},
		rows[1])
	assert.Equal(t, "Max Moe", rows[4][2])
}

func TestWrite_laps(t *testing.T) {
	f := sampleWorkbook(t, 7, 12)
	assert.Equal(t, []string{SheetResults, SheetLaps}, f.GetSheetList())
	rows, err := f.GetRows(SheetLaps)
	require.NoError(t, err)
	require.Len(t, rows, 6, "header plus five laps")
	assert.Equal(t, []string{"Lap", "Jane Doe (#7)", "John Roe (#12)"}, rows[0])
	assert.Equal(t, []string{"1", "45.17", "50"}, rows[1])
	assert.Equal(t, []string{"3", "", "55"}, rows[3], "unparsable split stays blank")
	assert.Equal(t, []string{"5", "46.5"}, rows[5])
}

func TestWrite_singleLap(t *testing.T) {
	store := racedata.NewStore(basedata.SampleResults()[:1], nil)
	r, _ := store.Runner(7)
	f, err := Build(store.Results(), []Runner{{Record: r}})
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetLaps)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Lap", "Jane Doe (#7)"}}, rows)
}
