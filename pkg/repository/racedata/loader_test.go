//nolint:funlen // ok for tests
package racedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/testsupport/basedata"
)

func testLoader(results, laps string, opts ...LoaderOption) *Loader {
	opts = append([]LoaderOption{WithLogger(log.New(os.Stderr, log.ErrorLevel))}, opts...)
	return NewLoader(results, laps, opts...)
}

func TestLoad_files(t *testing.T) {
	results, laps := basedata.WriteFeeds(t)
	store, err := testLoader(results, laps).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{7, 12, 3, 21}, store.Bibs())
	assert.Len(t, store.LapTimes(12), 4)
}

func TestLoad_http(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/results.json":
			w.Write([]byte(basedata.ResultsJSON))
		case "/data/laps.json":
			w.Write([]byte(basedata.LapsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := testLoader(srv.URL+"/data/results.json", srv.URL+"/data/laps.json",
		WithHTTPClient(srv.Client()))
	store, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.Results(), 4)

	loader = testLoader(srv.URL+"/data/results.json", srv.URL+"/data/missing.json",
		WithHTTPClient(srv.Client()))
	_, err = loader.Load(context.Background())
	assert.ErrorContains(t, err, "404")
}

func TestLoad_failsIfOneFeedFails(t *testing.T) {
	results, laps := basedata.WriteFeeds(t)
	tests := []struct {
		name    string
		results string
		laps    string
	}{
		{"missing laps", results, filepath.Join(t.TempDir(), "nope.json")},
		{"missing results", filepath.Join(t.TempDir(), "nope.json"), laps},
		{"unsupported laps format", results, "laps.xml"},
		{"no laps source", results, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := testLoader(tt.results, tt.laps).Load(context.Background())
			assert.Error(t, err)
			assert.Nil(t, store)
		})
	}
}

func TestLoad_mixedFormats(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results.yaml")
	laps := filepath.Join(dir, "laps.csv")
	basedata.WriteFile(t, results, "- Bib: 5\n  Name: Solo\n- Name: nobody\n- Bib: 5\n  Name: Again\n")
	basedata.WriteFile(t, laps, "File,Lap Split\n5,40:00\n5,41:30\n")

	store, err := testLoader(results, laps).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5}, store.Bibs())
	assert.Equal(t, 2, store.Report().Quarantined, "missing and duplicate bib")
	assert.Len(t, store.LapTimes(5), 2)
}

func TestHolder_reload(t *testing.T) {
	results, laps := basedata.WriteFeeds(t)
	loader := testLoader(results, laps)
	store, err := loader.Load(context.Background())
	require.NoError(t, err)
	h := NewHolder(loader, store)

	// broken laps feed keeps the current store
	basedata.WriteFile(t, laps, `[{"File": 7`)
	assert.Error(t, h.Reload(context.Background()))
	assert.Same(t, store, h.Store())

	basedata.WriteFile(t, laps, `[{"File": 7, "Lap Split": "40:00"}]`)
	assert.NoError(t, h.Reload(context.Background()))
	assert.NotSame(t, store, h.Store())
	assert.Len(t, h.Store().LapTimes(7), 1)

	select {
	case report := <-h.Updates():
		assert.Equal(t, 1, report.LapRecords)
	default:
		t.Error("expected update after reload")
	}
}

func TestHolder_static(t *testing.T) {
	store := NewStore(basedata.SampleResults(), basedata.SampleLaps())
	h := NewHolder(nil, store)
	assert.Same(t, store, h.Store())
	assert.ErrorIs(t, h.Reload(context.Background()), ErrNoLoader)
	assert.ErrorIs(t, h.Watch(context.Background()), ErrNoLoader)
}

func TestHolder_watch(t *testing.T) {
	results, laps := basedata.WriteFeeds(t)
	loader := testLoader(results, laps)
	store, err := loader.Load(context.Background())
	require.NoError(t, err)
	h := NewHolder(loader, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- h.Watch(ctx) }()

	// give the watcher some time to register
	time.Sleep(200 * time.Millisecond)
	basedata.WriteFile(t, laps, `[{"File": 12, "Lap Split": "50:00"}]`)

	assert.Eventually(t, func() bool {
		return len(h.Store().LapTimes(12)) == 1
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
