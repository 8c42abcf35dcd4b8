//nolint:funlen // ok for tests
package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/export"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/pkg/utils/broadcast"
	"github.com/mpapenbr/lapviewer/testsupport/basedata"
)

type viewResponse struct {
	ID        string `json:"id"`
	Selection []int  `json:"selection"`
	Rows      []struct {
		Bib    int  `json:"bib"`
		Active bool `json:"active"`
	} `json:"rows"`
	Badges []struct {
		Bib   int    `json:"bib"`
		Color string `json:"color"`
	} `json:"badges"`
	Sort struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
	} `json:"sort"`
	PanelWidth float64 `json:"panelWidth"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := racedata.NewStore(basedata.SampleResults(), basedata.SampleLaps())
	s := NewServer(racedata.NewHolder(nil, store),
		WithLogger(log.New(os.Stderr, log.ErrorLevel)),
		WithChartSize(400, 300))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// noRedirect returns a client which reports redirects instead of following them
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ret map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ret))
	require.NotEmpty(t, ret["id"])
	return ret["id"]
}

func postEvent(t *testing.T, ts *httptest.Server, id, body string) (*http.Response, viewResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/events", "application/json",
		strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var view viewResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	}
	return resp, view
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestResults(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	var results []struct {
		Bib  int    `json:"bib"`
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 4)
	assert.Equal(t, 7, results[0].Bib)
	assert.Equal(t, "Max Moe", results[3].Name)

	resp, err = http.Get(ts.URL + "/api/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	var report racedata.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 4, report.Results)
	assert.Equal(t, 1, report.UnmatchedLaps)
}

func TestSession_lifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view viewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, id, view.ID)
	assert.Len(t, view.Rows, 4)
	assert.Empty(t, view.Selection)
	assert.Equal(t, 30.0, view.PanelWidth)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, http.NoBody)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_unknown(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{
		"/api/sessions/nope",
		"/api/sessions/nope/chart",
		"/api/sessions/nope/chart.png",
		"/api/sessions/nope/export.xlsx",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Not Found", body.Error)
			assert.Contains(t, body.Message, "cache miss")
		})
	}
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp, view := postEvent(t, ts, id, `{"type":"selectionToggled","bib":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int{7}, view.Selection)
	require.Len(t, view.Badges, 1)
	assert.Equal(t, "#FF6384", view.Badges[0].Color)

	_, view = postEvent(t, ts, id, `{"type":"selectionToggled","bib":3}`)
	assert.Equal(t, []int{7, 3}, view.Selection)

	_, view = postEvent(t, ts, id, `{"type":"runnerRemoved","bib":7}`)
	assert.Equal(t, []int{3}, view.Selection)
	assert.Equal(t, "#FF6384", view.Badges[0].Color, "colors follow the selection position")

	_, view = postEvent(t, ts, id, `{"type":"sortRequested","column":"name"}`)
	assert.Equal(t, "Name", view.Sort.Column)
	assert.Equal(t, "asc", view.Sort.Direction)
	assert.Equal(t, 3, view.Rows[0].Bib, "Ann Poe first")
	assert.True(t, view.Rows[0].Active)

	_, view = postEvent(t, ts, id, `{"type":"panelResized","percent":45}`)
	assert.Equal(t, 45.0, view.PanelWidth)

	for _, body := range []string{
		`{"type":"unknown"}`,
		`{"type":"selectionToggled"}`,
		`{"type":"sortRequested","column":"Shoe"}`,
		`not json`,
	} {
		resp, _ := postEvent(t, ts, id, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestChartSpec(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	postEvent(t, ts, id, `{"type":"selectionToggled","bib":7}`)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var spec struct {
		Labels   []int `json:"labels"`
		Datasets []struct {
			Label string     `json:"label"`
			Kind  string     `json:"kind"`
			Data  []*float64 `json:"data"`
		} `json:"datasets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, spec.Labels)
	require.Len(t, spec.Datasets, 4)
	assert.Equal(t, "main", spec.Datasets[0].Kind)
	assert.Nil(t, spec.Datasets[0].Data[2], "unparsable split is null")
}

func TestChartImage(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	postEvent(t, ts, id, `{"type":"selectionToggled","bib":12}`)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/chart.png?w=320&h=240")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	cfg, err := png.DecodeConfig(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)

	resp, err = http.Get(ts.URL + "/api/sessions/" + id + "/chart.svg")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	tests := []struct {
		path string
		want int
	}{
		{"/chart.png?w=abc", http.StatusBadRequest},
		{"/chart.png?h=1.5", http.StatusBadRequest},
		{"/chart.gif", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/sessions/" + id + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	postEvent(t, ts, id, `{"type":"selectionToggled","bib":3}`)
	postEvent(t, ts, id, `{"type":"selectionToggled","bib":99}`)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/export.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lapviewer.xlsx")

	buf := bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetLaps)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lap", "Ann Poe (#3)"}, rows[0], "unknown bib is skipped")
}

func TestPage(t *testing.T) {
	ts := newTestServer(t)
	client := noRedirect()

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	id := loc.Query().Get("session")
	require.NotEmpty(t, id)

	resp, err = client.Get(ts.URL + "/ui/" + id + "/toggle/21")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, pageURL(id), resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + pageURL(id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	page := buf.String()
	assert.Contains(t, page, "Jane Doe")
	assert.Contains(t, page, `class="active"`)
	assert.Contains(t, page, "/api/sessions/"+id+"/chart.svg")
	assert.Contains(t, page, "/ui/"+id+"/remove/21")
	assert.NotContains(t, page, "EventSource")
}

func TestPage_uiActions(t *testing.T) {
	ts := newTestServer(t)
	client := noRedirect()
	id := createSession(t, ts)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantLoc  string
	}{
		{"toggle", "/ui/" + id + "/toggle/7", http.StatusSeeOther, pageURL(id)},
		{"remove", "/ui/" + id + "/remove/7", http.StatusSeeOther, pageURL(id)},
		{"sort", "/ui/" + id + "/sort/miles", http.StatusSeeOther, pageURL(id)},
		{"resize", "/ui/" + id + "/resize?percent=20", http.StatusSeeOther, pageURL(id)},
		{"bad column", "/ui/" + id + "/sort/shoe", http.StatusBadRequest, ""},
		{"bad percent", "/ui/" + id + "/resize?percent=wide", http.StatusBadRequest, ""},
		{"bad bib", "/ui/" + id + "/toggle/abc", http.StatusNotFound, ""},
		{"expired session", "/ui/gone/toggle/7", http.StatusSeeOther, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(ts.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, resp.Header.Get("Location"))
			}
		})
	}

	resp, err := http.Get(ts.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	var view viewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Empty(t, view.Selection)
	assert.Equal(t, "Miles", view.Sort.Column)
	assert.Equal(t, 20.0, view.PanelWidth)
}

func TestUpdates_disabled(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/updates")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdates(t *testing.T) {
	store := racedata.NewStore(basedata.SampleResults(), basedata.SampleLaps())
	source := make(chan racedata.Report)
	updates := broadcast.NewServer("test", source)
	defer updates.Close()
	s := NewServer(racedata.NewHolder(nil, store),
		WithLogger(log.New(os.Stderr, log.ErrorLevel)),
		WithUpdates(updates))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/updates")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// headers are flushed after subscribing
	select {
	case source <- racedata.Report{Results: 3, LapRecords: 9}:
	case <-time.After(time.Second):
		t.Fatal("broadcast server did not accept report")
	}

	lines := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			got = append(got, line)
		case <-timeout:
			t.Fatalf("no event received, got %v", got)
		}
	}
	assert.Equal(t, "event: reload", got[0])
	assert.True(t, strings.HasPrefix(got[1], "data: {"), got[1])

	page, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	buf := bytes.Buffer{}
	_, err = buf.ReadFrom(page.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "EventSource")
}
