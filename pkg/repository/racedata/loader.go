package racedata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/model"
)

type (
	LoaderOption func(*Loader)
	Loader       struct {
		resultsSource string
		lapsSource    string
		client        *http.Client
		log           *log.Logger
	}
)

func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = logger
	}
}

// NewLoader creates a loader for the results and laps feed.
// A source is either a file path or a http(s) URL.
func NewLoader(resultsSource, lapsSource string, opts ...LoaderOption) *Loader {
	ret := &Loader{
		resultsSource: resultsSource,
		lapsSource:    lapsSource,
		client:        &http.Client{Timeout: 30 * time.Second},
		log:           log.Default().Named("racedata"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Sources returns the configured results and laps source
func (l *Loader) Sources() (results, laps string) {
	return l.resultsSource, l.lapsSource
}

// Load fetches both feeds concurrently. The store is only returned if
// both feeds could be loaded.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	var (
		results         []model.ResultRecord
		laps            []model.LapRecord
		qResults, qLaps int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, qResults, err = l.loadResults(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		laps, qLaps, err = l.loadLaps(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	store := NewStore(results, laps)
	store.addQuarantined(qResults + qLaps)
	report := store.Report()
	if report.Quarantined > 0 {
		l.log.Warn("quarantined feed records",
			log.Int("results", qResults),
			log.Int("laps", qLaps),
			log.Ints("duplicateBibs", report.DuplicateBibs))
	}
	l.log.Info("race data loaded",
		log.Int("results", report.Results),
		log.Int("lapRecords", report.LapRecords),
		log.Int("unmatchedLaps", report.UnmatchedLaps))
	return store, nil
}

func (l *Loader) loadResults(ctx context.Context) ([]model.ResultRecord, int, error) {
	data, format, err := l.fetch(ctx, l.resultsSource)
	if err != nil {
		return nil, 0, fmt.Errorf("results feed: %w", err)
	}
	ret, quarantined, err := DecodeResults(data, format)
	if err != nil {
		return nil, 0, fmt.Errorf("results feed %s: %w", l.resultsSource, err)
	}
	return ret, quarantined, nil
}

func (l *Loader) loadLaps(ctx context.Context) ([]model.LapRecord, int, error) {
	data, format, err := l.fetch(ctx, l.lapsSource)
	if err != nil {
		return nil, 0, fmt.Errorf("laps feed: %w", err)
	}
	ret, quarantined, err := DecodeLaps(data, format)
	if err != nil {
		return nil, 0, fmt.Errorf("laps feed %s: %w", l.lapsSource, err)
	}
	return ret, quarantined, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, Format, error) {
	if source == "" {
		return nil, "", fmt.Errorf("no source configured")
	}
	format, err := FormatOf(source)
	if err != nil {
		return nil, "", err
	}
	l.log.Debug("fetching feed", log.String("source", source))
	if !IsRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, "", err
		}
		return data, format, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%s: unexpected status %s", source, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// IsRemote reports whether source is fetched via http(s)
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
