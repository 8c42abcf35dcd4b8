package util

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/config"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// WaitForServices blocks until remote feeds and the telemetry collector
// (if enabled) are reachable. Unreachable services are fatal.
func WaitForServices(ctx context.Context) {
	logger := log.GetFromContext(ctx)
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		logger.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	check := func(probe func() error) {
		defer wg.Done()
		if err := probe(); err != nil {
			logger.Fatal("required services not ready", log.ErrorField(err))
		}
	}
	for _, source := range []string{config.ResultsSource, config.LapsSource} {
		if racedata.IsRemote(source) {
			wg.Add(1)
			go check(func() error { return utils.WaitForHTTPResponse(source, timeout) })
		}
	}
	if config.EnableTelemetry && config.TelemetryEndpoint != "" &&
		config.TelemetryEndpoint != config.TelemetryStdout {

		wg.Add(1)
		go check(func() error { return utils.WaitForTCP(config.TelemetryEndpoint, timeout) })
	}
	logger.Debug("Waiting for connection checks to return")
	wg.Wait()
	logger.Debug("Required services are available")
}

// LoadFeeds loads both feeds as configured
func LoadFeeds(ctx context.Context) (*racedata.Holder, error) {
	loader := racedata.NewLoader(config.ResultsSource, config.LapsSource,
		racedata.WithLogger(log.GetFromContext(ctx).Named("racedata")))
	store, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return racedata.NewHolder(loader, store), nil
}
