package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/api"
	"github.com/mpapenbr/lapviewer/pkg/cmd/util"
	"github.com/mpapenbr/lapviewer/pkg/config"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/pkg/service/viewer"
	"github.com/mpapenbr/lapviewer/pkg/utils/broadcast"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache/expiring"
)

var appConfig config.Config // holds processed config values

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "loads the race data and starts the http server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.FromFlags()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"http server listen address")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data ('stdout' prints them)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.SessionTimeout,
		"session-timeout",
		"30m",
		"viewer sessions are removed after being idle for this duration")
	cmd.Flags().BoolVar(&config.WatchData,
		"watch",
		false,
		"reload the race data when the local feed files change")
	cmd.Flags().IntVar(&config.ChartWidth,
		"chart-width",
		1024,
		"default width of rendered charts")
	cmd.Flags().IntVar(&config.ChartHeight,
		"chart-height",
		600,
		"default height of rendered charts")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"path to TLS certificate (serves https if set together with tls-key)")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"path to TLS key")
	return cmd
}

//nolint:funlen // by design
func startServer(ctx context.Context) error {
	logger := log.GetFromContext(ctx)
	var telemetry *config.Telemetry

	logger.Debug("Config:",
		log.String("results", appConfig.ResultsSource),
		log.String("laps", appConfig.LapsSource),
		log.String("addr", config.ServerAddr),
		log.String("sessionTimeout", appConfig.SessionTimeout),
		log.Bool("watch", appConfig.WatchData),
	)

	if config.ProfilingPort > 0 {
		logger.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				logger.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	util.WaitForServices(ctx)

	if config.EnableTelemetry {
		logger.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			logger.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			logger.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	holder, err := util.LoadFeeds(ctx)
	if err != nil {
		logger.Error("race data could not be loaded", log.ErrorField(err))
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if appConfig.WatchData {
		go func() {
			if err := holder.Watch(ctx); err != nil {
				logger.Error("watching race data failed", log.ErrorField(err))
			}
		}()
	}

	sessionTimeout, err := time.ParseDuration(appConfig.SessionTimeout)
	if err != nil {
		logger.Warn("Invalid session timeout. Setting default 30m", log.ErrorField(err))
		sessionTimeout = 30 * time.Minute
	}
	sessions := expiring.New(
		expiring.WithExpiration[string, viewer.Session](sessionTimeout),
		expiring.WithLogger[string, viewer.Session](logger.Named("sessions")))
	go sessions.Run(ctx, time.Minute)

	updates := broadcast.NewServer("reload", holder.Updates(),
		broadcast.WithLogger[racedata.Report](logger.Named("updates")))

	srv := api.NewServer(holder,
		api.WithSessionCache(sessions),
		api.WithUpdates(updates),
		api.WithChartSize(appConfig.ChartWidth, appConfig.ChartHeight),
		api.WithLogger(logger.Named("api")))

	server, err := newHTTPServer(ctx, srv.Handler())
	if err != nil {
		logger.Error("server could not be started", log.ErrorField(err))
		return err
	}
	// open update streams would delay the shutdown
	server.RegisterOnShutdown(updates.Close)
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting http server",
			log.String("addr", config.ServerAddr),
			log.Bool("tls", server.TLSConfig != nil))
		if server.TLSConfig != nil {
			errChan <- server.ListenAndServeTLS("", "")
		} else {
			errChan <- server.ListenAndServe()
		}
	}()
	setupGoRoutinesDump()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server could not be started", log.ErrorField(err))
			return err
		}
	case <-ctx.Done():
		logger.Debug("Got signal")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", log.ErrorField(err))
		}
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}

	logger.Info("Server terminated")
	return nil
}

// newHTTPServer serves handler via https if a key pair is configured,
// otherwise cleartext with h2c support
func newHTTPServer(ctx context.Context, handler http.Handler) (*http.Server, error) {
	handler = newCORS().Handler(handler)
	if config.TLSCertFile == "" || config.TLSKeyFile == "" {
		//nolint:gosec // by design
		return &http.Server{
			Addr:    config.ServerAddr,
			Handler: h2c.NewHandler(handler, &http2.Server{}),
		}, nil
	}
	logger := log.GetFromContext(ctx).Named("certs")
	certs, err := newCertReloader(config.TLSCertFile, config.TLSKeyFile, logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := certs.Watch(ctx); err != nil {
			logger.Error("cert reload stopped", log.ErrorField(err))
		}
	}()
	//nolint:gosec // by design
	return &http.Server{
		Addr:      config.ServerAddr,
		Handler:   handler,
		TLSConfig: certs.TLSConfig(),
	}, nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	// the page and the api may be used from other origins
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Disposition",
			"Content-Encoding",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
