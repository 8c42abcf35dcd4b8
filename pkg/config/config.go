package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	ResultsSource     string // path or URL of the results feed
	LapsSource        string // path or URL of the laps feed
	ServerAddr        string // listen addr for the http server
	WaitForServices   string // duration to wait for remote feeds to be reachable
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	ProfilingPort     int    // port for profiling
	SessionTimeout    string // idle duration after which a viewer session is dropped
	WatchData         bool   // reload feeds when the files change
	ChartWidth        int    // default width of rendered charts
	ChartHeight       int    // default height of rendered charts
	TLSCertFile       string // path to TLS certificate
	TLSKeyFile        string // path to TLS key
)

// Config holds the configuration values which are used by the application
type Config struct {
	ResultsSource  string
	LapsSource     string
	SessionTimeout string
	WatchData      bool
	ChartWidth     int
	ChartHeight    int
}

// FromFlags collects the resolved CLI values
func FromFlags() Config {
	return Config{
		ResultsSource:  ResultsSource,
		LapsSource:     LapsSource,
		SessionTimeout: SessionTimeout,
		WatchData:      WatchData,
		ChartWidth:     ChartWidth,
		ChartHeight:    ChartHeight,
	}
}
