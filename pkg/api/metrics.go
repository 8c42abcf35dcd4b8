package api

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/service/viewer"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
)

type metrics struct {
	chartBuilds metric.Int64Counter
	renderTime  metric.Float64Histogram
}

// newMetrics registers the api instruments. Without telemetry the global
// meter provider is a no-op.
func newMetrics(sessions cache.Cache[string, viewer.Session]) *metrics {
	meter := otel.GetMeterProvider().Meter("lapviewer.api")
	chartBuilds, err := meter.Int64Counter("chart_builds",
		metric.WithDescription("number of assembled charts"))
	if err != nil {
		log.Error("failed to register metric", log.String("metric", "chart_builds"),
			log.ErrorField(err))
	}
	renderTime, err := meter.Float64Histogram("chart_render",
		metric.WithDescription("rendering of chart images"),
		metric.WithUnit("s"))
	if err != nil {
		log.Error("failed to register metric", log.String("metric", "chart_render"),
			log.ErrorField(err))
	}
	if _, err := meter.Int64ObservableGauge("sessions",
		metric.WithDescription("number of viewer sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(sessions.Len()))
			return nil
		})); err != nil {
		log.Error("failed to register metric", log.String("metric", "sessions"),
			log.ErrorField(err))
	}
	return &metrics{chartBuilds: chartBuilds, renderTime: renderTime}
}

func (m *metrics) chartBuilt(ctx context.Context, opts ...metric.AddOption) {
	if m.chartBuilds != nil {
		m.chartBuilds.Add(ctx, 1, opts...)
	}
}

func (m *metrics) rendered(ctx context.Context, seconds float64, opts ...metric.RecordOption) {
	if m.renderTime != nil {
		m.renderTime.Record(ctx, seconds, opts...)
	}
}
