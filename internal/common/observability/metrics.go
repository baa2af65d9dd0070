package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records report assembly metrics through an otel meter exported to Prometheus.
// A nil *Observability, or one whose exporter failed to start, records nothing.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	assembled        otelmetric.Int64Counter
	failed           otelmetric.Int64Counter
	imagesSkipped    otelmetric.Int64Counter
	assemblyDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName)
}

// NewWithReader builds an Observability on a caller-supplied reader, e.g. a ManualReader in tests.
func NewWithReader(reader metric.Reader, serviceName string) *Observability {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	assembled, _ := meter.Int64Counter(
		"reports.assembled",
		otelmetric.WithDescription("Number of reports assembled"),
	)
	failed, _ := meter.Int64Counter(
		"reports.failed",
		otelmetric.WithDescription("Number of report assemblies that failed"),
	)
	imagesSkipped, _ := meter.Int64Counter(
		"reports.images_skipped",
		otelmetric.WithDescription("Attachment images skipped because they could not be decoded"),
	)
	assemblyDuration, _ := meter.Float64Histogram(
		"reports.assembly.duration",
		otelmetric.WithDescription("Report assembly duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		assembled:        assembled,
		failed:           failed,
		imagesSkipped:    imagesSkipped,
		assemblyDuration: assemblyDuration,
	}
}

func (o *Observability) RecordAssembled(ctx context.Context, source string, duration time.Duration) {
	if o == nil || o.assembled == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("source", source))
	o.assembled.Add(ctx, 1, attrs)
	o.assemblyDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) RecordFailed(ctx context.Context, reason string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("reason", reason)))
}

func (o *Observability) RecordImagesSkipped(ctx context.Context, n int) {
	if o == nil || o.imagesSkipped == nil || n <= 0 {
		return
	}
	o.imagesSkipped.Add(ctx, int64(n))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
