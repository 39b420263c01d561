package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	promreg "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/echoverse/gateway/internal/config"
)

// Provider bundles the metrics registry and optional tracer. All record
// methods are nil-safe so callers never guard.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
	promExporter   *prometheus.Exporter
	promHandler    http.Handler
	shutdownFuncs  []func(context.Context) error

	httpRequestCounter     *promreg.CounterVec
	httpRequestLatency     *promreg.HistogramVec
	providerRequestCounter *promreg.CounterVec
	providerLatency        *promreg.HistogramVec
}

// Setup builds the provider from configuration; it returns nil when both
// metrics and tracing are disabled.
func Setup(ctx context.Context, cfg config.ObservabilityConfig) (*Provider, error) {
	if !cfg.EnableOTLP && !cfg.EnableMetrics {
		return nil, nil
	}

	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("echoverse-gateway"),
		),
	)
	if err != nil {
		return nil, err
	}

	if cfg.EnableOTLP {
		endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		opts := []otlptracegrpc.Option{}
		switch {
		case strings.HasPrefix(endpoint, "http://"):
			endpoint = strings.TrimPrefix(endpoint, "http://")
			opts = append(opts, otlptracegrpc.WithInsecure())
		case strings.HasPrefix(endpoint, "https://"):
			endpoint = strings.TrimPrefix(endpoint, "https://")
		default:
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))

		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
		if err != nil {
			return nil, err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		provider.tracerProvider = tp
		provider.shutdownFuncs = append(provider.shutdownFuncs, tp.Shutdown)
	}

	if cfg.EnableMetrics {
		registry := promreg.NewRegistry()
		promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, err
		}
		mp := metric.NewMeterProvider(
			metric.WithReader(promExporter),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		provider.meterProvider = mp
		provider.promExporter = promExporter
		provider.promHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
		provider.shutdownFuncs = append(provider.shutdownFuncs, mp.Shutdown)

		latencyBuckets := []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30}
		httpRequests := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: "echoverse_gateway",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency := promreg.NewHistogramVec(
			promreg.HistogramOpts{
				Namespace: "echoverse_gateway",
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   latencyBuckets,
			},
			[]string{"method", "route", "status"},
		)
		providerRequests := promreg.NewCounterVec(
			promreg.CounterOpts{
				Namespace: "echoverse_gateway",
				Name:      "provider_requests_total",
				Help:      "Total upstream provider calls by outcome.",
			},
			[]string{"provider", "outcome"},
		)
		providerLatency := promreg.NewHistogramVec(
			promreg.HistogramOpts{
				Namespace: "echoverse_gateway",
				Name:      "provider_request_duration_seconds",
				Help:      "Duration of upstream provider calls.",
				Buckets:   latencyBuckets,
			},
			[]string{"provider", "outcome"},
		)
		for _, collector := range []promreg.Collector{httpRequests, httpLatency, providerRequests, providerLatency} {
			if err := registry.Register(collector); err != nil {
				return nil, err
			}
		}
		provider.httpRequestCounter = httpRequests
		provider.httpRequestLatency = httpLatency
		provider.providerRequestCounter = providerRequests
		provider.providerLatency = providerLatency
	}

	return provider, nil
}

func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil || p.promHandler == nil {
		return nil
	}
	return p.promHandler
}

func (p *Provider) TracerProvider() *sdktrace.TracerProvider {
	if p == nil {
		return nil
	}
	return p.tracerProvider
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) RecordHTTPRequest(_ context.Context, method, route string, status int, duration time.Duration) {
	if p == nil {
		return
	}

	statusLabel := strconv.Itoa(status)

	if p.httpRequestCounter != nil {
		p.httpRequestCounter.WithLabelValues(method, route, statusLabel).Inc()
	}
	if p.httpRequestLatency != nil {
		p.httpRequestLatency.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
	}
}

// RecordProviderRequest counts one upstream provider call by outcome.
func (p *Provider) RecordProviderRequest(_ context.Context, provider string, success bool, duration time.Duration) {
	if p == nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "error"
	}

	if p.providerRequestCounter != nil {
		p.providerRequestCounter.WithLabelValues(provider, outcome).Inc()
	}
	if p.providerLatency != nil {
		p.providerLatency.WithLabelValues(provider, outcome).Observe(duration.Seconds())
	}
}
