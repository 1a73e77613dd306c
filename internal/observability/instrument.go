// Package observability configures structured logging, OpenTelemetry log export,
// and trace context propagation for the whole process.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

const instrumentationName = "github.com/florianilch/modelcatalog"

// Log exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// Options configures Instrument.
type Options struct {
	Level  slog.Level
	Format string // text or json

	// Exporter selects where OpenTelemetry log records go in addition to stdout.
	Exporter string
	// Endpoint overrides the OTLP collector address (host:port).
	Endpoint string

	ServiceName    string
	ServiceVersion string

	// Writer receives human-readable logs. Defaults to os.Stdout.
	Writer io.Writer
}

// Instrument installs the default slog logger and the global W3C propagator.
// When an exporter is configured, records are also sent through an OpenTelemetry
// LoggerProvider; the returned function flushes and stops it.
func Instrument(ctx context.Context, opts Options) (func(context.Context) error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	stdout, err := newStdoutHandler(w, opts.Level, opts.Format)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx, opts.Exporter, opts.Endpoint)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var handler slog.Handler = newTraceContextHandler(stdout)
	shutdown := func(context.Context) error { return nil }

	if exporter != nil {
		provider := sdklog.NewLoggerProvider(
			sdklog.WithResource(newResource(opts.ServiceName, opts.ServiceVersion)),
			sdklog.WithProcessor(minsev.NewLogProcessor(
				sdklog.NewBatchProcessor(exporter),
				minSeverity(opts.Level),
			)),
		)
		global.SetLoggerProvider(provider)

		handler = newFanoutHandler(handler, otelslog.NewHandler(instrumentationName,
			otelslog.WithLoggerProvider(provider),
			otelslog.WithVersion(opts.ServiceVersion),
		))
		shutdown = func(ctx context.Context) error {
			if err := provider.Shutdown(ctx); err != nil {
				return fmt.Errorf("log provider shutdown: %w", err)
			}
			return nil
		}
	}

	slog.SetDefault(slog.New(handler))

	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newExporter creates the OpenTelemetry log exporter, or nil for ExporterNone.
func newExporter(ctx context.Context, name, endpoint string) (sdklog.Exporter, error) {
	switch strings.ToLower(name) {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		exp, err := stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("stdout log exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLPGRPC:
		var opts []otlploggrpc.Option
		if endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpoint(endpoint), otlploggrpc.WithInsecure())
		}
		exp, err := otlploggrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp grpc log exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLPHTTP:
		var opts []otlploghttp.Option
		if endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpoint(endpoint), otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp http log exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported log exporter %q (expected: none, stdout, otlp-grpc, otlp-http)", name)
	}
}

func newResource(name, version string) *resource.Resource {
	if name == "" {
		name = "modelcatalog"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if version != "" {
		attrs = append(attrs, attribute.String("service.version", version))
	}
	return resource.NewSchemaless(attrs...)
}

// minSeverity maps the slog level to the lowest exported OpenTelemetry severity.
func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
