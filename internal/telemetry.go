// Package internal contains the shared telemetry used across the library.
package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/FerroO2000/ringbuf"

var logLevel = new(slog.LevelVar)

// SetLogLevel sets the minimum level of the logs emitted by every telemetry.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

var consoleHandler = newConsoleHandler(os.Stderr)

func newConsoleHandler(out *os.File) slog.Handler {
	noColor := !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd())

	var w io.Writer = out
	if !noColor {
		w = colorable.NewColorable(out)
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

// Telemetry groups the logger, the meter and the tracer of a component.
type Telemetry struct {
	logger *slog.Logger
	meter  metric.Meter
	tracer trace.Tracer

	prefix string
}

// NewTelemetry returns the telemetry for the component of the given kind
// (e.g. "bridge", "serial") and name.
func NewTelemetry(kind, name string) *Telemetry {
	handler := &fanoutHandler{
		handlers: []slog.Handler{
			consoleHandler,
			otelslog.NewHandler(scopeName),
		},
	}

	return &Telemetry{
		logger: slog.New(handler).With("kind", kind, "name", name),
		meter:  otel.Meter(scopeName),
		tracer: otel.Tracer(scopeName),

		prefix: kind + "_" + name + "_",
	}
}

// LogDebug logs a debug message.
func (t *Telemetry) LogDebug(msg string, args ...any) {
	t.logger.Debug(msg, args...)
}

// LogInfo logs an info message.
func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.logger.Info(msg, args...)
}

// LogWarn logs a warning message.
func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.logger.Warn(msg, args...)
}

// LogError logs an error message.
func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.logger.Error(msg, append([]any{tint.Err(err)}, args...)...)
}

func (t *Telemetry) logMetricErr(name string, err error) {
	if err != nil {
		t.LogError("failed to create metric", err, "metric", name)
	}
}

// NewCounter registers an observable counter whose value is read from fn.
func (t *Telemetry) NewCounter(name string, fn func() int64) {
	_, err := t.meter.Int64ObservableCounter(t.prefix+name,
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)
	t.logMetricErr(name, err)
}

// NewUpDownCounter registers an observable up/down counter whose value is read from fn.
func (t *Telemetry) NewUpDownCounter(name string, fn func() int64) {
	_, err := t.meter.Int64ObservableUpDownCounter(t.prefix+name,
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)
	t.logMetricErr(name, err)
}

// NewGauge registers an observable gauge whose value is read from fn.
func (t *Telemetry) NewGauge(name string, fn func() int64) {
	_, err := t.meter.Int64ObservableGauge(t.prefix+name,
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)
	t.logMetricErr(name, err)
}

// NewHistogram returns a new histogram.
func (t *Telemetry) NewHistogram(name string) metric.Int64Histogram {
	hist, err := t.meter.Int64Histogram(t.prefix + name)
	t.logMetricErr(name, err)

	return hist
}

// NewTrace starts a new span.
func (t *Telemetry) NewTrace(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName)
}

// fanoutHandler forwards each record to every handler enabled for its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}

		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithAttrs(attrs))
	}
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithGroup(name))
	}
	return &fanoutHandler{handlers: handlers}
}
