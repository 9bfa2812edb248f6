package matjson

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrorPolicy decides what an import does with an entry that fails to decode.
type ErrorPolicy int

const (
	// FailFast aborts the import on the first bad entry.
	FailFast ErrorPolicy = iota
	// BestEffort skips bad entries and reports them in an *EntryErrors.
	BestEffort
)

func (p ErrorPolicy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fail-fast"
}

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	limits Limits
	policy ErrorPolicy
}

// Option configures a Converter.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer sets the tracer used for conversion spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter sets the meter that owns the entry counter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithLimits overrides the size limits. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithErrorPolicy selects how imports treat bad entries.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(o *options) { o.policy = p }
}

type readConfig struct {
	limits Limits
}

// ReadOption configures ReadContainer, ReadAny and ReadDocument.
type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

type writeConfig struct {
	limits      Limits
	compression Compression
}

// WriteOption configures WriteContainer.
type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

// WithCompression selects the payload codec. The default is CompZSTD.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.compression = comp }
}
