package matjson

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/logicossoftware/go-matjson"

const (
	directionExport = "export"
	directionImport = "import"
)

// Entry categories, used as the counter's category attribute and in log records.
const (
	categorySensitive    = "sensitive"
	categoryApproach     = "approach"
	categoryRepresenting = "representing"
	categoryBoundary     = "boundary"
	categoryVolume       = "volume"
)

type telemetry struct {
	tracer  trace.Tracer
	entries metric.Int64Counter
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (telemetry, error) {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	entries, err := meter.Int64Counter("matjson.entries",
		metric.WithDescription("Material entries converted"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return telemetry{}, err
	}
	return telemetry{tracer: tracer, entries: entries}, nil
}

func (t telemetry) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "matjson."+name)
}

// end records err on span, if any, and ends it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t telemetry) count(ctx context.Context, direction, category string, n int) {
	if n == 0 {
		return
	}
	t.entries.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("category", category),
	))
}

// countTree reports every grid in tree under its category.
func (t telemetry) countTree(ctx context.Context, direction string, tree *Tree) {
	var sen, app, rep, bnd, vol int
	for _, v := range tree.Volumes {
		bnd += len(v.Boundaries)
		if v.Material != nil {
			vol++
		}
		for _, l := range v.Layers {
			sen += len(l.Sensitives)
			app += len(l.Approaches)
			if l.Representing != nil {
				rep++
			}
		}
	}
	t.count(ctx, direction, categorySensitive, sen)
	t.count(ctx, direction, categoryApproach, app)
	t.count(ctx, direction, categoryRepresenting, rep)
	t.count(ctx, direction, categoryBoundary, bnd)
	t.count(ctx, direction, categoryVolume, vol)
}
