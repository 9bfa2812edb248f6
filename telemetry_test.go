package matjson

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type recordingMeter struct {
	noop.Meter
	counter *recordingCounter
}

func (m recordingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return m.counter, nil
}

type recordingCounter struct {
	noop.Int64Counter
	mu     sync.Mutex
	totals map[string]int64
}

func (c *recordingCounter) Add(_ context.Context, incr int64, opts ...metric.AddOption) {
	attrs := metric.NewAddConfig(opts).Attributes()
	dir, _ := attrs.Value("direction")
	cat, _ := attrs.Value("category")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals[dir.AsString()+"/"+cat.AsString()] += incr
}

func TestEntryCounter(t *testing.T) {
	ctx := context.Background()
	counter := &recordingCounter{totals: map[string]int64{}}
	conv := newConverter(t, DefaultConfig(), WithMeter(recordingMeter{counter: counter}))

	doc, err := conv.GeometryToDocument(ctx, detector(t))
	require.NoError(t, err)
	_, err = conv.DocumentToMaps(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{
		"export/sensitive":    2,
		"export/approach":     1,
		"export/representing": 1,
		"export/boundary":     1,
		"export/volume":       1,
		"import/sensitive":    2,
		"import/approach":     1,
		"import/representing": 1,
		"import/boundary":     1,
		"import/volume":       1,
	}, counter.totals)
}
