package rangebitmap

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	metrics := &BasicMetricsCollector{}

	b, err := NewBuilder(0, 100, WithMetrics(metrics))
	require.NoError(t, err)

	require.NoError(t, b.AppendMany([]uint64{1, 2, 3}))
	require.Error(t, b.Append(200))
	assert.Equal(t, int64(4), metrics.AppendCount.Load())
	assert.Equal(t, int64(1), metrics.AppendErrors.Load())

	rb, err := b.Seal()
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.SealCount.Load())
	assert.Equal(t, int64(3), metrics.SealedRows.Load())

	_, err = rb.Eq(2)
	require.NoError(t, err)
	_, err = rb.Eq(200)
	require.Error(t, err)
	assert.Equal(t, int64(2), metrics.QueryCount.Load())
	assert.Equal(t, int64(1), metrics.QueryErrors.Load())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	b, err := NewBuilder(0, 10, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, b.Append(5))

	rb, err := b.Seal()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "range bitmap sealed")

	_, err = rb.Lte(5)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query completed")
	assert.Contains(t, buf.String(), "op=lte")
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	b, err := NewBuilder(0, 10, WithLogger(nil), WithMetrics(nil))
	require.NoError(t, err)
	require.NoError(t, b.Append(1))

	rb, err := b.Seal()
	require.NoError(t, err)

	rows, err := rb.Eq(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rows.Cardinality())
}
