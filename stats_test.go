package rangebitmap

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangebitmap/testutil"
)

func TestStats(t *testing.T) {
	rng := testutil.NewRNG(41)
	values := make([]uint64, BandRows+99)
	rng.FillUniformRange(values, 0, 1023)

	rb := buildBitmap(t, 0, 1023, values)
	st := rb.Stats()

	assert.Equal(t, uint64(len(values)), st.Rows)
	assert.Equal(t, uint64(0), st.MinValue)
	assert.Equal(t, uint64(1023), st.MaxValue)
	assert.Equal(t, 10, st.BitWidth)
	assert.Equal(t, 2, st.Slices)
	assert.Equal(t, st.Containers,
		st.ArrayContainers+st.BitsetContainers+st.RunContainers)
	assert.Positive(t, st.PayloadBytes)

	// A full uniform band populates every bit-plane.
	assert.GreaterOrEqual(t, st.Containers, st.BitWidth)
}

func TestStatsJSON(t *testing.T) {
	rb := buildBitmap(t, 1, 9, []uint64{5, 1, 9, 3, 7})

	data, err := json.Marshal(rb.Stats())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 5, decoded["rows"])
	assert.EqualValues(t, 4, decoded["bit_width"])
	assert.Contains(t, decoded, "array_containers")

	assert.Contains(t, rb.Stats().String(), "rows=5")
}
