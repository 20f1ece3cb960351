package rangebitmap

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangebitmap/persistence"
	"github.com/hupe1980/rangebitmap/testutil"
)

func serializeBitmap(t *testing.T, rb *RangeBitmap) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := rb.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestSerializeRoundTrip(t *testing.T) {
	const (
		rows = BandRows + 4321
		min  = 10
		max  = 5000
	)

	rng := testutil.NewRNG(23)
	values := make([]uint64, rows)
	rng.FillUniformRange(values, min, max)

	rb := buildBitmap(t, min, max, values)
	data := serializeBitmap(t, rb)

	loaded, err := FromBytes(data)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, rb.Rows(), loaded.Rows())
	assert.Equal(t, rb.Min(), loaded.Min())
	assert.Equal(t, rb.Max(), loaded.Max())
	assert.Equal(t, rb.BitWidth(), loaded.BitWidth())
	assert.Equal(t, rb.Stats(), loaded.Stats())

	for _, code := range []uint64{min, 123, 2500, max} {
		want, err := rb.Lte(code)
		require.NoError(t, err)
		got, err := loaded.Lte(code)
		require.NoError(t, err)
		assert.True(t, want.Equals(got), "lte %d", code)

		want, err = rb.Eq(code)
		require.NoError(t, err)
		got, err = loaded.Eq(code)
		require.NoError(t, err)
		assert.True(t, want.Equals(got), "eq %d", code)

		wantN, err := rb.GtCardinality(code)
		require.NoError(t, err)
		gotN, err := loaded.GtCardinality(code)
		require.NoError(t, err)
		assert.Equal(t, wantN, gotN, "gt cardinality %d", code)
	}
}

func TestSerializeEmptyBitmap(t *testing.T) {
	b, err := NewBuilder(0, 100)
	require.NoError(t, err)
	rb, err := b.Seal()
	require.NoError(t, err)

	data := serializeBitmap(t, rb)
	assert.Equal(t, persistence.HeaderSize, len(data))

	loaded, err := FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), loaded.Rows())

	rows, err := loaded.Gte(0)
	require.NoError(t, err)
	assert.True(t, rows.IsEmpty())
}

func TestFromBytesCorruption(t *testing.T) {
	rb := buildBitmap(t, 0, 1000, []uint64{5, 900, 0, 1000, 432})
	data := serializeBitmap(t, rb)

	t.Run("truncated header", func(t *testing.T) {
		_, err := FromBytes(data[:persistence.HeaderSize-1])
		assert.ErrorIs(t, err, persistence.ErrCorruptLayout)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xFF
		_, err := FromBytes(bad)
		assert.ErrorIs(t, err, persistence.ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] ^= 0xFF
		_, err := FromBytes(bad)
		assert.ErrorIs(t, err, persistence.ErrInvalidVersion)
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0x01
		_, err := FromBytes(bad)
		require.Error(t, err)
		assert.True(t, persistence.IsChecksumMismatch(err))
	})

	t.Run("flipped directory byte", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[persistence.HeaderSize+3] ^= 0x40
		_, err := FromBytes(bad)
		require.Error(t, err)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := FromBytes(data[:len(data)-8])
		require.Error(t, err)
	})
}

func TestWriteFileAndOpen(t *testing.T) {
	rng := testutil.NewRNG(29)
	values := make([]uint64, 20000)
	rng.FillUniformRange(values, 1, 65535)

	rb := buildBitmap(t, 1, 65535, values)
	ref := testutil.NewReference(values)

	path := filepath.Join(t.TempDir(), "index.rbm")
	require.NoError(t, rb.WriteFile(path))

	loaded, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, rb.Rows(), loaded.Rows())

	for _, code := range []uint64{1, 333, 40000, 65535} {
		got, err := loaded.Gte(code)
		require.NoError(t, err)
		assert.Equal(t, testutil.Rows32(ref.Gte(code)), got.ToArray(), "gte %d", code)
	}

	got, err := loaded.BetweenCardinality(100, 50000)
	require.NoError(t, err)
	assert.Equal(t, uint64(ref.Between(100, 50000).Count()), got)

	require.NoError(t, loaded.Close())

	_, err = loaded.Eq(1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.rbm"))
	assert.Error(t, err)
}
