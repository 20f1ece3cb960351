package persistence

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := &FileHeader{
		Magic:      MagicNumber,
		Version:    Version,
		BitWidth:   17,
		RowCount:   123456,
		MinValue:   10,
		MaxValue:   99999,
		SliceCount: 2,
		Checksum:   0xDEADBEEF,
	}

	buf := make([]byte, HeaderSize)
	require.NoError(t, h.Encode(buf))

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderErrors(t *testing.T) {
	valid := &FileHeader{
		Magic:    MagicNumber,
		Version:  Version,
		BitWidth: 8,
		MaxValue: 255,
	}

	tests := []struct {
		name    string
		mutate  func(h *FileHeader)
		wantErr error
	}{
		{
			name:    "bad magic",
			mutate:  func(h *FileHeader) { h.Magic = 0x12345678 },
			wantErr: ErrInvalidMagic,
		},
		{
			name:    "bad version",
			mutate:  func(h *FileHeader) { h.Version = 0x00990000 },
			wantErr: ErrInvalidVersion,
		},
		{
			name:    "zero bit width",
			mutate:  func(h *FileHeader) { h.BitWidth = 0 },
			wantErr: ErrCorruptLayout,
		},
		{
			name:    "bit width too large",
			mutate:  func(h *FileHeader) { h.BitWidth = 65 },
			wantErr: ErrCorruptLayout,
		},
		{
			name: "min exceeds max",
			mutate: func(h *FileHeader) {
				h.MinValue = 100
				h.MaxValue = 10
			},
			wantErr: ErrCorruptLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := *valid
			tt.mutate(&h)

			buf := make([]byte, HeaderSize)
			require.NoError(t, h.Encode(buf))

			_, err := DecodeHeader(buf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeHeader(make([]byte, HeaderSize-1))
		assert.ErrorIs(t, err, ErrCorruptLayout)
	})
}

func TestDirectoryEntryRoundTrip(t *testing.T) {
	e := &DirectoryEntry{
		Kind:        2,
		Cardinality: 4096,
		Offset:      8192,
		Length:      8192,
	}

	buf := make([]byte, EntrySize)
	require.NoError(t, e.Encode(buf))

	got, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, *e, got)

	_, err = DecodeEntry(buf[:EntrySize-1])
	assert.ErrorIs(t, err, ErrCorruptLayout)
}

func TestChecksumWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)

	data := []byte("the quick brown fox jumps over the lazy dog")
	n, err := cw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, int64(len(data)), cw.Written())

	assert.Equal(t, Checksum(data), cw.Sum())
	assert.Equal(t, data, buf.Bytes())
}

func TestVerify(t *testing.T) {
	data := []byte("hello world")
	sum := Checksum(data)

	require.NoError(t, Verify(data, sum))

	err := Verify(data, sum+1)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))

	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, sum+1, mismatch.Expected)
	assert.Equal(t, sum, mismatch.Actual)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, int64(0), AlignUp(0))
	assert.Equal(t, int64(8), AlignUp(1))
	assert.Equal(t, int64(8), AlignUp(8))
	assert.Equal(t, int64(16), AlignUp(9))
	assert.Equal(t, int64(8200), AlignUp(8193))
}
