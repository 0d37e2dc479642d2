package matroska

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReadElementSize_StripsMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []byte
		expected uint64
		consumed int64
	}{
		{"one byte minimum", []byte{0x80}, 0, 1},
		{"one byte value", []byte{0x81}, 1, 1},
		{"one byte maximum", []byte{0xFF}, 127, 1},
		{"two bytes", []byte{0x40, 0x01}, 1, 2},
		{"three bytes", []byte{0x20, 0x00, 0x01}, 1, 3},
		{"four bytes", []byte{0x10, 0x00, 0x00, 0x01}, 1, 4},
		{"eight bytes", []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}, 2, 8},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDecoder(bytes.NewReader(tt.input))
			value, err := d.readElementSize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
			assert.Equal(t, tt.consumed, d.pos, "decoder should consume exactly the encoded length")
		})
	}
}

// Every valid single-byte size encoding is the marker byte with the
// value in the low seven bits.
func Test_ReadElementSize_AllOneByteEncodings(t *testing.T) {
	t.Parallel()

	for n := 0; n < 128; n++ {
		d := newDecoder(bytes.NewReader([]byte{0x80 | byte(n)}))
		value, err := d.readElementSize()
		require.NoError(t, err)
		assert.Equal(t, uint64(n), value)
		assert.Equal(t, int64(1), d.pos)
	}
}

// Identifier decoding keeps the marker bits in the value; size decoding
// of the same bytes would produce a different number.
func Test_ReadElementID_RetainsMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []byte
		expected uint64
	}{
		{"one byte", []byte{0x1A}, 0x1A},
		{"two bytes", []byte{0x40, 0x00}, 0x4000},
		{"three bytes", []byte{0x20, 0x00, 0x00}, 0x200000},
		{"four bytes", []byte{0x1A, 0x45, 0xDF, 0xA3}, 0x1A45DFA3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDecoder(bytes.NewReader(tt.input))
			value, err := d.readElementID()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
			assert.Equal(t, int64(len(tt.input)), d.pos)
		})
	}
}

func Test_ReadVint_NoMarkerBit_IsFormatError(t *testing.T) {
	t.Parallel()

	d := newDecoder(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := d.readElementSize()

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, int64(0), formatErr.Offset)
}

func Test_ReadVint_TruncatedTail_PropagatesIOError(t *testing.T) {
	t.Parallel()

	// A 3-byte encoding with only one trailing byte present.
	d := newDecoder(bytes.NewReader([]byte{0x20, 0x00}))
	_, err := d.readElementSize()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var formatErr *FormatError
	assert.False(t, errors.As(err, &formatErr), "short reads must surface as I/O errors, not format errors")
}

func Test_BytesToUint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), bytesToUint(nil))
	assert.Equal(t, uint64(0x0F4240), bytesToUint([]byte{0x0F, 0x42, 0x40}))
	assert.Equal(t, uint64(0x0102030405060708), bytesToUint([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
}

func Test_BytesToFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 120.0, bytesToFloat([]byte{0x42, 0xF0, 0x00, 0x00}))
	assert.Equal(t, 7384000.0, bytesToFloat([]byte{0x41, 0x5C, 0x2A, 0xF0, 0x00, 0x00, 0x00, 0x00}))

	// Recognised widths are 4 and 8 only; everything else is zero.
	assert.Equal(t, 0.0, bytesToFloat([]byte{0x01, 0x02}))
	assert.Equal(t, 0.0, bytesToFloat([]byte{0x01, 0x02, 0x03, 0x04, 0x05}))
}
