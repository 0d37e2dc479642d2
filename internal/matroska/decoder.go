package matroska

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Element identifiers for the fixed skeleton the extractor walks:
// EBML header, Segment, Info and the two duration-bearing leaves.
// Identifiers keep their class marker bits, matching how they appear
// on the wire.
const (
	ebmlHeaderID    = 0x1A45DFA3
	segmentID       = 0x18538067
	infoID          = 0x1549A966
	timecodeScaleID = 0x2AD7B1
	durationID      = 0x4489
)

// decoder wraps a buffered forward-only stream and tracks the absolute
// offset consumed so far. Nested element regions are bounded by end
// offsets computed from this position; the decoder never rewinds.
type decoder struct {
	r   *bufio.Reader
	pos int64
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReaderSize(r, 512*1024)}
}

func (d *decoder) readFull(buf []byte) error {
	n, err := io.ReadFull(d.r, buf)
	d.pos += int64(n)
	return err
}

func (d *decoder) discard(n int64) error {
	discarded, err := d.r.Discard(int(n))
	d.pos += int64(discarded)
	return err
}

// readVint decodes one EBML variable-length integer. The number of
// leading zero bits in the first byte determines the total encoded
// width (1 to 8 bytes). Identifier decoding retains the marker bit in
// the value; size decoding strips it. The two modes produce different,
// equally plausible numbers, so the caller must pick explicitly.
func (d *decoder) readVint(retainMarker bool) (uint64, error) {
	start := d.pos
	first := make([]byte, 1)
	if err := d.readFull(first); err != nil {
		return 0, err
	}

	length := 0
	mask := byte(0x80)
	for i := 0; i < 8; i++ {
		if first[0]&mask == mask {
			length = i + 1
			break
		}
		mask >>= 1
	}

	if length == 0 {
		return 0, &FormatError{Offset: start, Reason: "invalid variable-length integer encoding"}
	}

	var value uint64
	if retainMarker {
		value = uint64(first[0])
	} else {
		value = uint64(first[0] & (0xFF >> length))
	}

	rest := make([]byte, length-1)
	if err := d.readFull(rest); err != nil {
		return 0, err
	}
	for _, b := range rest {
		value = value<<8 | uint64(b)
	}

	return value, nil
}

// readElementID reads the type tag of the next element, marker bits
// included.
func (d *decoder) readElementID() (uint64, error) {
	return d.readVint(true)
}

// readElementSize reads the declared payload size of the next element.
func (d *decoder) readElementSize() (uint64, error) {
	return d.readVint(false)
}

// bytesToUint folds up to 8 big-endian bytes into an unsigned integer.
// Fields like TimecodeScale are commonly stored in fewer than 8 bytes.
func bytesToUint(buf []byte) uint64 {
	var value uint64
	for _, b := range buf {
		value = value<<8 | uint64(b)
	}

	return value
}

// bytesToFloat interprets a big-endian IEEE 754 payload. Only the two
// IEEE widths are recognised; any other width decodes to 0.0. A
// Duration stored as a plain integer (legal, but not produced by
// common muxers) is therefore silently read as zero.
func bytesToFloat(buf []byte) float64 {
	switch len(buf) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf)))
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(buf))
	default:
		return 0
	}
}
