package matroska

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	magicBytes         = []byte{0x1A, 0x45, 0xDF, 0xA3}
	segmentIDBytes     = []byte{0x18, 0x53, 0x80, 0x67}
	infoIDBytes        = []byte{0x15, 0x49, 0xA9, 0x66}
	timecodeScaleBytes = []byte{0x2A, 0xD7, 0xB1}
	durationIDBytes    = []byte{0x44, 0x89}

	// IDs the walker does not recognise and must skip by size: the
	// EBML Void element and the Matroska DateUTC element.
	voidIDBytes    = []byte{0xEC}
	dateUTCIDBytes = []byte{0x44, 0x61}

	// A 1_000_000 scale (one tick per millisecond) and the durations
	// float32(120.0) and float64(7_384_000.0).
	scaleOneMs    = []byte{0x0F, 0x42, 0x40}
	duration120f4 = []byte{0x42, 0xF0, 0x00, 0x00}
	duration7m38  = []byte{0x41, 0x5C, 0x2A, 0xF0, 0x00, 0x00, 0x00, 0x00}
)

// element renders an (id, size, payload) triple with a single-byte size
// encoding; fixture payloads stay well under 127 bytes.
func element(id []byte, payload []byte) []byte {
	if len(payload) >= 127 {
		panic("fixture payload too large for single-byte size encoding")
	}

	out := append([]byte{}, id...)
	out = append(out, 0x80|byte(len(payload)))
	return append(out, payload...)
}

// containerFile assembles a full synthetic container around the given
// segment payload and writes it to a temporary file.
func containerFile(t *testing.T, segmentPayload []byte) string {
	headerBody := []byte{0x01, 0x02, 0x03} // opaque, skipped by size

	data := append([]byte{}, magicBytes...)
	data = append(data, 0x80|byte(len(headerBody)))
	data = append(data, headerBody...)
	data = append(data, segmentIDBytes...)
	data = append(data, 0x80|byte(len(segmentPayload)))
	data = append(data, segmentPayload...)

	return fixtureFile(t, data)
}

func fixtureFile(t *testing.T, data []byte) string {
	path := filepath.Join(t.TempDir(), "fixture.mkv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func Test_Extract_Float32Duration(t *testing.T) {
	t.Parallel()

	info := append(element(timecodeScaleBytes, scaleOneMs), element(durationIDBytes, duration120f4)...)
	path := containerFile(t, element(infoIDBytes, info))

	meta, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), meta.TimecodeScale)
	assert.Equal(t, 120.0, meta.Duration)
	assert.InDelta(t, 0.12, meta.DurationSeconds, 1e-9)
}

func Test_Extract_Float64Duration(t *testing.T) {
	t.Parallel()

	info := append(element(timecodeScaleBytes, scaleOneMs), element(durationIDBytes, duration7m38)...)
	path := containerFile(t, element(infoIDBytes, info))

	meta, err := Extract(path)
	require.NoError(t, err)
	assert.InDelta(t, 7384.0, meta.DurationSeconds, 1e-6)
}

// Elements the walker does not recognise must be skipped by exactly
// their declared size, in both the segment and info scans, leaving the
// stream positioned at the next sibling.
func Test_Extract_SkipsUnknownElements(t *testing.T) {
	t.Parallel()

	info := element(dateUTCIDBytes, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	info = append(info, element(timecodeScaleBytes, scaleOneMs)...)
	info = append(info, element(dateUTCIDBytes, []byte{0x01})...)
	info = append(info, element(durationIDBytes, duration120f4)...)

	segment := element(voidIDBytes, []byte{0x00, 0x00, 0x00, 0x00, 0x00})
	segment = append(segment, element(infoIDBytes, info)...)

	meta, err := Extract(containerFile(t, segment))
	require.NoError(t, err)
	assert.InDelta(t, 0.12, meta.DurationSeconds, 1e-9)
}

// Once both values are captured the walk stops; bytes beyond them are
// never touched, even if unparseable.
func Test_Extract_StopsEarlyOnceBothValuesFound(t *testing.T) {
	t.Parallel()

	info := append(element(timecodeScaleBytes, scaleOneMs), element(durationIDBytes, duration120f4)...)
	info = append(info, 0x00, 0x00, 0x00) // invalid encoding, must stay unread

	meta, err := Extract(containerFile(t, element(infoIDBytes, info)))
	require.NoError(t, err)
	assert.InDelta(t, 0.12, meta.DurationSeconds, 1e-9)
}

func Test_Extract_MissingDuration(t *testing.T) {
	t.Parallel()

	info := element(timecodeScaleBytes, scaleOneMs)
	_, err := Extract(containerFile(t, element(infoIDBytes, info)))

	var incomplete *IncompleteMetadataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "duration", incomplete.Missing)
}

func Test_Extract_MissingTimecodeScale(t *testing.T) {
	t.Parallel()

	info := element(durationIDBytes, duration120f4)
	_, err := Extract(containerFile(t, element(infoIDBytes, info)))

	var incomplete *IncompleteMetadataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "timecode scale", incomplete.Missing)
}

func Test_Extract_BadMagic(t *testing.T) {
	t.Parallel()

	path := fixtureFile(t, []byte{0x00, 0x00, 0x00, 0x01, 0x80})
	_, err := Extract(path)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, int64(0), formatErr.Offset)
	assert.Equal(t, uint64(ebmlHeaderID), formatErr.Expected)
}

func Test_Extract_MissingSegment(t *testing.T) {
	t.Parallel()

	data := append([]byte{}, magicBytes...)
	data = append(data, 0x80)
	// A Void element where the Segment is required.
	data = append(data, element(voidIDBytes, []byte{0})...)

	_, err := Extract(fixtureFile(t, data))

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, uint64(segmentID), formatErr.Expected)
}

func Test_Extract_TruncatedFile(t *testing.T) {
	t.Parallel()

	info := append(element(timecodeScaleBytes, scaleOneMs), element(durationIDBytes, duration120f4)...)
	full := element(infoIDBytes, info)

	data := append([]byte{}, magicBytes...)
	data = append(data, 0x80)
	data = append(data, segmentIDBytes...)
	data = append(data, 0x80|byte(len(full)))
	data = append(data, full[:7]...) // declared size exceeds actual bytes

	_, err := Extract(fixtureFile(t, data))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// Known limitation, preserved deliberately: a Duration stored in a
// width other than 4 or 8 bytes decodes as 0.0 rather than failing.
func Test_Extract_NonIEEEDurationWidthReadsAsZero(t *testing.T) {
	t.Parallel()

	info := append(element(timecodeScaleBytes, scaleOneMs), element(durationIDBytes, []byte{0x01, 0x02})...)
	meta, err := Extract(containerFile(t, element(infoIDBytes, info)))

	require.NoError(t, err)
	assert.Equal(t, 0.0, meta.Duration)
	assert.Equal(t, 0.0, meta.DurationSeconds)
}

func Test_Extract_FileMissing(t *testing.T) {
	t.Parallel()

	_, err := Extract(filepath.Join(t.TempDir(), "nope.mkv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
