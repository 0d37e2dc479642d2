// Package matroska extracts the playback duration of a Matroska/WebM
// container directly from its bytes, without a media-decoding engine.
// It understands just enough EBML to walk the fixed skeleton
// EBML header -> Segment -> Info and read the TimecodeScale and
// Duration leaves; every other element is skipped by its declared size.
package matroska

import (
	"io"
	"os"
)

// Metadata is the result of a successful extraction. TimecodeScale is
// the number of nanoseconds per duration tick, Duration the raw tick
// count exactly as stored, and DurationSeconds the derived real-time
// duration. The record is immutable once returned and holds no open
// resources.
type Metadata struct {
	TimecodeScale   uint64
	Duration        float64
	DurationSeconds float64
}

// Extract opens the file at the given path read-only and scans it for
// the duration metadata. The file handle never outlives the call, and
// Extract is safe to call concurrently for distinct files.
//
// Failures are reported as *FormatError (not a usable container),
// *IncompleteMetadataError (valid container, duration fields absent)
// or the underlying I/O error, verbatim. There is no partial result.
func Extract(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return extract(file)
}

func extract(r io.Reader) (*Metadata, error) {
	d := newDecoder(r)

	magic := make([]byte, 4)
	if err := d.readFull(magic); err != nil {
		return nil, err
	}
	if found := bytesToUint(magic); found != ebmlHeaderID {
		return nil, &FormatError{Offset: 0, Reason: "not an EBML container", Expected: ebmlHeaderID, Found: found}
	}

	// The EBML header body only describes the document type; skip it.
	headerSize, err := d.readElementSize()
	if err != nil {
		return nil, err
	}
	if err := d.discard(int64(headerSize)); err != nil {
		return nil, err
	}

	segmentOffset := d.pos
	segment, err := d.readElementID()
	if err != nil {
		return nil, err
	}
	if segment != segmentID {
		return nil, &FormatError{Offset: segmentOffset, Reason: "missing segment element", Expected: segmentID, Found: segment}
	}

	segmentSize, err := d.readElementSize()
	if err != nil {
		return nil, err
	}
	segmentEnd := d.pos + int64(segmentSize)

	var (
		timecodeScale *uint64
		duration      *float64
	)

	for d.pos < segmentEnd {
		id, err := d.readElementID()
		if err != nil {
			return nil, err
		}
		size, err := d.readElementSize()
		if err != nil {
			return nil, err
		}

		if id != infoID {
			if err := d.discard(int64(size)); err != nil {
				return nil, err
			}
			continue
		}

		infoEnd := d.pos + int64(size)
		for d.pos < infoEnd {
			childID, err := d.readElementID()
			if err != nil {
				return nil, err
			}
			childSize, err := d.readElementSize()
			if err != nil {
				return nil, err
			}

			switch childID {
			case timecodeScaleID:
				if childSize > 8 {
					return nil, &FormatError{Offset: d.pos, Reason: "timecode scale wider than 8 bytes"}
				}
				buf := make([]byte, childSize)
				if err := d.readFull(buf); err != nil {
					return nil, err
				}
				scale := bytesToUint(buf)
				timecodeScale = &scale
			case durationID:
				// Non-IEEE widths still count as "found", with value
				// zero; see bytesToFloat.
				var value float64
				if childSize == 4 || childSize == 8 {
					buf := make([]byte, childSize)
					if err := d.readFull(buf); err != nil {
						return nil, err
					}
					value = bytesToFloat(buf)
				} else if err := d.discard(int64(childSize)); err != nil {
					return nil, err
				}
				duration = &value
			default:
				if err := d.discard(int64(childSize)); err != nil {
					return nil, err
				}
			}

			if timecodeScale != nil && duration != nil {
				break
			}
		}

		if timecodeScale != nil && duration != nil {
			break
		}
	}

	if timecodeScale == nil {
		return nil, &IncompleteMetadataError{Missing: "timecode scale"}
	}
	if duration == nil {
		return nil, &IncompleteMetadataError{Missing: "duration"}
	}

	return &Metadata{
		TimecodeScale:   *timecodeScale,
		Duration:        *duration,
		DurationSeconds: *duration * float64(*timecodeScale) / 1_000_000_000.0,
	}, nil
}
