package matroska

import "fmt"

type (
	// FormatError indicates the file is not a usable Matroska/WebM
	// container: bad EBML magic, a missing Segment element, or a
	// corrupt variable-length integer. The offset records where in
	// the stream decoding gave up.
	FormatError struct {
		Offset int64
		Reason string

		// Expected/Found carry the element identifiers involved when
		// the failure was an identifier mismatch; both are zero for
		// encoding-level failures.
		Expected uint64
		Found    uint64
	}

	// IncompleteMetadataError indicates a structurally valid container
	// whose Info region was exhausted before both duration fields were
	// located. Callers can treat this as "unknown duration" rather than
	// a corrupt file.
	IncompleteMetadataError struct {
		Missing string
	}
)

func (err *FormatError) Error() string {
	if err.Expected != 0 {
		return fmt.Sprintf("invalid container at offset %d: %s (expected element 0x%X, found 0x%X)", err.Offset, err.Reason, err.Expected, err.Found)
	}

	return fmt.Sprintf("invalid container at offset %d: %s", err.Offset, err.Reason)
}

func (err *IncompleteMetadataError) Error() string {
	return fmt.Sprintf("container metadata is missing %s", err.Missing)
}
