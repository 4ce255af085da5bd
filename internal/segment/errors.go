package segment

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when the segment directory cannot be
	// enumerated.
	ErrStoreUnavailable = errors.New("segment store unavailable")

	// ErrCorruptRecord matches every *CorruptRecordError.
	ErrCorruptRecord = errors.New("corrupt segment record")

	// ErrPartialDelete matches every *PartialDeleteError.
	ErrPartialDelete = errors.New("partial segment delete")
)

// CorruptRecordError reports a metadata record that cannot be turned into
// a Record.
type CorruptRecordError struct {
	ID     string
	Reason string
	Err    error
}

func (e *CorruptRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("segment %s: corrupt record: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("segment %s: corrupt record: %s", e.ID, e.Reason)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }

func (e *CorruptRecordError) Is(target error) bool { return target == ErrCorruptRecord }

// PartialDeleteError reports a deletion that removed the media payload but
// left the metadata record behind. Calling Delete again finishes the job.
type PartialDeleteError struct {
	ID           string
	MediaPath    string
	MetadataPath string
	Err          error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("segment %s: media %s removed but metadata %s remains: %v",
		e.ID, e.MediaPath, e.MetadataPath, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }

func (e *PartialDeleteError) Is(target error) bool { return target == ErrPartialDelete }
