package archive

import "errors"

// Sentinel errors surfaced by Open and Writer. Callers match them with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrUnreadableArchive = errors.New("unreadable archive")
	ErrWriteFailed       = errors.New("write failed")
)
