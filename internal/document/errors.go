package document

import "errors"

// Document errors.
var (
	// ErrBlockNotFound indicates the referenced block is no longer in
	// the document.
	ErrBlockNotFound = errors.New("block not found")
)
