// Provides common docstore error definitions.
package store_errors

import "errors"

var (
	ErrBadDocumentKey  = errors.New("docstore: bad document key")
	ErrInvalidMutation = errors.New("docstore: mutation is invalid")
	ErrBadFieldValue   = errors.New("docstore: unsupported field value")

	ErrOverlayUnknown    = errors.New("docstore: no overlay for the document")
	ErrBadOverlayRecord  = errors.New("docstore: bad overlay record")
	ErrBadMutationRecord = errors.New("docstore: bad mutation record")
	ErrBadFieldsRecord   = errors.New("docstore: bad fields record")

	ErrClosed = errors.New("docstore: no store open")
)
