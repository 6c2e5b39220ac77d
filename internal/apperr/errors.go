package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnknownField = errors.New("unknown metadata field")

	ErrNoSelection          = errors.New("no selection")
	ErrInvalidSelectionType = errors.New("invalid selection type")
	ErrExtraction           = errors.New("extraction failed")
	ErrRasterization        = errors.New("rasterization failed")

	ErrMissingCredential = errors.New("missing credential")
	ErrRemote            = errors.New("remote error")
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedResponse = errors.New("malformed response")

	ErrUnknownRequest = errors.New("unknown request type")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidState   = errors.New("invalid session state")
)
