package service

import "errors"

var (
	// ErrNotFound covers absent parents, memberships and messages, and
	// messages already tombstoned. Existence is always reported before
	// authorization, never the reverse.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the membership resolved but lacks permission for
	// the requested mutation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUploadFailed rejects the whole request; no partial message persists.
	ErrUploadFailed = errors.New("upload failed")
	ErrValidation   = errors.New("validation failed")
)
