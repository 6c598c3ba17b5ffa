package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUploadFailed       = errors.New("upload failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)
