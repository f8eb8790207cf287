// Package common defines sentinel errors shared by the storage, autosave,
// archive and export layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrBlobCorrupt        = errors.New("blob digest mismatch")

	// Document validation errors.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrRecordNotFound     = errors.New("survey record not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrInvalidQAStatus    = errors.New("invalid qa status")

	// Export errors.
	ErrArchiveCompile    = errors.New("archive compilation failed")
	ErrDeliveryExhausted = errors.New("all delivery channels failed")
	ErrNothingToExport   = errors.New("project has no survey records")
)
