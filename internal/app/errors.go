package app

import "errors"

var (
	// ErrNotFound indicates a missing entity (or one hidden from the caller).
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates a malformed or incomplete request.
	ErrValidation = errors.New("invalid request")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailAlreadyExists indicates a duplicate registration.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrFileNotReady indicates a file whose text extraction has not finished.
	ErrFileNotReady = errors.New("file not ready")
	// ErrUnsupportedFileType indicates an extension outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
