package errors

import (
	"fmt"
)

// Error types for specific error conditions.
type (
	// ManifestFormatError is returned when a manifest container cannot be opened or decoded.
	ManifestFormatError struct {
		Path   string
		Reason string
		Err    error
	}

	// UnknownGameError is returned when a manifest names a game missing from the game id table.
	UnknownGameError struct {
		GameName string
	}

	// ResolveError is returned when a download location cannot be obtained for an entry.
	ResolveError struct {
		FileName string
		Err      error
	}

	// TransferError is returned for any transport level failure of a transfer.
	TransferError struct {
		URL        string
		Offset     int64
		StatusCode int
		Err        error
	}

	// IntegrityExhaustedError is returned when a file still mismatches its digest
	// after the retry policy ran out of attempts.
	IntegrityExhaustedError struct {
		FileName string
		Attempts int
	}
)

// NewManifestFormatError creates a new ManifestFormatError.
func NewManifestFormatError(path, reason string, err error) error {
	return &ManifestFormatError{Path: path, Reason: reason, Err: err}
}

// Error implements the error interface for ManifestFormatError.
func (e *ManifestFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v %s: %s", ErrManifestFormat, e.Path, e.Reason)
	}
	return fmt.Sprintf("%v %s: %s: %v", ErrManifestFormat, e.Path, e.Reason, e.Err)
}

// Unwrap returns the underlying error for ManifestFormatError.
func (e *ManifestFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrManifestFormat}
	}
	return []error{ErrManifestFormat, e.Err}
}

// NewUnknownGameError creates a new UnknownGameError.
func NewUnknownGameError(gameName string) error {
	return &UnknownGameError{GameName: gameName}
}

// Error implements the error interface for UnknownGameError.
func (e *UnknownGameError) Error() string {
	return fmt.Sprintf("%v %q: add it to the game id table", ErrUnknownGame, e.GameName)
}

// Unwrap returns ErrUnknownGame.
func (e *UnknownGameError) Unwrap() error {
	return ErrUnknownGame
}

// NewResolveError creates a new ResolveError.
func NewResolveError(fileName string, err error) error {
	return &ResolveError{FileName: fileName, Err: err}
}

// Error implements the error interface for ResolveError.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrResolve, e.FileName, e.Err)
}

// Unwrap returns the underlying error for ResolveError.
func (e *ResolveError) Unwrap() []error {
	return []error{ErrResolve, e.Err}
}

// NewTransferError creates a new TransferError.
func NewTransferError(url string, offset int64, statusCode int, err error) error {
	return &TransferError{URL: url, Offset: offset, StatusCode: statusCode, Err: err}
}

// Error implements the error interface for TransferError.
func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrTransfer, e.URL)
	if e.Offset > 0 {
		msg += fmt.Sprintf(" (resume at %d)", e.Offset)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for TransferError.
func (e *TransferError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransfer}
	}
	return []error{ErrTransfer, e.Err}
}

// NewIntegrityExhaustedError creates a new IntegrityExhaustedError.
func NewIntegrityExhaustedError(fileName string, attempts int) error {
	return &IntegrityExhaustedError{FileName: fileName, Attempts: attempts}
}

// Error implements the error interface for IntegrityExhaustedError.
func (e *IntegrityExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v (%d attempts)", e.FileName, ErrIntegrityExhausted, e.Attempts)
}

// Unwrap returns ErrIntegrityExhausted.
func (e *IntegrityExhaustedError) Unwrap() error {
	return ErrIntegrityExhausted
}
