package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPortalUnreachable means every proxy failed to return a usable page.
	ErrPortalUnreachable = errors.New("portal unreachable")

	// ErrMissingCredential means no extraction API key is configured.
	ErrMissingCredential = errors.New("missing extraction credential")

	// ErrExtractionFailed means the model answered but the answer was not a JSON object.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrDuplicateIdentifier means a service identifier is already tracked.
	ErrDuplicateIdentifier = errors.New("duplicate service identifier")

	// ErrInvalidBackupFile means an import payload failed structural validation.
	ErrInvalidBackupFile = errors.New("invalid backup file")

	// ErrStorageParse means the persisted state could not be read at startup.
	ErrStorageParse = errors.New("persisted state unreadable")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// DuplicateIdentifierError lists every identifier rejected by one action.
type DuplicateIdentifierError struct {
	Identifiers []string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateIdentifier, strings.Join(e.Identifiers, ", "))
}

func (e *DuplicateIdentifierError) Unwrap() error {
	return ErrDuplicateIdentifier
}

// ErrorKind names the taxonomy member err belongs to, for status records and
// API responses. Unknown errors report "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPortalUnreachable):
		return "portal_unreachable"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrDuplicateIdentifier):
		return "duplicate_identifier"
	case errors.Is(err, ErrInvalidBackupFile):
		return "invalid_backup_file"
	case errors.Is(err, ErrStorageParse):
		return "storage_parse"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	}
	return "internal"
}
