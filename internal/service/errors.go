package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/billvault/internal/models"
)

var errNotConfirmed = errors.New("deletion requires confirm=true")

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrDuplicateIdentifier):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidBackupFile), errors.Is(err, errNotConfirmed):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, models.ErrMissingCredential):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, models.ErrPortalUnreachable):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
