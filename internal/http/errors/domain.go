package errors

import (
	"context"
	stderrors "errors"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/security/password"
)

// FromDomain traduce los sentinels compartidos por todas las capas.
// Los controllers resuelven primero los errores propios de su service.
func FromDomain(err error) *AppError {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	switch {
	case stderrors.Is(err, password.ErrWeakPassword):
		return ErrPasswordTooWeak.WithViolations(password.ViolationsOf(err)).WithCause(err)
	case stderrors.Is(err, password.ErrPasswordTooLong):
		return ErrPasswordTooLong.WithCause(err)
	case stderrors.Is(err, password.ErrInvalidDisplayName):
		return ErrInvalidDisplayName.WithCause(err)
	case stderrors.Is(err, password.ErrCredentialMismatch):
		return ErrInvalidPassword.WithCause(err)
	case stderrors.Is(err, repository.ErrNotFound),
		stderrors.Is(err, identity.ErrUserNotFound):
		return ErrUserNotFound.WithCause(err)
	case stderrors.Is(err, identity.ErrEmailExists):
		return ErrEmailAlreadyInUse.WithCause(err)
	case stderrors.Is(err, identity.ErrInvalidToken):
		return ErrTokenInvalid.WithCause(err)
	case stderrors.Is(err, identity.ErrUpstream),
		stderrors.Is(err, identity.ErrMalformedRecord),
		stderrors.Is(err, context.DeadlineExceeded):
		return ErrUpstream.WithCause(err)
	default:
		return ErrInternalServerError.WithCause(err)
	}
}
