package cognito

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"
)

// isProviderFailure reports whether err represents a provider-side problem
// rather than a rejected client request. Only these feed the circuit breaker.
func isProviderFailure(err error) bool {
	var (
		notAuth     *types.NotAuthorizedException
		notFound    *types.UserNotFoundException
		exists      *types.UsernameExistsException
		badPassword *types.InvalidPasswordException
		badCode     *types.CodeMismatchException
		expiredCode *types.ExpiredCodeException
		badParam    *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &notAuth),
		errors.As(err, &notFound),
		errors.As(err, &exists),
		errors.As(err, &badPassword),
		errors.As(err, &badCode),
		errors.As(err, &expiredCode),
		errors.As(err, &badParam):
		return false
	}
	return true
}

// mapAuthError translates authentication flow errors. Bad credentials and
// unknown users are indistinguishable to the caller.
func mapAuthError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var (
		notAuth  *types.NotAuthorizedException
		notFound *types.UserNotFoundException
	)
	if errors.As(err, &notAuth) || errors.As(err, &notFound) {
		return apperrors.Unauthorized("invalid credentials")
	}
	return apperrors.Upstream("authentication failed", err)
}

// mapSignUpError translates registration errors.
func mapSignUpError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var exists *types.UsernameExistsException
	if errors.As(err, &exists) {
		return apperrors.AlreadyExists("user", "username", "")
	}

	var (
		badPassword *types.InvalidPasswordException
		badParam    *types.InvalidParameterException
	)
	if errors.As(err, &badPassword) {
		return apperrors.InvalidInput("password does not meet the policy requirements")
	}
	if errors.As(err, &badParam) {
		return apperrors.InvalidInput("invalid registration parameters")
	}
	return apperrors.Upstream("registration failed", err)
}

// mapPasswordError translates password change and reset confirmation errors.
func mapPasswordError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var notAuth *types.NotAuthorizedException
	if errors.As(err, &notAuth) {
		return apperrors.Unauthorized("invalid credentials")
	}

	var badPassword *types.InvalidPasswordException
	if errors.As(err, &badPassword) {
		return apperrors.InvalidInput("password does not meet the policy requirements")
	}

	var (
		badCode     *types.CodeMismatchException
		expiredCode *types.ExpiredCodeException
	)
	if errors.As(err, &badCode) {
		return apperrors.InvalidInput("invalid confirmation code")
	}
	if errors.As(err, &expiredCode) {
		return apperrors.InvalidInput("confirmation code has expired")
	}
	return apperrors.Upstream("password operation failed", err)
}

// mapGenericError translates the remaining provider errors.
func mapGenericError(err error, op string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var notAuth *types.NotAuthorizedException
	if errors.As(err, &notAuth) {
		return apperrors.Unauthorized("invalid or expired token")
	}

	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return apperrors.ErrNotFound
	}
	return apperrors.Upstream(op+" failed", err)
}
