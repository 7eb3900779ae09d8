package accounts

import "errors"

var (
	// ErrValidation is returned when caller input is missing or malformed
	// after trimming. Maps to HTTP 400 at the transport layer.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("user with username or email already exists")
	// ErrUserNotFound is returned when no identity matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized is the generic credential/token rejection.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned when password verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshInvalid is returned for malformed, expired, or unknown
	// refresh tokens.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is returned when a presented refresh token does not
	// match the one currently on record for its subject (replay detection).
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrUploadFailed is returned when the object storage collaborator
	// rejects an avatar or cover image upload.
	ErrUploadFailed = errors.New("file upload failed")
	// ErrInternal covers unexpected persistence or issuance failures. The
	// underlying cause is wrapped and never surfaced to end users verbatim.
	ErrInternal = errors.New("internal error")
	// ErrServiceNotReady is returned when a Service method is called on a
	// partially constructed instance.
	ErrServiceNotReady = errors.New("service not initialized")
)
