package authz

import "errors"

// Authorization errors.
var (
	// ErrUnauthenticated means no usable identity was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnknownActor means the token is valid but its user id does not resolve.
	ErrUnknownActor = errors.New("bad id request")
	// ErrForbidden means the caller is known but lacks the role or ownership.
	ErrForbidden = errors.New("access unauthorized")
	// ErrInvalidTarget means the requested target username does not resolve.
	ErrInvalidTarget = errors.New("username is missing or invalid")
)
