package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores when a unique constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned when no credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a presented credential fails verification.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyCart is returned when an operation needs at least one line item.
	ErrEmptyCart = errors.New("no items in the cart")
	// ErrVersionConflict means a conditional write lost a race and may be retried.
	ErrVersionConflict = errors.New("version conflict")
	// ErrTransientConflict is surfaced once version conflicts exhaust the retry budget.
	ErrTransientConflict = errors.New("store busy, retry later")
	// ErrNegativeTotal guards the cart total invariant.
	ErrNegativeTotal = errors.New("cart total would become negative")
)
