package services

import "errors"

var (
	// ErrUnauthenticated is returned when a workflow is invoked without a caller
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidInput wraps request validation failures
	ErrInvalidInput = errors.New("invalid input")
	// ErrLinkInactive is returned when resolving a deactivated short link
	ErrLinkInactive = errors.New("link has been deactivated")
)
