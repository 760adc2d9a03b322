package services

import "errors"

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("token has the wrong type")

	ErrUserNotFound = errors.New("user not found")
)
