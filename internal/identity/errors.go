package identity

import "errors"

// Service errors surfaced to handlers.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("username or password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyConfirmed   = errors.New("email is already confirmed")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("unknown role")
)
