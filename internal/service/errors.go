package service

import "errors"

var (
	ErrInternal           = errors.New("internal server error")
	ErrUnauthenticated    = errors.New("user must be authenticated")
	ErrForbidden          = errors.New("only admins can perform this action")
	ErrPostNotFound       = errors.New("post not found")
	ErrReactionFailed     = errors.New("failed to record reaction")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
