package member

import "errors"

var (
	ErrNotFound     = errors.New("member not found")
	ErrInvalidEmail = errors.New("member email is required")
)
