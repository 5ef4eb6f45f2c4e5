package model

import "errors"

var (
	// ErrNotFound is returned by stores when nothing matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores on a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrPasswordTooLong is returned by hashers that cannot digest the whole password.
	ErrPasswordTooLong = errors.New("password is too long")
)
