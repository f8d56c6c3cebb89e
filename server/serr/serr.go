// Package serr holds the error values used across the backchain server that
// callers distinguish with errors.Is rather than inspecting a message
// string.
package serr

import "errors"

var (
	// ErrBadCredentials indicates a login attempt's username and password
	// did not match a stored user.
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")

	// ErrAlreadyExists indicates a create operation collided with an
	// existing record, such as a duplicate username.
	ErrAlreadyExists = errors.New("resource with same identifying information already exists")
)
