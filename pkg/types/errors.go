package types

import "errors"

var (
	// ErrDirectMessagesClosed is returned when a user does not accept
	// private messages from the bot. It is an expected failure.
	ErrDirectMessagesClosed = errors.New("direct messages closed")
	// ErrNotFound indicates a member, channel or role does not exist or is
	// not visible to the bot.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the bot lacks a permission for the operation.
	ErrForbidden = errors.New("forbidden")
)
