package domain

import "errors"

// Sentinel errors for the recoverable outcomes of the support flows. Anything
// else returned by a store is an infrastructure fault and propagates unchanged.
var (
	// ErrNotFound covers a missing token, user, or account link. At the
	// presentation boundary it maps to the same generic message as
	// ErrTokenExpired so callers cannot probe which part failed.
	ErrNotFound = errors.New("not found")

	// ErrTokenExpired marks a token that was found but is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenConflict is reported to the loser of a consumption race.
	ErrTokenConflict = errors.New("token already consumed")

	// ErrLinkConflict means the asserted provider identity is already
	// linked to a different local account.
	ErrLinkConflict = errors.New("social account linked to another user")
)
