package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Moderation workflow errors. Every precondition is checked before any write,
// so a returned workflow error implies no mutation happened.
var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrNotAuthenticated  = errors.New("user id does not match caller")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrAlreadyRemoved    = errors.New("giveaway already removed")
	ErrNotRemoved        = errors.New("giveaway is not removed")
	ErrGiveawayRemoved   = errors.New("cannot modify a removed giveaway")
	ErrSelfFlagForbidden = errors.New("cannot flag own posting")
)
