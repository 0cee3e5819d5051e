package auth

import "errors"

var (
	// ErrMalformedToken covers structurally invalid tokens and signature
	// mismatches. Always a client error, never retried.
	ErrMalformedToken = errors.New("auth: malformed token")
	// ErrExpired means the token's lifetime has passed.
	ErrExpired = errors.New("auth: token expired")
	// ErrRevoked means the token identifier is on the blocklist.
	ErrRevoked = errors.New("auth: token revoked")
	// ErrUnauthorized is a permission denial, distinct from the
	// token-verification failures above.
	ErrUnauthorized = errors.New("auth: unauthorized")

	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrNotFound           = errors.New("auth: not found")
	ErrAlreadyExists      = errors.New("auth: already exists")
)
