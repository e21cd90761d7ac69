// Package auth issues and verifies bearer tokens for Cinelog.
package auth

import "errors"

// Authentication errors.
var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrInvalidToken indicates the token failed signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token is past its exp claim.
	ErrTokenExpired = errors.New("token has expired")

	// ErrMissingSecret indicates no signing secret was configured.
	ErrMissingSecret = errors.New("jwt secret is not configured")
)
