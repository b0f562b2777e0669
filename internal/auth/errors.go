package auth

import "errors"

// Token verification errors.
var (
	// ErrTokenInvalid is returned for tokens with a bad signature, algorithm or shape.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrTokenExpired is returned for correctly signed tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token has expired")

	// ErrUnknownSubjectType is returned when sub_type is neither "user" nor "agent".
	ErrUnknownSubjectType = errors.New("auth: unknown subject type")

	// ErrSecretTooShort is returned when a verifier is built with a weak secret.
	ErrSecretTooShort = errors.New("auth: secret too short")
)
