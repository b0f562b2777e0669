package auth

import (
	"context"
	"fmt"

	"github.com/nerrad567/gardencore/internal/realtime"
)

// MinSecretLength matches the security.jwt.secret validation in config.
const MinSecretLength = 32

// JWTVerifier resolves bearer tokens to realtime subjects. It implements
// realtime.Authenticator.
type JWTVerifier struct {
	secret string
}

// NewJWTVerifier creates a verifier for HS256 tokens signed with secret.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d characters", ErrSecretTooShort, MinSecretLength)
	}
	return &JWTVerifier{secret: secret}, nil
}

// Authenticate parses token and returns the subject in its sub_id and
// sub_type claims.
func (v *JWTVerifier) Authenticate(_ context.Context, token string) (realtime.Subject, error) {
	claims, err := ParseToken(token, v.secret)
	if err != nil {
		return realtime.Subject{}, err
	}
	return claims.Subject()
}
