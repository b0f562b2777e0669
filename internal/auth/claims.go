package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gardencore/internal/realtime"
)

// defaultTTL is the access token lifetime when none is given.
const defaultTTL = 15 * time.Minute

// Claims are the access token claims shared by user and agent tokens.
type Claims struct {
	jwt.RegisteredClaims
	SubID   int64  `json:"sub_id"`
	SubType string `json:"sub_type"`
}

// Subject returns the realtime subject the claims name.
func (c *Claims) Subject() (realtime.Subject, error) {
	kind := realtime.SubjectKind(c.SubType)
	switch kind {
	case realtime.SubjectUser, realtime.SubjectAgent:
	default:
		return realtime.Subject{}, fmt.Errorf("%w: %q", ErrUnknownSubjectType, c.SubType)
	}

	s := realtime.Subject{Kind: kind, ID: c.SubID}
	if err := s.Validate(); err != nil {
		return realtime.Subject{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return s, nil
}

// GenerateToken signs an HS256 access token for subject. A non-positive
// ttl uses the 15 minute default.
func GenerateToken(subject realtime.Subject, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		SubID:   subject.ID,
		SubType: string(subject.Kind),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature, algorithm and expiry and returns the claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
