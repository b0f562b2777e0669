package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/gardencore/internal/realtime"
)

const testSecret = "test-secret-that-is-at-least-32-characters-long"

func TestGenerateAndParse(t *testing.T) {
	for _, subject := range []realtime.Subject{realtime.User(4), realtime.Agent(11)} {
		token, err := GenerateToken(subject, testSecret, time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}

		claims, err := ParseToken(token, testSecret)
		if err != nil {
			t.Fatalf("ParseToken() error = %v", err)
		}
		got, err := claims.Subject()
		if err != nil {
			t.Fatalf("Subject() error = %v", err)
		}
		if got != subject {
			t.Errorf("Subject() = %v, want %v", got, subject)
		}
		if claims.ID == "" {
			t.Error("token has no jti")
		}
	}
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestParseToken_Invalid(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: ErrTokenInvalid,
		},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte(strings.Repeat("x", 40)), Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, SubID: 1, SubType: "user",
			}),
			wantErr: ErrTokenInvalid,
		},
		{
			name: "wrong algorithm",
			token: sign(t, jwt.SigningMethodHS512, []byte(testSecret), Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, SubID: 1, SubType: "user",
			}),
			wantErr: ErrTokenInvalid,
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}, SubID: 1, SubType: "user",
			}),
			wantErr: ErrTokenExpired,
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
				SubID: 1, SubType: "user",
			}),
			wantErr: ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, testSecret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClaims_Subject(t *testing.T) {
	tests := []struct {
		name    string
		claims  Claims
		wantErr error
	}{
		{"unknown type", Claims{SubID: 1, SubType: "panel"}, ErrUnknownSubjectType},
		{"empty type", Claims{SubID: 1}, ErrUnknownSubjectType},
		{"zero id", Claims{SubID: 0, SubType: "agent"}, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.claims.Subject(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Subject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTVerifier(t *testing.T) {
	if _, err := NewJWTVerifier("short"); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("NewJWTVerifier(short) error = %v, want ErrSecretTooShort", err)
	}

	v, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}

	token, err := GenerateToken(realtime.Agent(3), testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	got, err := v.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got != realtime.Agent(3) {
		t.Errorf("Authenticate() = %v, want agent:3", got)
	}

	if _, err := v.Authenticate(context.Background(), token+"x"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Authenticate(tampered) error = %v, want ErrTokenInvalid", err)
	}
}

// TestJWTVerifier_WithHub checks the verifier plugs into the realtime hub.
func TestJWTVerifier_WithHub(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	var _ realtime.Authenticator = v

	hub := realtime.NewHub(v)
	token, err := GenerateToken(realtime.User(8), testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	conn := &nopConn{}
	subject, ok := hub.AuthenticateAndConnect(context.Background(), conn, "Bearer "+token)
	if !ok || subject != realtime.User(8) {
		t.Fatalf("AuthenticateAndConnect() = (%v, %v), want (user:8, true)", subject, ok)
	}
}

type nopConn struct{}

func (nopConn) Send(context.Context, []byte) error { return nil }
func (nopConn) Close(int, string) error            { return nil }
