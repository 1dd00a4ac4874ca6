package ws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"

	"bisca/internal/ports"
)

// TokenIdentity accepts HS256 session tokens and uses their sub claim as the player id.
type TokenIdentity struct {
	secret []byte
}

// NewTokenIdentity creates an identity port verifying tokens signed with secret.
func NewTokenIdentity(secret string) *TokenIdentity {
	return &TokenIdentity{secret: []byte(secret)}
}

func (i *TokenIdentity) Identify(_ context.Context, credential string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", fmt.Errorf("%w: missing token", ports.ErrUnauthenticated)
	}
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ports.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ports.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", fmt.Errorf("%w: token has no subject", ports.ErrUnauthenticated)
	}
	return sub, nil
}

// AnonymousIdentity gives every connection a fresh random id.
type AnonymousIdentity struct{}

func (AnonymousIdentity) Identify(context.Context, string) (string, error) {
	return uuid.NewString(), nil
}

// IssueToken signs a session token for playerID. It exists for local tooling;
// production tokens come from the session service.
func IssueToken(secret, issuer, playerID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("token secret is required")
	}
	if playerID == "" {
		return "", fmt.Errorf("player id is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": playerID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

var (
	_ ports.IdentityPort = (*TokenIdentity)(nil)
	_ ports.IdentityPort = AnonymousIdentity{}
)
