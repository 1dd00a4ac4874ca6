package ports

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when a credential cannot be mapped to a player.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityPort defines the session layer consulted when a client connects.
type IdentityPort interface {
	// Identify resolves the stable player id for credential. credential is the
	// raw token supplied by the client and may be empty.
	// Returns ErrUnauthenticated (possibly wrapped) if the credential is rejected.
	Identify(ctx context.Context, credential string) (string, error)
}
