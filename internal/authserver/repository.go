package authserver

import (
	"context"

	"github.com/udisondev/aethermoor/internal/model"
)

// AccountRepository is the narrow capability the handshake needs from the
// persistence layer: account lookup by name (§6: account_by_name), the
// last-login update, and session-key storage. Used for dependency
// injection in tests.
type AccountRepository interface {
	// AccountByName returns the account with the given login, or nil, nil
	// if none exists.
	AccountByName(ctx context.Context, name string) (*model.Account, error)

	// UpdateLastLogin records a successful authentication.
	UpdateLastLogin(ctx context.Context, name, ip string) error

	// StoreSession records the session key negotiated for accountName so
	// the world server can retrieve it once the player connects.
	StoreSession(ctx context.Context, accountName string, sessionKey []byte) error
}
