package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StoreSession records the session key negotiated by a completed SRP
// handshake, keyed by account name, so a world server process (which never
// sees the auth handshake) can retrieve it once the player connects and
// sends AUTH_SESSION (§3: "session key copied from the corresponding
// LoginConnection, looked up by account name").
func (s *Store) StoreSession(ctx context.Context, accountName string, sessionKey []byte) error {
	name := strings.ToLower(accountName)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO login_sessions (account_name, session_key, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_name) DO UPDATE SET session_key = $2, created_at = $3`,
		name, sessionKey, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("storing login session for %q: %w", name, err)
	}
	return nil
}

// SessionByAccount returns the session key stored for accountName, or nil,
// nil if no handshake has completed for it. Returned keys are always 40
// bytes, the SRP session key length.
func (s *Store) SessionByAccount(ctx context.Context, accountName string) ([]byte, error) {
	name := strings.ToLower(accountName)
	var key []byte
	err := s.pool.QueryRow(ctx,
		`SELECT session_key FROM login_sessions WHERE account_name = $1`, name,
	).Scan(&key)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying login session for %q: %w", name, err)
	}
	return key, nil
}

// DeleteSession removes the stored session key once the world server has
// consumed it after a successful AUTH_SESSION validation.
func (s *Store) DeleteSession(ctx context.Context, accountName string) error {
	name := strings.ToLower(accountName)
	if _, err := s.pool.Exec(ctx, `DELETE FROM login_sessions WHERE account_name = $1`, name); err != nil {
		return fmt.Errorf("deleting login session for %q: %w", name, err)
	}
	return nil
}
