package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/aethermoor/internal/model"
)

// AccountByName returns the account with the given login, case-insensitive.
// Returns nil, nil if no such account exists (§6: account_by_name).
func (s *Store) AccountByName(ctx context.Context, name string) (*model.Account, error) {
	name = strings.ToLower(name)
	var acc model.Account
	var verifier []byte
	var salt []byte
	err := s.pool.QueryRow(ctx,
		`SELECT login, salt, verifier, access_level, last_ip, last_active
		 FROM accounts WHERE login = $1`, name,
	).Scan(&acc.Login, &salt, &verifier, &acc.AccessLevel, &acc.LastIP, &acc.LastActive)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", name, err)
	}
	copy(acc.Salt[:], salt)
	acc.Verifier = verifier
	return &acc, nil
}

// CreateAccount inserts a new account with the given SRP salt and verifier
// (§6: create_account).
func (s *Store) CreateAccount(ctx context.Context, name string, salt [32]byte, verifier []byte) error {
	name = strings.ToLower(name)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (login, salt, verifier, access_level, last_active)
		 VALUES ($1, $2, $3, 0, $4)`,
		name, salt[:], verifier, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", name, err)
	}
	return nil
}

// UpdateLastLogin records a successful authentication against the account.
func (s *Store) UpdateLastLogin(ctx context.Context, name, ip string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET last_active = $1, last_ip = $2 WHERE login = $3`,
		time.Now(), ip, strings.ToLower(name),
	)
	if err != nil {
		return fmt.Errorf("updating last login for %q: %w", name, err)
	}
	return nil
}
