package db

import (
	"context"
	"fmt"

	"github.com/udisondev/aethermoor/internal/model"
)

// CharacterData is the persisted row shape for a character, independent of
// the in-memory model.Player: the low 32 bits of its GUID are the stored
// primary key, its type tag is always model.ObjectTypePlayer, and its
// position is loaded from the last-saved coordinates rather than derived.
type CharacterData struct {
	GUID        model.GUID
	AccountName string
	Name        string
	Race        uint8
	Class       uint8
	Gender      uint8
	Position    model.Position
}

// CharacterByGUID returns the character stored under guid, or nil, nil if
// none exists (§6: character_by_guid).
func (s *Store) CharacterByGUID(ctx context.Context, guid model.GUID) (*CharacterData, error) {
	query := `
		SELECT character_id, account_name, name, race, class, gender,
		       map, zone, x, y, z, orientation
		FROM characters WHERE character_id = $1
	`
	var c CharacterData
	var low uint32
	err := s.pool.QueryRow(ctx, query, guid.Low()).Scan(
		&low, &c.AccountName, &c.Name, &c.Race, &c.Class, &c.Gender,
		&c.Position.Map, &c.Position.Zone, &c.Position.X, &c.Position.Y, &c.Position.Z, &c.Position.Orientation,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying character %d: %w", guid.Low(), err)
	}
	c.GUID = model.NewGUID(low, model.ObjectTypePlayer)
	return &c, nil
}

// CharacterExistsByName reports whether a character with the given name
// already exists (§6: character_exists_by_name). Character names are unique
// across all accounts.
func (s *Store) CharacterExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking character name %q: %w", name, err)
	}
	return exists, nil
}

// CharactersByAccount returns every character owned by accountName, oldest
// first (§6: characters_by_account).
func (s *Store) CharactersByAccount(ctx context.Context, accountName string) ([]*CharacterData, error) {
	query := `
		SELECT character_id, account_name, name, race, class, gender,
		       map, zone, x, y, z, orientation
		FROM characters WHERE account_name = $1 ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, accountName)
	if err != nil {
		return nil, fmt.Errorf("querying characters for account %q: %w", accountName, err)
	}
	defer rows.Close()

	chars := make([]*CharacterData, 0, 8)
	for rows.Next() {
		var c CharacterData
		var low uint32
		if err := rows.Scan(
			&low, &c.AccountName, &c.Name, &c.Race, &c.Class, &c.Gender,
			&c.Position.Map, &c.Position.Zone, &c.Position.X, &c.Position.Y, &c.Position.Z, &c.Position.Orientation,
		); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		c.GUID = model.NewGUID(low, model.ObjectTypePlayer)
		chars = append(chars, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating character rows: %w", err)
	}
	return chars, nil
}

// CreateCharacter inserts a new character and returns the stored row,
// including the database-assigned character_id packed into its GUID
// (§6: create_character). Returns nil, nil if the name is already taken.
func (s *Store) CreateCharacter(ctx context.Context, accountName, name string, race, class, gender uint8, pos model.Position) (*CharacterData, error) {
	query := `
		INSERT INTO characters (account_name, name, race, class, gender, map, zone, x, y, z, orientation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name) DO NOTHING
		RETURNING character_id
	`
	var low uint32
	err := s.pool.QueryRow(ctx, query,
		accountName, name, race, class, gender,
		pos.Map, pos.Zone, pos.X, pos.Y, pos.Z, pos.Orientation,
	).Scan(&low)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating character %q: %w", name, err)
	}
	return &CharacterData{
		GUID: model.NewGUID(low, model.ObjectTypePlayer), AccountName: accountName, Name: name,
		Race: race, Class: class, Gender: gender, Position: pos,
	}, nil
}

// DeleteCharacter removes a character and its skills/spells in one
// transaction, rolling back on any store-level error (§6: delete_character).
// Returns false if no such character existed.
func (s *Store) DeleteCharacter(ctx context.Context, guid model.GUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning delete transaction for character %d: %w", guid.Low(), err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM character_skills WHERE character_id = $1`, guid.Low()); err != nil {
		return false, fmt.Errorf("deleting skills for character %d: %w", guid.Low(), err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM character_spells WHERE character_id = $1`, guid.Low()); err != nil {
		return false, fmt.Errorf("deleting spells for character %d: %w", guid.Low(), err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM characters WHERE character_id = $1`, guid.Low())
	if err != nil {
		return false, fmt.Errorf("deleting character %d: %w", guid.Low(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing delete for character %d: %w", guid.Low(), err)
	}
	return tag.RowsAffected() > 0, nil
}
