package worldserver

import (
	"context"

	"github.com/udisondev/aethermoor/internal/db"
	"github.com/udisondev/aethermoor/internal/model"
)

// CharacterRepository is the persistence capability the world server needs
// (§6: session lookup, character CRUD, skill/spell load). Used for
// dependency injection in tests.
type CharacterRepository interface {
	// SessionByAccount returns the session key the auth server negotiated
	// for accountName, or nil, nil if none is on record.
	SessionByAccount(ctx context.Context, accountName string) ([]byte, error)

	// DeleteSession consumes a session key once AUTH_SESSION has validated
	// it, so a stale value can't be replayed.
	DeleteSession(ctx context.Context, accountName string) error

	CharacterByGUID(ctx context.Context, guid model.GUID) (*db.CharacterData, error)
	CharacterExistsByName(ctx context.Context, name string) (bool, error)
	CharactersByAccount(ctx context.Context, accountName string) ([]*db.CharacterData, error)
	CreateCharacter(ctx context.Context, accountName, name string, race, class, gender uint8, pos model.Position) (*db.CharacterData, error)
	DeleteCharacter(ctx context.Context, guid model.GUID) (bool, error)

	SkillsFor(ctx context.Context, guid model.GUID) ([]model.Skill, error)
	SpellsFor(ctx context.Context, guid model.GUID) ([]model.Spell, error)
}
