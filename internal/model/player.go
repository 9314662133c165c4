package model

import (
	"fmt"
	"sync"
)

// Skill and spell list bounds (§3: "skill list (bounded at 128), spell list
// (bounded at 100)").
const (
	MaxSkills = 128
	MaxSpells = 100
)

// Skill is a single learned skill entry.
type Skill struct {
	ID    uint32
	Level uint16
}

// Spell is a single learned spell entry.
type Spell struct {
	ID uint32
}

// Player extends Unit with identity, a bounded skill/spell list, and the
// set of object GUIDs this player's session is subscribed to.
type Player struct {
	*Unit

	mu          sync.RWMutex
	name        string
	accountName string
	race        uint8
	class       uint8
	gender      uint8
	skills      []Skill
	spells      []Spell
	tracked     map[GUID]struct{}
}

// NewPlayer allocates a Player for the given account and identity.
func NewPlayer(guid GUID, accountName, name string, race, class, gender uint8) *Player {
	p := &Player{
		Unit:        NewUnit(guid, ObjectTypePlayer, PlayerFieldCount),
		name:        name,
		accountName: accountName,
		race:        race,
		class:       class,
		gender:      gender,
		tracked:     make(map[GUID]struct{}),
	}
	p.SetUInt32(FieldBytes0, uint32(race)|uint32(class)<<8|uint32(gender)<<16)
	return p
}

// Name returns the player's character name.
func (p *Player) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// AccountName returns the owning account's login name.
func (p *Player) AccountName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accountName
}

// Race, Class, and Gender return the identity bytes packed into FieldBytes0
// at creation (§8 scenario 6: name-query response echoes these).
func (p *Player) Race() uint8   { return p.race }
func (p *Player) Class() uint8  { return p.class }
func (p *Player) Gender() uint8 { return p.gender }

// AddSkill appends a skill, enforcing the §3 bound. Re-adding an existing
// skill ID updates its level in place instead of growing the list.
func (p *Player) AddSkill(s Skill) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.skills {
		if p.skills[i].ID == s.ID {
			p.skills[i].Level = s.Level
			return nil
		}
	}
	if len(p.skills) >= MaxSkills {
		return fmt.Errorf("skill list full (max %d)", MaxSkills)
	}
	p.skills = append(p.skills, s)
	return nil
}

// Skills returns a copy of the player's learned skills.
func (p *Player) Skills() []Skill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Skill, len(p.skills))
	copy(out, p.skills)
	return out
}

// AddSpell appends a spell, enforcing the §3 bound.
func (p *Player) AddSpell(s Spell) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.spells {
		if existing.ID == s.ID {
			return nil
		}
	}
	if len(p.spells) >= MaxSpells {
		return fmt.Errorf("spell list full (max %d)", MaxSpells)
	}
	p.spells = append(p.spells, s)
	return nil
}

// Spells returns a copy of the player's learned spells.
func (p *Player) Spells() []Spell {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Spell, len(p.spells))
	copy(out, p.spells)
	return out
}

// Track adds a GUID to the player's subscription set (objects this player's
// session receives replication updates for).
func (p *Player) Track(guid GUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked[guid] = struct{}{}
}

// Untrack removes a GUID from the player's subscription set.
func (p *Player) Untrack(guid GUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tracked, guid)
}

// IsTracking reports whether the player's session is subscribed to guid.
func (p *Player) IsTracking(guid GUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tracked[guid]
	return ok
}

// TrackedGUIDs returns a snapshot of the player's subscription set.
func (p *Player) TrackedGUIDs() []GUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]GUID, 0, len(p.tracked))
	for g := range p.tracked {
		out = append(out, g)
	}
	return out
}
