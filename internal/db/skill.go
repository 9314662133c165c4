package db

import (
	"context"
	"fmt"

	"github.com/udisondev/aethermoor/internal/model"
)

// SkillsFor returns every skill learned by the character (§6: skills_for).
func (s *Store) SkillsFor(ctx context.Context, guid model.GUID) ([]model.Skill, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT skill_id, skill_level FROM character_skills WHERE character_id = $1 ORDER BY skill_id`,
		guid.Low(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying skills for character %d: %w", guid.Low(), err)
	}
	defer rows.Close()

	skills := make([]model.Skill, 0, 32)
	for rows.Next() {
		var sk model.Skill
		if err := rows.Scan(&sk.ID, &sk.Level); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill rows: %w", err)
	}
	return skills, nil
}

// SpellsFor returns every spell learned by the character (§6: spells_for).
func (s *Store) SpellsFor(ctx context.Context, guid model.GUID) ([]model.Spell, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT spell_id FROM character_spells WHERE character_id = $1 ORDER BY spell_id`,
		guid.Low(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying spells for character %d: %w", guid.Low(), err)
	}
	defer rows.Close()

	spells := make([]model.Spell, 0, 16)
	for rows.Next() {
		var sp model.Spell
		if err := rows.Scan(&sp.ID); err != nil {
			return nil, fmt.Errorf("scanning spell row: %w", err)
		}
		spells = append(spells, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spell rows: %w", err)
	}
	return spells, nil
}

// SaveSkills replaces all persisted skills for a character in one
// transaction, mirroring the teacher's delete-then-reinsert idiom.
func (s *Store) SaveSkills(ctx context.Context, guid model.GUID, skills []model.Skill) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning skill save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM character_skills WHERE character_id = $1`, guid.Low()); err != nil {
		return fmt.Errorf("deleting existing skills: %w", err)
	}
	for _, sk := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_skills (character_id, skill_id, skill_level) VALUES ($1, $2, $3)`,
			guid.Low(), sk.ID, sk.Level,
		); err != nil {
			return fmt.Errorf("inserting skill %d: %w", sk.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing skill save: %w", err)
	}
	return nil
}
