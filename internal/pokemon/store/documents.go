package store

import (
	"encoding/json"
	"fmt"

	"pokedex/internal/pokemon/models"
)

// documents are the JSON-encoded parts of a record shared by the SQL backends.
type documents struct {
	types     []string
	abilities []string
	stats     []byte
	sprites   []byte
}

func encodeDocuments(p *models.Pokemon) (documents, error) {
	stats, err := json.Marshal(nonNilSlice(p.Stats))
	if err != nil {
		return documents{}, fmt.Errorf("encode stats: %w", err)
	}
	sprites, err := json.Marshal(p.Sprites)
	if err != nil {
		return documents{}, fmt.Errorf("encode sprites: %w", err)
	}
	return documents{
		types:     nonNilSlice(p.Types),
		abilities: nonNilSlice(p.Abilities),
		stats:     stats,
		sprites:   sprites,
	}, nil
}

func decodeDocuments(p *models.Pokemon, stats, sprites []byte) error {
	if err := json.Unmarshal(stats, &p.Stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}
	if err := json.Unmarshal(sprites, &p.Sprites); err != nil {
		return fmt.Errorf("decode sprites: %w", err)
	}
	p.Types = nonNilSlice(p.Types)
	p.Abilities = nonNilSlice(p.Abilities)
	p.Stats = nonNilSlice(p.Stats)
	return nil
}

// spritesPatch holds only the sprite keys the patch supplies, ready to be
// merged over the stored document.
func spritesPatch(patch models.Patch) map[string]string {
	m := make(map[string]string, 2)
	if patch.FrontDefault != nil {
		m["front_default"] = *patch.FrontDefault
	}
	if patch.BackDefault != nil {
		m["back_default"] = *patch.BackDefault
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
