package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
)

// UpdateRequest is the PUT body. Every field is optional; id, when present,
// must match the path.
type UpdateRequest struct {
	ID        *numericInt    `json:"id"`
	Name      *string        `json:"name"`
	Height    *numericInt    `json:"height"`
	Weight    *numericInt    `json:"weight"`
	Types     *[]string      `json:"types"`
	Abilities *[]string      `json:"abilities"`
	Stats     *[]models.Stat `json:"stats"`
	Sprites   *SpritesUpdate `json:"sprites"`
}

// numericInt accepts a JSON number or a string holding one. Browser forms
// send number inputs as strings.
type numericInt int

func (n *numericInt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%q is not an integer", raw)
		}
		*n = numericInt(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = numericInt(v)
	return nil
}

func (n *numericInt) intPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

type SpritesUpdate struct {
	FrontDefault *string `json:"front_default"`
	BackDefault  *string `json:"back_default"`
}

func (r *UpdateRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
}

func (r *UpdateRequest) Validate() error {
	if r.ID != nil && *r.ID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "id must be a positive integer")
	}
	return r.Patch().Validate()
}

// MatchesPath reports whether the body id, if any, equals the path id.
func (r *UpdateRequest) MatchesPath(id int) bool {
	return r.ID == nil || int(*r.ID) == id
}

func (r *UpdateRequest) Patch() models.Patch {
	p := models.Patch{
		Name:      r.Name,
		Height:    r.Height.intPtr(),
		Weight:    r.Weight.intPtr(),
		Types:     r.Types,
		Abilities: r.Abilities,
		Stats:     r.Stats,
	}
	if r.Sprites != nil {
		p.FrontDefault = r.Sprites.FrontDefault
		p.BackDefault = r.Sprites.BackDefault
	}
	return p
}
