package models

import (
	"slices"
	"strings"

	dErrors "pokedex/pkg/domain-errors"
)

// Patch is a partial update. Nil fields are left untouched; a non-nil empty
// slice clears the sequence. Sprite sub-fields merge independently.
type Patch struct {
	Name         *string
	Height       *int
	Weight       *int
	Types        *[]string
	Abilities    *[]string
	Stats        *[]Stat
	FrontDefault *string
	BackDefault  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Height == nil && p.Weight == nil &&
		p.Types == nil && p.Abilities == nil && p.Stats == nil &&
		p.FrontDefault == nil && p.BackDefault == nil
}

// Validate checks every supplied field against the record rules.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name must not be blank")
	}
	if p.Height != nil && *p.Height < 0 {
		return dErrors.New(dErrors.CodeValidation, "height must not be negative")
	}
	if p.Weight != nil && *p.Weight < 0 {
		return dErrors.New(dErrors.CodeValidation, "weight must not be negative")
	}
	if p.Stats != nil {
		if err := validateStats(*p.Stats); err != nil {
			return err
		}
	}
	if p.FrontDefault != nil {
		if err := validateURL("sprites.front_default", *p.FrontDefault, true); err != nil {
			return err
		}
	}
	if p.BackDefault != nil {
		if err := validateURL("sprites.back_default", *p.BackDefault, false); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of current with the patch applied. Applying the same
// patch twice yields the same record.
func (p Patch) Apply(current *Pokemon) *Pokemon {
	next := current.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Height != nil {
		next.Height = *p.Height
	}
	if p.Weight != nil {
		next.Weight = *p.Weight
	}
	if p.Types != nil {
		next.Types = nonNil(slices.Clone(*p.Types))
	}
	if p.Abilities != nil {
		next.Abilities = nonNil(slices.Clone(*p.Abilities))
	}
	if p.Stats != nil {
		next.Stats = nonNil(slices.Clone(*p.Stats))
	}
	if p.FrontDefault != nil {
		next.Sprites.FrontDefault = *p.FrontDefault
	}
	if p.BackDefault != nil {
		next.Sprites.BackDefault = *p.BackDefault
	}
	return next
}
