package models

import (
	"net/url"
	"slices"
	"strings"

	dErrors "pokedex/pkg/domain-errors"
)

// Pokemon is the catalog record.
//
// Invariants:
//   - ID is positive and unique across the collection
//   - Name is non-blank and unique as stored (case-sensitive)
//   - Types, Abilities and Stats keep the order they were supplied in
//   - Sprites.FrontDefault is an absolute http(s) URL
type Pokemon struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Height    int      `json:"height"`
	Weight    int      `json:"weight"`
	Types     []string `json:"types"`
	Abilities []string `json:"abilities"`
	Stats     []Stat   `json:"stats"`
	Sprites   Sprites  `json:"sprites"`
}

// Stat is a named base statistic. Names are not unique within a record.
type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
}

// Sprites holds image addresses. BackDefault is never set by uploads.
type Sprites struct {
	FrontDefault string `json:"front_default"`
	BackDefault  string `json:"back_default,omitempty"`
}

// Summary is the list projection: id, name, front sprite and types only.
type Summary struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Sprites SummarySprites `json:"sprites"`
	Types   []string       `json:"types"`
}

type SummarySprites struct {
	FrontDefault string `json:"front_default"`
}

// Page is one window of the id-ordered collection plus the collection size.
type Page struct {
	Total   int       `json:"total"`
	Count   int       `json:"count"`
	Records []Summary `json:"records"`
}

// Summarize projects p onto the list view.
func (p *Pokemon) Summarize() Summary {
	return Summary{
		ID:      p.ID,
		Name:    p.Name,
		Sprites: SummarySprites{FrontDefault: p.Sprites.FrontDefault},
		Types:   nonNil(slices.Clone(p.Types)),
	}
}

// NewPage builds a page from an ordered slice of records.
func NewPage(records []*Pokemon, total int) *Page {
	summaries := make([]Summary, 0, len(records))
	for _, p := range records {
		summaries = append(summaries, p.Summarize())
	}
	return &Page{Total: total, Count: len(summaries), Records: summaries}
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (p *Pokemon) Clone() *Pokemon {
	if p == nil {
		return nil
	}
	c := *p
	c.Types = nonNil(slices.Clone(p.Types))
	c.Abilities = nonNil(slices.Clone(p.Abilities))
	c.Stats = nonNil(slices.Clone(p.Stats))
	return &c
}

// Validate checks the record invariants that do not need the store.
func (p *Pokemon) Validate() error {
	if err := p.ValidateFields(); err != nil {
		return err
	}
	if err := validateURL("sprites.front_default", p.Sprites.FrontDefault, true); err != nil {
		return err
	}
	return validateURL("sprites.back_default", p.Sprites.BackDefault, false)
}

// ValidateFields checks everything Validate does except the sprite
// addresses, which an upload fills in later.
func (p *Pokemon) ValidateFields() error {
	if p.ID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "id must be a positive integer")
	}
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if p.Height < 0 {
		return dErrors.New(dErrors.CodeValidation, "height must not be negative")
	}
	if p.Weight < 0 {
		return dErrors.New(dErrors.CodeValidation, "weight must not be negative")
	}
	return validateStats(p.Stats)
}

func validateStats(stats []Stat) error {
	for _, s := range stats {
		if strings.TrimSpace(s.Name) == "" {
			return dErrors.New(dErrors.CodeValidation, "every stat needs a name")
		}
	}
	return nil
}

func validateURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return dErrors.New(dErrors.CodeValidation, field+" is required")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, field+" must be an absolute http(s) URL")
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
