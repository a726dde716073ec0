package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ScopeKind discriminates the Scope variant.
type ScopeKind string

// Scope kinds.
const (
	ScopeKindLevel ScopeKind = "level"
	ScopeKindDeck  ScopeKind = "deck"
)

// TaxonomyCustom is the taxonomy name callers use to ask for a custom deck.
const TaxonomyCustom = "custom"

// Scope restricts review to a curated level or a custom deck.
// A nil *Scope means "all cards".
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	Taxonomy string    `json:"taxonomy,omitempty"`
	Level    string    `json:"level,omitempty"`
	DeckID   uuid.UUID `json:"deck_id,omitempty"`
}

// LevelScope returns a scope over the curated level taxonomy:level.
func LevelScope(taxonomy, level string) *Scope {
	return &Scope{Kind: ScopeKindLevel, Taxonomy: taxonomy, Level: level}
}

// DeckScope returns a scope over a custom deck.
func DeckScope(deckID uuid.UUID) *Scope {
	return &Scope{Kind: ScopeKindDeck, DeckID: deckID}
}

// LevelTag returns the taxonomy:level tag cards carry for a level scope,
// or "" for other kinds.
func (s *Scope) LevelTag() string {
	if s == nil || s.Kind != ScopeKindLevel {
		return ""
	}
	return s.Taxonomy + ":" + s.Level
}

// Validate reports ErrInvalidScope when required parts are missing.
func (s *Scope) Validate() error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case ScopeKindLevel:
		if s.Taxonomy == "" || s.Level == "" {
			return NewValidationError("scope", "level scope needs taxonomy and level", ErrInvalidScope)
		}
	case ScopeKindDeck:
		if s.DeckID == uuid.Nil {
			return NewValidationError("deck_id", "is required for a custom scope", ErrInvalidScope)
		}
	default:
		return NewValidationError("scope", "has unknown kind", ErrInvalidScope)
	}
	return nil
}

// String renders the scope for logs.
func (s *Scope) String() string {
	if s == nil {
		return "all"
	}
	if s.Kind == ScopeKindDeck {
		return "deck:" + s.DeckID.String()
	}
	return s.LevelTag()
}

// ParseScope builds a scope from request parameters.
// taxonomy "custom" selects a deck and requires deckID; any other taxonomy
// together with a level selects that level. Anything else means all cards.
func ParseScope(taxonomy, level, deckID string) (*Scope, error) {
	taxonomy = strings.TrimSpace(taxonomy)
	level = strings.TrimSpace(level)
	deckID = strings.TrimSpace(deckID)

	if taxonomy == TaxonomyCustom {
		if deckID == "" {
			return nil, NewValidationError("deckId", "is required for a custom scope", ErrInvalidScope)
		}
		id, err := uuid.Parse(deckID)
		if err != nil {
			return nil, NewValidationError("deckId", "has invalid format", ErrInvalidID)
		}
		return DeckScope(id), nil
	}
	if taxonomy != "" && level != "" {
		return LevelScope(taxonomy, level), nil
	}
	return nil, nil
}

// DeckItem is one entry of a custom deck, in the learner's order.
type DeckItem struct {
	Type     CardType `json:"type"`
	Term     string   `json:"term"`
	Position int      `json:"position"`
}

// CardID returns the id of the card this item refers to.
func (i DeckItem) CardID() string {
	return MakeCardID(i.Type, i.Term)
}
