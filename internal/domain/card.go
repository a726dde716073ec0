package domain

import (
	"slices"
	"strings"
	"time"
)

// CardType classifies the content a card teaches.
type CardType string

// Supported card types. Card ids are built as "<type>:<term>".
const (
	CardTypeKanji      CardType = "kanji"
	CardTypeVocabulary CardType = "vocab"
	CardTypeCustom     CardType = "custom"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeKanji, CardTypeVocabulary, CardTypeCustom:
		return true
	default:
		return false
	}
}

// Card is a reviewable item. The review engine only reads its ID and level tags;
// everything else about the content belongs to the content layer.
type Card struct {
	ID        string    `json:"id"`
	Type      CardType  `json:"type"`
	Term      string    `json:"term"`
	Levels    []string  `json:"levels"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MakeCardID returns the stable composite id for a type and term.
func MakeCardID(cardType CardType, term string) string {
	return string(cardType) + ":" + term
}

// ParseCardID splits a composite card id into its type and term.
func ParseCardID(id string) (CardType, string, error) {
	prefix, term, ok := strings.Cut(id, ":")
	if !ok || term == "" {
		return "", "", NewValidationError("card_id", "must have the form type:term", ErrInvalidID)
	}
	cardType := CardType(prefix)
	if !cardType.Valid() {
		return "", "", NewValidationError("card_id", "has unknown card type", ErrInvalidID)
	}
	return cardType, term, nil
}

// NewCard creates a card for the given type and term, tagged with levels.
func NewCard(cardType CardType, term string, levels []string, now time.Time) (*Card, error) {
	card := &Card{
		ID:        MakeCardID(cardType, term),
		Type:      cardType,
		Term:      term,
		Levels:    slices.Clone(levels),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if card.Levels == nil {
		card.Levels = []string{}
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// Validate checks that the card's identity is consistent.
func (c *Card) Validate() error {
	if !c.Type.Valid() {
		return NewValidationError("type", "is not a known card type", ErrValidation)
	}
	if strings.TrimSpace(c.Term) == "" {
		return NewValidationError("term", "cannot be empty", ErrValidation)
	}
	if c.ID != MakeCardID(c.Type, c.Term) {
		return NewValidationError("id", "does not match type and term", ErrInvalidID)
	}
	return nil
}

// HasLevel reports whether the card carries the given taxonomy:level tag.
func (c *Card) HasLevel(tag string) bool {
	return slices.Contains(c.Levels, tag)
}
