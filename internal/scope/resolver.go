// Package scope resolves review scopes into ordered card ids. Levels use the
// curated order unless an override is stored; custom decks use the learner's
// item order and provision missing cards on first resolution.
package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/curriculum"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
	"golang.org/x/sync/singleflight"
)

// Resolver tells the queue which cards belong to a scope and in what order.
// A nil scope means all cards and resolves to no members. The learner decides
// which custom decks are visible: their own and shared ones.
type Resolver interface {
	// ResolveScopeMembers returns the scope's card ids in priority order.
	// An invalid, unknown or foreign scope yields an empty list, not an error.
	ResolveScopeMembers(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope) ([]string, error)

	// IsMember reports whether cardID belongs to scope.
	IsMember(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope, cardID string) (bool, error)
}

// Order sources reported by LevelResolver.Order.
const (
	OrderOverride = "override"
	OrderDefault  = "default"
)

// LevelResolver resolves level scopes.
type LevelResolver struct {
	scopes     store.ScopeStore
	cards      store.CardStore
	curriculum *curriculum.Curriculum
}

// NewLevelResolver creates a LevelResolver.
func NewLevelResolver(scopes store.ScopeStore, cards store.CardStore, c *curriculum.Curriculum) *LevelResolver {
	if scopes == nil || cards == nil || c == nil {
		panic("level resolver dependencies cannot be nil")
	}
	return &LevelResolver{scopes: scopes, cards: cards, curriculum: c}
}

// Order returns a level's kanji terms and whether they come from a stored
// override or the curated list.
func (r *LevelResolver) Order(ctx context.Context, taxonomy, level string) ([]string, string, error) {
	terms, err := r.scopes.ListLevelOverride(ctx, taxonomy, level)
	if err != nil {
		return nil, "", err
	}
	if len(terms) > 0 {
		return terms, OrderOverride, nil
	}
	terms, _ = r.curriculum.Terms(taxonomy, level)
	if terms == nil {
		terms = []string{}
	}
	return terms, OrderDefault, nil
}

// ResolveScopeMembers implements Resolver.
func (r *LevelResolver) ResolveScopeMembers(ctx context.Context, _ uuid.UUID, scope *domain.Scope) ([]string, error) {
	if scope == nil || scope.Kind != domain.ScopeKindLevel || scope.Validate() != nil {
		return []string{}, nil
	}
	terms, _, err := r.Order(ctx, scope.Taxonomy, scope.Level)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(terms))
	for i, t := range terms {
		ids[i] = domain.MakeCardID(domain.CardTypeKanji, t)
	}
	return ids, nil
}

// IsMember implements Resolver. A card belongs to a level when it carries the
// level's tag, whatever the configured order says.
func (r *LevelResolver) IsMember(ctx context.Context, _ uuid.UUID, scope *domain.Scope, cardID string) (bool, error) {
	if scope == nil || scope.Kind != domain.ScopeKindLevel || scope.Validate() != nil {
		return false, nil
	}
	card, err := r.cards.GetByID(ctx, cardID)
	if errors.Is(err, store.ErrCardNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return card.HasLevel(scope.LevelTag()), nil
}

// DeckResolver resolves custom deck scopes.
type DeckResolver struct {
	scopes store.ScopeStore
	cards  store.CardStore
}

// NewDeckResolver creates a DeckResolver.
func NewDeckResolver(scopes store.ScopeStore, cards store.CardStore) *DeckResolver {
	if scopes == nil || cards == nil {
		panic("deck resolver dependencies cannot be nil")
	}
	return &DeckResolver{scopes: scopes, cards: cards}
}

// ResolveScopeMembers implements Resolver. Cards missing for deck items are
// created as stubs; concurrent resolutions may race on the insert, which the
// store tolerates. Decks owned by another learner resolve to nothing and
// provision nothing.
func (r *DeckResolver) ResolveScopeMembers(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope) ([]string, error) {
	if scope == nil || scope.Kind != domain.ScopeKindDeck || scope.Validate() != nil {
		return []string{}, nil
	}
	items, err := r.scopes.ListDeckItems(ctx, learnerID, scope.DeckID)
	if errors.Is(err, store.ErrDeckNotFound) {
		logger.FromContext(ctx).Debug("deck scope has no visible deck",
			slog.String("deck_id", scope.DeckID.String()),
			slog.String("learner_id", learnerID.String()))
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.cards.EnsureStubs(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to provision deck %s: %w", scope.DeckID, err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.CardID()
	}
	return ids, nil
}

// IsMember implements Resolver.
func (r *DeckResolver) IsMember(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope, cardID string) (bool, error) {
	ids, err := r.ResolveScopeMembers(ctx, learnerID, scope)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, cardID), nil
}

// KindResolver dispatches to the level or deck resolver by scope kind and
// coalesces concurrent resolutions of the same scope. Level members are the
// same for every learner; deck resolutions are shared per learner only.
type KindResolver struct {
	level Resolver
	deck  Resolver
	group singleflight.Group
}

// NewKindResolver creates a KindResolver.
func NewKindResolver(level, deck Resolver) *KindResolver {
	if level == nil || deck == nil {
		panic("resolvers cannot be nil")
	}
	return &KindResolver{level: level, deck: deck}
}

// Ensure implementations satisfy Resolver
var (
	_ Resolver = (*LevelResolver)(nil)
	_ Resolver = (*DeckResolver)(nil)
	_ Resolver = (*KindResolver)(nil)
)

func (r *KindResolver) pick(scope *domain.Scope) Resolver {
	if scope == nil {
		return nil
	}
	switch scope.Kind {
	case domain.ScopeKindLevel:
		return r.level
	case domain.ScopeKindDeck:
		return r.deck
	default:
		return nil
	}
}

func flightKey(learnerID uuid.UUID, scope *domain.Scope) string {
	if scope.Kind == domain.ScopeKindDeck {
		return learnerID.String() + "|" + scope.String()
	}
	return scope.String()
}

// ResolveScopeMembers implements Resolver. The shared resolution runs
// detached from any one caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (r *KindResolver) ResolveScopeMembers(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope) ([]string, error) {
	target := r.pick(scope)
	if target == nil {
		return []string{}, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(flightKey(learnerID, scope), func() (any, error) {
		return target.ResolveScopeMembers(shared, learnerID, scope)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight must not share the slice.
		return slices.Clone(res.Val.([]string)), nil
	}
}

// IsMember implements Resolver.
func (r *KindResolver) IsMember(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope, cardID string) (bool, error) {
	target := r.pick(scope)
	if target == nil {
		return false, nil
	}
	return target.IsMember(ctx, learnerID, scope, cardID)
}
