package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
)

// ScopeStore implements the read-only store.ScopeStore interface on database/sql.
type ScopeStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

// NewScopeStore creates a new ScopeStore.
// If logger is nil, a default logger will be used.
func NewScopeStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *ScopeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "scope_store")),
	}
}

// Ensure ScopeStore implements store.ScopeStore interface
var _ store.ScopeStore = (*ScopeStore)(nil)

// ListDeckItems implements store.ScopeStore.ListDeckItems
func (s *ScopeStore) ListDeckItems(ctx context.Context, learnerID, deckID uuid.UUID) ([]domain.DeckItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var one int
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT 1
		FROM decks
		WHERE id = ? AND (owner_id = ? OR owner_id IS NULL)`), deckID, learnerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDeckNotFound
	}
	if err != nil {
		log.Error("failed to look up deck", slog.String("deck_id", deckID.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to look up deck: %w", MapError(err))
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT type, term, position
		FROM deck_items
		WHERE deck_id = ?
		ORDER BY position, `+byteOrder(s.dialect, "type")+`, `+byteOrder(s.dialect, "term")), deckID)
	if err != nil {
		log.Error("failed to list deck items", slog.String("deck_id", deckID.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list deck items: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	items := []domain.DeckItem{}
	for rows.Next() {
		var (
			item     domain.DeckItem
			cardType string
		)
		if err := rows.Scan(&cardType, &item.Term, &item.Position); err != nil {
			return nil, fmt.Errorf("failed to scan deck item: %w", err)
		}
		item.Type = domain.CardType(cardType)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck items: %w", err)
	}
	return items, nil
}

// ListDeckIDs implements store.ScopeStore.ListDeckIDs
func (s *ScopeStore) ListDeckIDs(ctx context.Context, learnerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT id
		FROM decks
		WHERE owner_id = ? OR owner_id IS NULL
		ORDER BY created_at, id`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deck id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return ids, nil
}

// ListLevelOverride implements store.ScopeStore.ListLevelOverride
func (s *ScopeStore) ListLevelOverride(ctx context.Context, taxonomy, level string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT term
		FROM standard_deck_items
		WHERE taxonomy = ? AND level_id = ?
		ORDER BY position, `+byteOrder(s.dialect, "term")), taxonomy, level)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list level override",
			slog.String("taxonomy", taxonomy),
			slog.String("level", level),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list level override: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	terms := []string{}
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("failed to scan override term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override terms: %w", err)
	}
	return terms, nil
}
