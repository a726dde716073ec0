package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
)

// CardStore implements the store.CardStore interface on database/sql.
type CardStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// NewCardStore creates a new CardStore.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewCardStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *CardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "card_store")),
		now:     time.Now,
	}
}

// Ensure CardStore implements store.CardStore interface
var _ store.CardStore = (*CardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, dialect: s.dialect, logger: s.logger, now: s.now}
}

func (s *CardStore) q(query string) string {
	return rebind(s.dialect, query)
}

func scanCard(row interface{ Scan(...any) error }) (*domain.Card, error) {
	var (
		c                domain.Card
		cardType         string
		created, updated int64
	)
	if err := row.Scan(&c.ID, &cardType, &c.Term, &created, &updated); err != nil {
		return nil, err
	}
	c.Type = domain.CardType(cardType)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	c.Levels = []string{}
	return &c, nil
}

// GetByID implements store.CardStore.GetByID
func (s *CardStore) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, type, term, created_at, updated_at
		FROM cards
		WHERE id = ?`), id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCardNotFound
	}
	if err != nil {
		log.Error("failed to get card", slog.String("card_id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get card: %w", MapError(err))
	}

	if err := s.loadLevels(ctx, map[string]*domain.Card{card.ID: card}); err != nil {
		return nil, err
	}
	return card, nil
}

// GetByIDs implements store.CardStore.GetByIDs
func (s *CardStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	cards := make(map[string]*domain.Card, len(ids))

	for _, chunk := range chunks(ids) {
		rows, err := s.db.QueryContext(ctx, s.q(`
			SELECT id, type, term, created_at, updated_at
			FROM cards
			WHERE id IN (`+placeholders(len(chunk))+`)`), stringArgs(chunk)...)
		if err != nil {
			log.Error("failed to query cards", slog.Int("count", len(chunk)), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to query cards: %w", MapError(err))
		}
		for rows.Next() {
			card, err := scanCard(rows)
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan card row: %w", err)
			}
			cards[card.ID] = card
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating card rows: %w", err)
		}
	}

	if err := s.loadLevels(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// loadLevels fills Levels for every card in cards.
func (s *CardStore) loadLevels(ctx context.Context, cards map[string]*domain.Card) error {
	if len(cards) == 0 {
		return nil
	}
	ids := make([]string, 0, len(cards))
	for id := range cards {
		ids = append(ids, id)
	}

	for _, chunk := range chunks(ids) {
		rows, err := s.db.QueryContext(ctx, s.q(`
			SELECT card_id, level_tag
			FROM card_levels
			WHERE card_id IN (`+placeholders(len(chunk))+`)
			ORDER BY card_id, level_tag`), stringArgs(chunk)...)
		if err != nil {
			return fmt.Errorf("failed to query card levels: %w", MapError(err))
		}
		for rows.Next() {
			var cardID, tag string
			if err := rows.Scan(&cardID, &tag); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan card level: %w", err)
			}
			if c, ok := cards[cardID]; ok {
				c.Levels = append(c.Levels, tag)
			}
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return fmt.Errorf("error iterating card levels: %w", err)
		}
	}
	return nil
}

// EnsureStub implements store.CardStore.EnsureStub
func (s *CardStore) EnsureStub(ctx context.Context, id string, cardType domain.CardType, term string) (*domain.Card, error) {
	card, err := domain.NewCard(cardType, term, nil, s.now())
	if err != nil {
		return nil, err
	}
	if card.ID != id {
		return nil, domain.NewValidationError("id", "does not match type and term", domain.ErrInvalidID)
	}
	if err := s.insertCard(ctx, card); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// stubColumns is the number of bind parameters per row in EnsureStubs.
const stubColumns = 5

// EnsureStubs implements store.CardStore.EnsureStubs
func (s *CardStore) EnsureStubs(ctx context.Context, items []domain.DeckItem) error {
	now := toMillis(s.now())
	seen := make(map[string]struct{}, len(items))
	args := make([]any, 0, len(items)*stubColumns)
	for _, item := range items {
		card, err := domain.NewCard(item.Type, item.Term, nil, s.now())
		if err != nil {
			return err
		}
		if _, dup := seen[card.ID]; dup {
			continue
		}
		seen[card.ID] = struct{}{}
		args = append(args, card.ID, string(card.Type), card.Term, now, now)
	}

	for len(args) > 0 {
		n := min(len(args), maxInArgs-maxInArgs%stubColumns)
		batch := args[:n]
		args = args[n:]

		rows := make([]string, n/stubColumns)
		for i := range rows {
			rows[i] = "(" + placeholders(stubColumns) + ")"
		}
		_, err := s.db.ExecContext(ctx, s.q(`
			INSERT INTO cards (id, type, term, created_at, updated_at)
			VALUES `+strings.Join(rows, ", ")+`
			ON CONFLICT (id) DO NOTHING`), batch...)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert card stubs",
				slog.Int("cards", len(rows)),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to insert card stubs: %w", MapError(err))
		}
	}
	return nil
}

// EnsureCard implements store.CardStore.EnsureCard
func (s *CardStore) EnsureCard(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if err := s.insertCard(ctx, card); err != nil {
		return err
	}

	for _, tag := range card.Levels {
		_, err := s.db.ExecContext(ctx, s.q(`
			INSERT INTO card_levels (card_id, level_tag)
			VALUES (?, ?)
			ON CONFLICT (card_id, level_tag) DO NOTHING`), card.ID, tag)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to tag card",
				slog.String("card_id", card.ID),
				slog.String("level_tag", tag),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to tag card: %w", MapError(err))
		}
	}
	return nil
}

func (s *CardStore) insertCard(ctx context.Context, card *domain.Card) error {
	created := card.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO cards (id, type, term, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		card.ID, string(card.Type), card.Term, toMillis(created), toMillis(created))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert card",
			slog.String("card_id", card.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert card: %w", MapError(err))
	}
	return nil
}

// NextUntouched implements store.CardStore.NextUntouched
func (s *CardStore) NextUntouched(ctx context.Context, learnerID uuid.UUID, levelTag string) (*domain.Card, error) {
	query := `
		SELECT c.id, c.type, c.term, c.created_at, c.updated_at
		FROM cards c
		WHERE NOT EXISTS (
			SELECT 1 FROM memory_states m
			WHERE m.learner_id = ? AND m.card_id = c.id
		)`
	args := []any{learnerID}
	if levelTag != "" {
		query += `
		AND EXISTS (
			SELECT 1 FROM card_levels l
			WHERE l.card_id = c.id AND l.level_tag = ?
		)`
		args = append(args, levelTag)
	}
	query += `
		ORDER BY ` + byteOrder(s.dialect, "c.term") + `, ` + byteOrder(s.dialect, "c.id") + `
		LIMIT 1`

	card, err := scanCard(s.db.QueryRowContext(ctx, s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCardNotFound
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find untouched card",
			slog.String("learner_id", learnerID.String()),
			slog.String("level_tag", levelTag),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to find untouched card: %w", MapError(err))
	}
	if err := s.loadLevels(ctx, map[string]*domain.Card{card.ID: card}); err != nil {
		return nil, err
	}
	return card, nil
}

// Count implements store.CardStore.Count
func (s *CardStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", MapError(err))
	}
	return n, nil
}
