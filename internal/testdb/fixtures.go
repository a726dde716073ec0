package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/stretchr/testify/require"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertCard creates a card with the given level tags and returns its id.
func InsertCard(t *testing.T, db Execer, dialect database.Dialect, cardType domain.CardType, term string, levels ...string) string {
	t.Helper()
	ctx := context.Background()
	id := domain.MakeCardID(cardType, term)
	now := time.Now().UnixMilli()

	_, err := db.ExecContext(ctx, database.Rebind(dialect,
		`INSERT INTO cards (id, type, term, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		id, string(cardType), term, now, now)
	require.NoError(t, err, "Failed to insert card %s", id)

	for _, tag := range levels {
		_, err := db.ExecContext(ctx, database.Rebind(dialect,
			`INSERT INTO card_levels (card_id, level_tag) VALUES (?, ?)`), id, tag)
		require.NoError(t, err, "Failed to tag card %s", id)
	}
	return id
}

// InsertDeck creates a deck with items in the given order. A nil owner makes a shared deck.
func InsertDeck(t *testing.T, db Execer, dialect database.Dialect, owner *uuid.UUID, items ...domain.DeckItem) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	var ownerArg any
	if owner != nil {
		ownerArg = *owner
	}
	_, err := db.ExecContext(ctx, database.Rebind(dialect,
		`INSERT INTO decks (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`),
		id, ownerArg, "deck "+id.String()[:8], time.Now().UnixMilli())
	require.NoError(t, err, "Failed to insert deck")

	for _, item := range items {
		_, err := db.ExecContext(ctx, database.Rebind(dialect,
			`INSERT INTO deck_items (deck_id, type, term, position) VALUES (?, ?, ?, ?)`),
			id, string(item.Type), item.Term, item.Position)
		require.NoError(t, err, "Failed to insert deck item %s", item.Term)
	}
	return id
}

// InsertLevelOverride stores an explicit term order for a level.
func InsertLevelOverride(t *testing.T, db Execer, dialect database.Dialect, taxonomy, level string, terms ...string) {
	t.Helper()
	for i, term := range terms {
		_, err := db.ExecContext(context.Background(), database.Rebind(dialect,
			`INSERT INTO standard_deck_items (taxonomy, level_id, term, position) VALUES (?, ?, ?, ?)`),
			taxonomy, level, term, i)
		require.NoError(t, err, "Failed to insert override term %s", term)
	}
}
