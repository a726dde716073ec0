package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
)

// Seed inserts the curriculum's kanji cards that are missing and adds missing
// level tags to existing ones. Running it again changes nothing.
// It returns the number of cards processed.
func Seed(ctx context.Context, cards store.CardStore, c *Curriculum, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	all := c.Cards(now)
	for _, card := range all {
		if err := cards.EnsureCard(ctx, card); err != nil {
			return 0, fmt.Errorf("failed to seed card %s: %w", card.ID, err)
		}
	}

	log.Info("curriculum seeded", slog.Int("cards", len(all)), slog.Int("levels", len(c.Levels())))
	return len(all), nil
}
