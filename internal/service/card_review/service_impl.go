package card_review

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain/srs"
	"github.com/phrazzld/kioku-api/internal/scope"
	"github.com/phrazzld/kioku-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/phrazzld/kioku-api/internal/service/card_review"

	defaultDuePageSize = 100
)

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

// Stores groups the persistence dependencies of the service.
type Stores struct {
	DB     store.TxBeginner
	Cards  store.CardStore
	States store.MemoryStateStore
	Logs   store.ReviewLogStore
}

// Option customizes a service created by NewCardReviewService.
type Option func(*cardReviewServiceImpl)

// WithTracerProvider sets the provider spans are created from.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *cardReviewServiceImpl) {
		s.tracer = tp.Tracer(instrumentationName)
	}
}

// WithIDGenerator replaces the review log id source.
func WithIDGenerator(next func() uuid.UUID) Option {
	return func(s *cardReviewServiceImpl) {
		s.newID = next
	}
}

// WithDuePageSize sets how many due states are read per query while
// filtering by scope.
func WithDuePageSize(n int) Option {
	return func(s *cardReviewServiceImpl) {
		if n > 0 {
			s.duePageSize = n
		}
	}
}

// cardReviewServiceImpl implements the CardReviewService interface.
type cardReviewServiceImpl struct {
	stores      Stores
	resolver    scope.Resolver
	srsService  srs.Service
	logger      *slog.Logger
	tracer      trace.Tracer
	newID       func() uuid.UUID
	duePageSize int
}

// NewCardReviewService creates a new CardReviewService implementation.
func NewCardReviewService(
	stores Stores,
	resolver scope.Resolver,
	srsService srs.Service,
	logger *slog.Logger,
	opts ...Option,
) CardReviewService {
	// Validate inputs
	if stores.DB == nil || stores.Cards == nil || stores.States == nil || stores.Logs == nil {
		panic("stores cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &cardReviewServiceImpl{
		stores:      stores,
		resolver:    resolver,
		srsService:  srsService,
		logger:      logger.With(slog.String("component", "card_review_service")),
		tracer:      otel.Tracer(instrumentationName),
		newID:       uuid.New,
		duePageSize: defaultDuePageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
