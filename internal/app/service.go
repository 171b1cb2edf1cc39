package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service is the live quiz engine: lifecycle, timer, intake, policy and
// ranking over a shared Store.
type Service struct {
	store   Store
	quizzes QuizCache
	hub     *Hub
	now     Clock
	codes   CodeGenerator
	tokens  func() string
	logger  *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the system clock, mainly for deterministic tests.
func WithClock(now Clock) Option {
	return func(s *Service) { s.now = now }
}

// WithQuizCache serves quiz content through cache instead of the store.
func WithQuizCache(cache QuizCache) Option {
	return func(s *Service) { s.quizzes = cache }
}

// WithHub publishes session events to hub.
func WithHub(hub *Hub) Option {
	return func(s *Service) { s.hub = hub }
}

// WithCodeGenerator replaces the random access code source.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.codes = gen }
}

// WithTokenGenerator replaces the participant token source.
func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) { s.tokens = gen }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		quizzes: storeQuizzes{store: store},
		hub:     NewHub(),
		now:     SystemClock,
		codes:   GenerateAccessCode,
		tokens:  uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub exposes the event fan-out for transports.
func (s *Service) Hub() *Hub {
	return s.hub
}

func (s *Service) publish(sessionID int64, kind EventKind) {
	s.hub.Publish(Event{SessionID: sessionID, Kind: kind, At: s.now()})
}

// invalidate drops cached quiz content after an authoring edit. A failure
// only delays freshness until the cache TTL, so it is logged, not returned.
func (s *Service) invalidate(ctx context.Context, quizID int64) {
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		s.logger.Warn("quiz cache invalidation failed", "quiz_id", quizID, "error", err)
	}
}
