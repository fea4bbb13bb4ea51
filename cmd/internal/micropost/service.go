package micropost

import (
	"context"
	"log/slog"

	"sampleapp/cmd/internal/metrics"
)

// Publisher receives post lifecycle events after they are committed.
// Implementations must not block.
type Publisher interface {
	MicropostCreated(p Micropost)
	MicropostDeleted(p Micropost)
}

// Service wraps a Store with feed semantics, live publishing and metrics.
type Service struct {
	store   Store
	pub     Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithPublisher sets the live event sink.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

// WithMetrics sets the metrics handle.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// NewService constructs a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Create stores a post for userID and publishes it.
func (s *Service) Create(ctx context.Context, in CreateInput) (Micropost, error) {
	p, err := s.store.Create(ctx, in)
	if err != nil {
		return Micropost{}, err
	}

	s.metrics.Micropost("created")
	s.log.Info("micropost.created", "micropost_id", p.ID, "user_id", p.UserID)
	if s.pub != nil {
		s.pub.MicropostCreated(p)
	}
	return p, nil
}

// Get returns the post with this id.
func (s *Service) Get(ctx context.Context, id string) (Micropost, bool, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns a page of the user's posts, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, page Page) ([]Micropost, int, error) {
	posts, err := s.store.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Feed returns the signed-in user's feed. The feed is the user's own posts,
// newest first.
func (s *Service) Feed(ctx context.Context, userID string, page Page) ([]Micropost, int, error) {
	return s.ListByUser(ctx, userID, page)
}

// Delete removes a post owned by ownerID and publishes the deletion.
func (s *Service) Delete(ctx context.Context, id, ownerID string) (Micropost, error) {
	p, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return Micropost{}, err
	}

	s.metrics.Micropost("deleted")
	s.log.Info("micropost.deleted", "micropost_id", p.ID, "user_id", p.UserID)
	if s.pub != nil {
		s.pub.MicropostDeleted(p)
	}
	return p, nil
}

// DeleteByUser removes every post owned by userID. It has the
// identity.DeleteHook signature, so a MemoryStore can cascade to it.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("micropost.cascade", "user_id", userID, "count", n)
	}
	return nil
}
