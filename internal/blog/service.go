// Package blog owns post mutations and the reaction ledger. Every create and
// content edit passes through the sentiment gate, and every edit, delete and
// reaction runs as one locked read-modify-write on the post.
package blog

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/metrics"
	"github.com/sujalbistaa/chronicles/internal/permission"
	"github.com/sujalbistaa/chronicles/internal/sentiment"
	"github.com/sujalbistaa/chronicles/internal/store"
)

// Store is the subset of persistence the service needs.
type Store interface {
	store.PostStore
	store.ReactionStore
}

type Classifier interface {
	Classify(text string) (sentiment.Result, error)
}

type Service struct {
	store      Store
	classifier Classifier
	perms      permission.Resolver
	clock      clockwork.Clock
	notifier   Notifier
	metrics    *metrics.Metrics
	newID      func() string
}

type Option func(*Service)

func WithResolver(r permission.Resolver) Option {
	return func(s *Service) { s.perms = r }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st Store, classifier Classifier, opts ...Option) *Service {
	s := &Service{
		store:      st,
		classifier: classifier,
		perms:      permission.NameResolver{},
		clock:      clockwork.NewRealClock(),
		notifier:   Notifiers(nil),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// screen runs the sentiment gate and converts a rejection into an error that
// carries the scores.
func (s *Service) screen(content string) (sentiment.Scores, error) {
	res, err := s.classifier.Classify(content)
	if err != nil {
		return sentiment.Scores{}, apperr.Internal("sentiment analysis failed", err)
	}
	s.metrics.ObserveVerdict(res.Verdict.String())
	if res.Verdict == sentiment.Reject {
		return res.Scores, apperr.SentimentRejected(res.Message).WithContext("scores", res.Scores)
	}
	return res.Scores, nil
}

func storageError(message string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Blog not found")
	}
	var structured *apperr.Error
	if errors.As(err, &structured) {
		return structured
	}
	return apperr.Unavailable(message, err)
}
