// Package analytics serves read-only aggregations over the post collection.
// Results are cached and dropped whenever a post or reaction changes.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/blog"
	"github.com/sujalbistaa/chronicles/internal/logging"
	"github.com/sujalbistaa/chronicles/internal/metrics"
	"github.com/sujalbistaa/chronicles/internal/store"
)

const topLikedLimit = 5

const (
	keyCompanyCount     = "company-count"
	keyCompanySentiment = "company-sentiment"
	keyEngagement       = "engagement"
	keyTopLiked         = "top-liked"
	keyTimeline         = "timeline"
)

var allKeys = []string{keyCompanyCount, keyCompanySentiment, keyEngagement, keyTopLiked, keyTimeline}

type TopLiked struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	LikesCount int64  `json:"likes_count"`
}

type TimelineBucket struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type Service struct {
	store   store.AnalyticsStore
	cache   Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics

	// gen advances on every invalidation; loads started under an older
	// generation are not written back.
	gen atomic.Uint64
}

func NewService(st store.AnalyticsStore, cache Cache, ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{store: st, cache: cache, ttl: ttl, metrics: m}
}

// cached serves key from the cache, loading and storing it on a miss.
// Concurrent misses for the same key and generation share one load, which
// runs detached from any single caller's cancellation.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("Analytics cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			s.metrics.ObserveCache(true)
			return v, nil
		}
	}
	s.metrics.ObserveCache(false)

	gen := s.gen.Load()
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		result, err := load(shared)
		if err != nil {
			return nil, err
		}
		if s.gen.Load() != gen {
			return result, nil
		}
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(shared, key, raw, s.ttl); err != nil {
				slog.Warn("Analytics cache write failed", "key", key, "error", err)
			}
			// An invalidation may have landed between the check and the write.
			if s.gen.Load() != gen {
				_ = s.cache.Delete(shared, key)
			}
		}
		return result, nil
	})
	if err != nil {
		return zero, apperr.Unavailable("failed to load analytics", err)
	}
	return v.(T), nil
}

func (s *Service) CompanyCounts(ctx context.Context) ([]store.CompanyCount, error) {
	return cached(ctx, s, keyCompanyCount, s.store.CompanyCounts)
}

// CompanySentiment averages the compound score per company, rounded to three
// decimal places.
func (s *Service) CompanySentiment(ctx context.Context) ([]store.CompanySentiment, error) {
	return cached(ctx, s, keyCompanySentiment, func(ctx context.Context) ([]store.CompanySentiment, error) {
		rows, err := s.store.CompanySentiment(ctx)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].AvgCompound = math.Round(rows[i].AvgCompound*1000) / 1000
		}
		return rows, nil
	})
}

func (s *Service) Engagement(ctx context.Context) ([]store.Engagement, error) {
	return cached(ctx, s, keyEngagement, s.store.Engagement)
}

func (s *Service) TopLiked(ctx context.Context) ([]TopLiked, error) {
	return cached(ctx, s, keyTopLiked, func(ctx context.Context) ([]TopLiked, error) {
		rows, err := s.store.TopLiked(ctx, topLikedLimit)
		if err != nil {
			return nil, err
		}
		out := make([]TopLiked, 0, len(rows))
		for _, r := range rows {
			out = append(out, TopLiked{ID: r.ID, Title: r.Title, Company: r.Company, LikesCount: r.Likes})
		}
		return out, nil
	})
}

// Timeline counts posts per calendar month (UTC), oldest first.
func (s *Service) Timeline(ctx context.Context) ([]TimelineBucket, error) {
	return cached(ctx, s, keyTimeline, func(ctx context.Context) ([]TimelineBucket, error) {
		stamps, err := s.store.PostTimestamps(ctx)
		if err != nil {
			return nil, err
		}
		out := []TimelineBucket{}
		for _, ts := range stamps {
			ts = ts.UTC()
			year, month := ts.Year(), int(ts.Month())
			if n := len(out); n > 0 && out[n-1].Year == year && out[n-1].Month == month {
				out[n-1].Count++
				continue
			}
			out = append(out, TimelineBucket{Year: year, Month: month, Count: 1})
		}
		return out, nil
	})
}

// Notify drops every cached aggregation after a post mutation.
func (s *Service) Notify(ctx context.Context, ev blog.Event) {
	s.gen.Add(1)
	if err := s.cache.Delete(ctx, allKeys...); err != nil {
		logging.WithError(err).Warn("Analytics cache invalidation failed", "event", ev.Type)
	}
}
