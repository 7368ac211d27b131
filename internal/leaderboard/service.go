package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/event"
)

const defaultTTL = 30 * time.Second

// Lister is the authoritative source of score records.
type Lister interface {
	Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error)
}

type Config struct {
	EventBus *event.Bus
	Score    Lister
	Redis    redis.UniversalClient
	Prefix   string
	TTL      time.Duration
}

// Service caches the full leaderboard in Redis in front of the score store.
// Score submissions and deletions invalidate the cache through bus events, so
// a read after a write always reflects the store.
type Service struct {
	eb     *event.Bus
	score  Lister
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
}

func NewService(c Config) *Service {
	if c.TTL == 0 {
		c.TTL = defaultTTL
	}

	s := &Service{
		eb:     c.EventBus,
		score:  c.Score,
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    c.TTL,
	}

	s.eb.Subscribe(domain.EventNameScoreSubmitted, func(ctx context.Context, _ event.Event) error {
		return s.invalidate(ctx)
	})
	s.eb.Subscribe(domain.EventNameScoreDeleted, func(ctx context.Context, _ event.Event) error {
		return s.invalidate(ctx)
	})

	return s
}

// Leaderboard returns all score records, serving from cache when possible.
// Cache failures degrade to the store rather than failing the read.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	if records, ok := s.cached(ctx); ok {
		return records, nil
	}

	v, err, _ := s.sf.Do("leaderboard", func() (any, error) {
		// Re-check in case a concurrent caller filled the cache.
		if records, ok := s.cached(ctx); ok {
			return records, nil
		}

		records, err := s.score.Leaderboard(ctx)
		if err != nil {
			return nil, err
		}

		if b, err := json.Marshal(records); err == nil {
			if err := s.redis.Set(ctx, s.key(), b, s.ttl).Err(); err != nil {
				slog.WarnContext(ctx, "leaderboard: cache fill failed", "error", err)
			}
		}

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.ScoreRecord), nil
}

func (s *Service) cached(ctx context.Context) ([]domain.ScoreRecord, bool) {
	b, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		return nil, false
	}

	var records []domain.ScoreRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (s *Service) invalidate(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}
	return nil
}

func (s *Service) key() string {
	return fmt.Sprintf("%s:leaderboard", s.prefix)
}
