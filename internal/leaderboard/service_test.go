package leaderboard_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/event"
	"github.com/dqninh/classclash/internal/leaderboard"
)

type fakeLister struct {
	records []domain.ScoreRecord
	calls   atomic.Int64
}

func (f *fakeLister) Leaderboard(context.Context) ([]domain.ScoreRecord, error) {
	f.calls.Add(1)
	return f.records, nil
}

func TestService_Leaderboard_CachesStore(t *testing.T) {
	lister := &fakeLister{records: someRecords()}
	s, _ := makeService(t, lister, event.NewBus())

	first, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, lister.records, first)

	second, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.EqualValues(t, 1, lister.calls.Load(), "second read should come from cache")
}

func TestService_Leaderboard_InvalidatedBySubmit(t *testing.T) {
	lister := &fakeLister{records: someRecords()}
	eb := event.NewBus()
	s, _ := makeService(t, lister, eb)

	_, err := s.Leaderboard(context.Background())
	require.NoError(t, err)

	lister.records = append(lister.records, domain.ScoreRecord{
		ID: 3, Name: "Chi", Grade: "8", Category: "Science", Score: 11, TotalQuestions: 12,
	})
	eb.Publish(context.Background(), domain.EventScoreSubmitted{Record: lister.records[len(lister.records)-1]})
	eb.Stop()

	refreshed, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, refreshed, 3, "cache must be refilled from the store after a submit")
	require.EqualValues(t, 2, lister.calls.Load())
}

func TestService_Leaderboard_InvalidatedByDelete(t *testing.T) {
	lister := &fakeLister{records: someRecords()}
	eb := event.NewBus()
	s, _ := makeService(t, lister, eb)

	_, err := s.Leaderboard(context.Background())
	require.NoError(t, err)

	lister.records = lister.records[:1]
	eb.Publish(context.Background(), domain.EventScoreDeleted{ID: 2})
	eb.Stop()

	refreshed, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
}

func TestService_Leaderboard_ExpiredCacheRefetches(t *testing.T) {
	lister := &fakeLister{records: someRecords()}
	s, rs := makeService(t, lister, event.NewBus())

	_, err := s.Leaderboard(context.Background())
	require.NoError(t, err)

	rs.FastForward(time.Minute)

	_, err = s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, lister.calls.Load())
}

func makeService(t *testing.T, lister leaderboard.Lister, eb *event.Bus) (*leaderboard.Service, *miniredis.Miniredis) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return leaderboard.NewService(leaderboard.Config{
		EventBus: eb,
		Score:    lister,
		Redis:    rc,
		Prefix:   "classclash-test",
		TTL:      30 * time.Second,
	}), rs
}

func someRecords() []domain.ScoreRecord {
	createdAt := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	return []domain.ScoreRecord{
		{ID: 1, Name: "An", Grade: "4", Category: "English", Score: 9, TotalQuestions: 12, Percentage: 75, GradeLetter: "B", CreatedAt: createdAt},
		{ID: 2, Name: "Binh", Grade: "4", Category: "Science", Score: 12, TotalQuestions: 12, Percentage: 100, GradeLetter: "A+", CreatedAt: createdAt},
	}
}
