package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqninh/classclash/internal/api"
	"github.com/dqninh/classclash/internal/client"
	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/errors"
	"github.com/dqninh/classclash/internal/score"
)

// memScores backs the real HTTP handlers with an in-memory list, so the
// client is exercised against the actual routes and status codes.
type memScores struct {
	nextID  int64
	records []domain.ScoreRecord
}

func (m *memScores) SubmitScore(_ context.Context, req score.SubmitScoreRequest) (*domain.ScoreRecord, error) {
	if req.Name == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("name is required"))
	}

	m.nextID++
	rec := domain.ScoreRecord{
		ID:             m.nextID,
		Name:           req.Name,
		Grade:          req.Grade,
		Category:       req.Category,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Percentage:     req.Percentage,
		GradeLetter:    req.GradeLetter,
		CreatedAt:      time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	m.records = append(m.records, rec)
	return &rec, nil
}

func (m *memScores) DeleteScore(_ context.Context, req score.DeleteScoreRequest) error {
	kept := m.records[:0:0]
	for _, rec := range m.records {
		if rec.ID != req.ID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *memScores) Leaderboard(_ context.Context) ([]domain.ScoreRecord, error) {
	return m.records, nil
}

func makeClient(t *testing.T) (*client.Client, *memScores) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	mem := &memScores{}
	api.New(api.Config{Router: r, Score: mem, Leaderboard: mem})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return client.New(client.Config{BaseURL: srv.URL}), mem
}

func TestClient_RoundTrip(t *testing.T) {
	c, mem := makeClient(t)
	ctx := context.Background()

	rec := domain.ScoreRecord{
		Name:           "An",
		Grade:          "8",
		Category:       "Science",
		Score:          9,
		TotalQuestions: 12,
		Percentage:     75,
		GradeLetter:    "B",
	}
	require.NoError(t, c.SubmitScore(ctx, rec))
	require.NoError(t, c.SubmitScore(ctx, domain.ScoreRecord{
		Name: "Binh", Grade: "5", Category: "English",
		Score: 6, TotalQuestions: 12, Percentage: 50, GradeLetter: "D",
	}))

	board, err := c.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "An", board[0].Name)
	assert.Equal(t, "B", board[0].GradeLetter)

	require.NoError(t, c.DeleteScore(ctx, board[0].ID))

	board, err = c.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Binh", board[0].Name)

	require.Len(t, mem.records, 1)
}

func TestClient_EmptyLeaderboard(t *testing.T) {
	c, _ := makeClient(t)

	board, err := c.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestClient_SubmitValidationError(t *testing.T) {
	c, _ := makeClient(t)

	err := c.SubmitScore(context.Background(), domain.ScoreRecord{
		Grade: "8", Category: "Science", Score: 9, TotalQuestions: 12,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
	assert.Contains(t, err.Error(), "name is required")
}

func TestClient_ServerDown(t *testing.T) {
	c := client.New(client.Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})

	err := c.SubmitScore(context.Background(), domain.ScoreRecord{Name: "An"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnavailable, errors.Convert(err).Code)
}
