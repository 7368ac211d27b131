package score

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/errors"
	"github.com/dqninh/classclash/internal/event"
)

var (
	submittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classclash_scores_submitted_total",
		Help: "Score records inserted.",
	})
	deletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classclash_scores_deleted_total",
		Help: "Score records deleted.",
	})
)

type Config struct {
	EventBus *event.Bus
	DB       *pgxpool.Pool
}

type Service struct {
	eb *event.Bus
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		eb: c.EventBus,
		db: c.DB,
	}
}

type SubmitScoreRequest struct {
	Name           string
	Grade          string
	Category       string
	Score          int
	TotalQuestions int
	Percentage     float64
	GradeLetter    string
}

// SubmitScore inserts one score record. The store assigns id and created_at.
func (s *Service) SubmitScore(ctx context.Context, req SubmitScoreRequest) (*domain.ScoreRecord, error) {
	if err := validateSubmit(&req); err != nil {
		return nil, err
	}

	const stmt = `
INSERT INTO scores (name, grade, category, score, total_questions, percentage, grade_letter)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at;`

	rec := domain.ScoreRecord{
		Name:           req.Name,
		Grade:          req.Grade,
		Category:       req.Category,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Percentage:     req.Percentage,
		GradeLetter:    req.GradeLetter,
	}

	err := s.db.QueryRow(ctx, stmt,
		rec.Name, rec.Grade, rec.Category, rec.Score, rec.TotalQuestions, rec.Percentage, rec.GradeLetter,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert score: %w", err)
	}

	submittedTotal.Inc()
	s.eb.Publish(ctx, domain.EventScoreSubmitted{Record: rec})

	return &rec, nil
}

// Leaderboard returns every score record, ordered by grade ascending,
// category ascending, score descending, then recency.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	const stmt = `
SELECT id, name, grade, category, score, total_questions, percentage, grade_letter, created_at
FROM scores
ORDER BY grade::int ASC, category ASC, score DESC, created_at DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ScoreRecord, error) {
		var rec domain.ScoreRecord
		err := r.Scan(&rec.ID, &rec.Name, &rec.Grade, &rec.Category,
			&rec.Score, &rec.TotalQuestions, &rec.Percentage, &rec.GradeLetter, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect leaderboard: %w", err)
	}

	return records, nil
}

type DeleteScoreRequest struct {
	ID int64
}

// DeleteScore removes one record by id. Deleting an id that does not exist
// is not an error.
func (s *Service) DeleteScore(ctx context.Context, req DeleteScoreRequest) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM scores WHERE id = $1;`, req.ID)
	if err != nil {
		return fmt.Errorf("delete score: %w", err)
	}

	if tag.RowsAffected() > 0 {
		deletedTotal.Inc()
	}
	s.eb.Publish(ctx, domain.EventScoreDeleted{ID: req.ID})

	return nil
}

func validateSubmit(req *SubmitScoreRequest) error {
	if req.Name == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("name is required"))
	}
	if !domain.ValidGrade(req.Grade) {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown grade: %s", req.Grade))
	}
	if !domain.ValidCategory(req.Category) {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown category: %s", req.Category))
	}
	if req.TotalQuestions <= 0 {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("total_questions must be positive"))
	}
	if req.Score < 0 || req.Score > req.TotalQuestions {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("score %d out of range [0, %d]", req.Score, req.TotalQuestions))
	}

	if req.GradeLetter == "" {
		p := domain.Percentage(req.Score, req.TotalQuestions)
		req.Percentage = p.InexactFloat64()
		req.GradeLetter = domain.GradeLetter(p)
	}

	return nil
}
