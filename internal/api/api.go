package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/engine"
	"github.com/dqninh/classclash/internal/errors"
	"github.com/dqninh/classclash/internal/score"
)

// ScoreService is the write side of the score store.
type ScoreService interface {
	SubmitScore(ctx context.Context, req score.SubmitScoreRequest) (*domain.ScoreRecord, error)
	DeleteScore(ctx context.Context, req score.DeleteScoreRequest) error
}

// LeaderboardService is the read side.
type LeaderboardService interface {
	Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error)
}

type Config struct {
	Router      *gin.Engine
	Score       ScoreService
	Leaderboard LeaderboardService

	// NewEngine builds a fresh session engine per websocket connection.
	NewEngine func() *engine.Engine
}

type API struct {
	ss        ScoreService
	ls        LeaderboardService
	newEngine func() *engine.Engine
}

func New(c Config) *API {
	a := &API{
		ss:        c.Score,
		ls:        c.Leaderboard,
		newEngine: c.NewEngine,
	}

	c.Router.POST("/api/scores", a.submitScore)
	c.Router.GET("/api/leaderboard", a.leaderboard)
	c.Router.DELETE("/api/scores/:id", a.deleteScore)
	if a.newEngine != nil {
		c.Router.GET("/api/session/ws", a.serveSession)
	}

	return a
}

type submitScoreRequest struct {
	Name           string  `json:"name"`
	Grade          string  `json:"grade"`
	Category       string  `json:"category"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
	GradeLetter    string  `json:"grade_letter"`
}

func (a *API) submitScore(c *gin.Context) {
	var req submitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid body: %v", err)))
		return
	}

	_, err := a.ss.SubmitScore(c.Request.Context(), score.SubmitScoreRequest{
		Name:           req.Name,
		Grade:          req.Grade,
		Category:       req.Category,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Percentage:     req.Percentage,
		GradeLetter:    req.GradeLetter,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) leaderboard(c *gin.Context) {
	records, err := a.ls.Leaderboard(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	if records == nil {
		records = []domain.ScoreRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (a *API) deleteScore(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid id: %s", c.Param("id"))))
		return
	}

	if err := a.ss.DeleteScore(c.Request.Context(), score.DeleteScoreRequest{ID: id}); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func abortWithError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"success": false, "error": e.Message})
}
