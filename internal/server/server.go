package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dqninh/classclash/internal/api"
	"github.com/dqninh/classclash/internal/dashboard"
	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/engine"
	"github.com/dqninh/classclash/internal/event"
	"github.com/dqninh/classclash/internal/leaderboard"
	"github.com/dqninh/classclash/internal/question"
	"github.com/dqninh/classclash/internal/score"
	"github.com/dqninh/classclash/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Score struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Question struct {
		BaseURL string
		APIKey  string
		Model   string
	}

	Game struct {
		PIN        string
		TimeBudget int
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		score       *score.Service
		leaderboard *leaderboard.Service
		questions   *question.Generator
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Leaderboard.Addrs,
		Password: s.c.Redis.Leaderboard.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg := s.c.Postgres.Score
	db, err := ConnectPostgres(ctx, pg.Addr, pg.User, pg.Pass, pg.Name)
	if err != nil {
		return err
	}

	s.infra.postgres = db
	return nil
}

// ConnectPostgres opens and pings a pool. The migrate command uses it too.
func ConnectPostgres(ctx context.Context, addr, user, pass, name string) (*pgxpool.Pool, error) {
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *Server) initService() {
	s.service.score = score.NewService(score.Config{
		EventBus: s.eb,
		DB:       s.infra.postgres,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Score:    s.service.score,
		Redis:    s.infra.redis,
		Prefix:   s.c.Redis.Leaderboard.Prefix,
	})

	s.service.questions = question.NewGenerator(question.Config{
		BaseURL: s.c.Question.BaseURL,
		APIKey:  s.c.Question.APIKey,
		Model:   s.c.Question.Model,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery(), telemetry.HTTPMiddleware())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/healthz", s.healthz)
	pprof.Register(e, "/debug/pprof")

	api.New(api.Config{
		Router:      e,
		Score:       s.service.score,
		Leaderboard: s.service.leaderboard,
		NewEngine:   s.newEngine,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// newEngine wires a fresh session engine against the in-process services.
func (s *Server) newEngine() *engine.Engine {
	store := sessionStores{score: s.service.score, board: s.service.leaderboard}
	return engine.New(engine.Config{
		PIN:        s.c.Game.PIN,
		TimeBudget: s.c.Game.TimeBudget,
	}, s.service.questions, store, dashboard.NewView(store))
}

// sessionStores adapts the score and leaderboard services to the narrow
// interfaces a session engine consumes.
type sessionStores struct {
	score *score.Service
	board *leaderboard.Service
}

func (a sessionStores) SubmitScore(ctx context.Context, rec domain.ScoreRecord) error {
	_, err := a.score.SubmitScore(ctx, score.SubmitScoreRequest{
		Name:           rec.Name,
		Grade:          rec.Grade,
		Category:       rec.Category,
		Score:          rec.Score,
		TotalQuestions: rec.TotalQuestions,
		Percentage:     rec.Percentage,
		GradeLetter:    rec.GradeLetter,
	})
	return err
}

func (a sessionStores) Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	return a.board.Leaderboard(ctx)
}

func (a sessionStores) DeleteScore(ctx context.Context, id int64) error {
	return a.score.DeleteScore(ctx, score.DeleteScoreRequest{ID: id})
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.infra.postgres.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "postgres unreachable"})
		return
	}
	if err := s.infra.redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	s.infra.postgres.Close()
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
