package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dqninh/classclash/internal/dashboard"
	"github.com/dqninh/classclash/internal/domain"
)

// QuestionSource produces a question set for a (grade, category) pair.
type QuestionSource interface {
	Questions(ctx context.Context, grade, category string) ([]domain.Question, error)
}

// ScoreStore accepts completed score records.
type ScoreStore interface {
	SubmitScore(ctx context.Context, rec domain.ScoreRecord) error
}

// Engine runs one quiz session. All state lives in a single Session value
// owned by the Run goroutine; events are processed strictly one at a time, so
// there is no parallel mutation, only interleaved completions, and those are
// generation-checked inside the reducer.
type Engine struct {
	cfg   Config
	src   QuestionSource
	store ScoreStore
	board *dashboard.View

	events  chan Event
	updates chan Snapshot
	done    chan struct{}

	// owned by the Run goroutine
	session   Session
	stopTimer context.CancelFunc
}

func New(cfg Config, src QuestionSource, store ScoreStore, board *dashboard.View) *Engine {
	return &Engine{
		cfg:     cfg.withDefaults(),
		src:     src,
		store:   store,
		board:   board,
		events:  make(chan Event, 64),
		updates: make(chan Snapshot, 16),
		done:    make(chan struct{}),
	}
}

// Post feeds one event into the engine. It blocks until the event is queued
// or the engine has stopped.
func (e *Engine) Post(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// Updates delivers a snapshot after every processed event. Slow consumers
// miss intermediate snapshots, never the latest one.
func (e *Engine) Updates() <-chan Snapshot {
	return e.updates
}

// Run processes events until ctx is done. It owns the session; nothing else
// reads or writes it.
func (e *Engine) Run(ctx context.Context) {
	e.session = NewSession()
	e.execute(ctx, cmdScheduleSplash{gen: e.session.Gen})
	e.emit()

	defer func() {
		if e.stopTimer != nil {
			e.stopTimer()
		}
		close(e.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			next, cmds := e.cfg.Apply(e.session, ev)
			e.session = next
			for _, cmd := range cmds {
				e.execute(ctx, cmd)
			}
			e.emit()
		}
	}
}

// execute runs one command. Anything that can block runs in its own
// goroutine and reports back through Post, tagged with the generation the
// command was created under.
func (e *Engine) execute(ctx context.Context, cmd Command) {
	switch cmd := cmd.(type) {
	case cmdScheduleSplash:
		gen := cmd.gen
		go func() {
			select {
			case <-time.After(e.cfg.SplashDelay):
				e.Post(SplashDone{Gen: gen})
			case <-ctx.Done():
			}
		}()

	case cmdSchedulePINClear:
		gen := cmd.gen
		go func() {
			select {
			case <-time.After(e.cfg.PINErrorTTL):
				e.Post(PINErrorExpired{Gen: gen})
			case <-ctx.Done():
			}
		}()

	case cmdFetchQuestions:
		go e.fetchQuestions(ctx, cmd)

	case cmdStartTimer:
		if e.stopTimer != nil {
			e.stopTimer()
		}
		tctx, cancel := context.WithCancel(ctx)
		e.stopTimer = cancel
		go e.runTimer(tctx, cmd.gen)

	case cmdStopTimer:
		if e.stopTimer != nil {
			e.stopTimer()
			e.stopTimer = nil
		}

	case cmdSubmitScore:
		gen, rec := cmd.gen, cmd.rec
		go func() {
			if err := e.store.SubmitScore(ctx, rec); err != nil {
				slog.WarnContext(ctx, "engine: score submission failed", "error", err)
				e.Post(ScoreSaveFailed{Gen: gen})
				return
			}
			e.Post(ScoreSaved{Gen: gen})
		}()

	case cmdRefreshBoard:
		gen := cmd.gen
		go func() {
			notice := ""
			if err := e.board.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "engine: leaderboard refresh failed", "error", err)
				notice = "leaderboard unavailable"
			}
			e.Post(BoardRefreshed{Gen: gen, Notice: notice})
		}()

	case cmdSetFilter:
		// Synchronous and cheap; no completion event needed because emit
		// runs right after command execution.
		e.board.SetFilter(cmd.filter)

	case cmdDeleteScore:
		gen, id := cmd.gen, cmd.id
		go func() {
			notice := ""
			if err := e.board.Delete(ctx, id); err != nil {
				slog.WarnContext(ctx, "engine: score delete failed", "id", id, "error", err)
				notice = "could not delete score"
			}
			e.Post(BoardRefreshed{Gen: gen, Notice: notice})
		}()
	}
}

// fetchQuestions loads a question set and holds the loading screen for at
// least MinLoadingDelay so fast responses do not flicker.
func (e *Engine) fetchQuestions(ctx context.Context, cmd cmdFetchQuestions) {
	started := time.Now()

	qs, err := e.src.Questions(ctx, cmd.grade, cmd.category)

	if wait := e.cfg.MinLoadingDelay - time.Since(started); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}

	if err != nil {
		slog.WarnContext(ctx, "engine: question fetch failed",
			"grade", cmd.grade,
			"category", cmd.category,
			"error", err,
		)
		e.Post(QuestionsFailed{Gen: cmd.gen})
		return
	}

	e.Post(QuestionsLoaded{Gen: cmd.gen, Questions: qs})
}

func (e *Engine) runTimer(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Post(Tick{Gen: gen})
		}
	}
}

// Snapshot is the transport-facing view of the session, emitted after every
// processed event.
type Snapshot struct {
	Step       domain.Step `json:"step"`
	PlayerName string      `json:"player_name,omitempty"`
	Grade      string      `json:"grade,omitempty"`
	Category   string      `json:"category,omitempty"`

	Question       *domain.Question `json:"question,omitempty"`
	QuestionNumber int              `json:"question_number,omitempty"`
	TotalQuestions int              `json:"total_questions,omitempty"`
	Score          int              `json:"score"`
	TimeRemaining  int              `json:"time_remaining,omitempty"`

	PINError  bool   `json:"pin_error,omitempty"`
	LoadError bool   `json:"load_error,omitempty"`
	SaveError bool   `json:"save_error,omitempty"`
	Notice    string `json:"notice,omitempty"`

	Percentage  float64 `json:"percentage,omitempty"`
	GradeLetter string  `json:"grade_letter,omitempty"`

	Board  []domain.ScoreRecord `json:"board,omitempty"`
	Filter string               `json:"filter,omitempty"`
}

func (e *Engine) snapshot() Snapshot {
	s := e.session

	snap := Snapshot{
		Step:          s.Step,
		PlayerName:    s.PlayerName,
		Grade:         s.Grade,
		Category:      s.Category,
		Score:         s.Score,
		TimeRemaining: s.TimeRemaining,
		PINError:      s.PINError,
		LoadError:     s.LoadError,
		SaveError:     s.SaveError,
		Notice:        s.Notice,
	}

	if s.Step == domain.StepGame && s.CurrentIndex < len(s.Questions) {
		q := s.Questions[s.CurrentIndex]
		snap.Question = &q
		snap.QuestionNumber = s.CurrentIndex + 1
		snap.TotalQuestions = len(s.Questions)
	}

	if s.Step == domain.StepResult || s.Step == domain.StepSaveForm {
		snap.TotalQuestions = len(s.Questions)
		p := domain.Percentage(s.Score, len(s.Questions))
		snap.Percentage = p.InexactFloat64()
		snap.GradeLetter = domain.GradeLetter(p)
	}

	if s.Step == domain.StepDashboard {
		snap.Board = e.board.Records()
		snap.Filter = e.board.Filter()
	}

	return snap
}

// emit publishes the current snapshot, displacing a stale undelivered one if
// the consumer is slow.
func (e *Engine) emit() {
	snap := e.snapshot()
	for {
		select {
		case e.updates <- snap:
			return
		default:
			select {
			case <-e.updates:
			default:
			}
		}
	}
}
