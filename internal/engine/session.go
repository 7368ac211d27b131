package engine

import (
	"strings"
	"time"

	"github.com/dqninh/classclash/internal/domain"
)

const (
	DefaultPIN             = "3630304"
	DefaultTimeBudget      = 120 // seconds
	DefaultSplashDelay     = 3 * time.Second
	DefaultPINErrorTTL     = 2 * time.Second
	DefaultMinLoadingDelay = 1500 * time.Millisecond
	DefaultTickInterval    = time.Second
)

// Config carries the fixed constants of the quiz flow. The zero value is
// usable; tests shrink the delays.
type Config struct {
	PIN             string
	TimeBudget      int
	SplashDelay     time.Duration
	PINErrorTTL     time.Duration
	MinLoadingDelay time.Duration
	TickInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.PIN == "" {
		c.PIN = DefaultPIN
	}
	if c.TimeBudget == 0 {
		c.TimeBudget = DefaultTimeBudget
	}
	if c.SplashDelay == 0 {
		c.SplashDelay = DefaultSplashDelay
	}
	if c.PINErrorTTL == 0 {
		c.PINErrorTTL = DefaultPINErrorTTL
	}
	if c.MinLoadingDelay == 0 {
		c.MinLoadingDelay = DefaultMinLoadingDelay
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}

// Session is the full state of one player's run through the quiz flow. It is
// a value: every event produces a new Session, never an in-place mutation.
type Session struct {
	Step       domain.Step
	PlayerName string
	Grade      string
	Category   string

	Questions     []domain.Question
	CurrentIndex  int
	Score         int
	TimeRemaining int

	PINError  bool
	LoadError bool
	SaveError bool
	Notice    string

	// Gen counts screen transitions. Asynchronous completions (ticks, fetch
	// results, save results) carry the Gen they were started under and are
	// dropped when it no longer matches, so a late callback can never touch
	// a session that has moved on.
	Gen uint64
}

// NewSession returns the initial session on the splash screen.
func NewSession() Session {
	return Session{Step: domain.StepSplash}
}

// Event is one discrete input to the state machine: a user action, a timer
// tick, or the completion of an asynchronous call.
type Event interface{ isEvent() }

type (
	// SplashDone fires after the splash delay.
	SplashDone struct{ Gen uint64 }
	// SubmitPIN carries the PIN the player typed.
	SubmitPIN struct{ PIN string }
	// PINErrorExpired clears the transient wrong-PIN flag.
	PINErrorExpired struct{ Gen uint64 }
	// EnterSetup moves from the welcome screen into player setup.
	EnterSetup struct{}
	// SubmitName sets the player name.
	SubmitName struct{ Name string }
	// ChooseGrade selects the grade level.
	ChooseGrade struct{ Grade string }
	// ChooseCategory selects the quiz category.
	ChooseCategory struct{ Category string }
	// BackToGrade returns from category selection to grade selection.
	BackToGrade struct{}
	// StartQuiz leaves the rules screen and begins the question fetch.
	StartQuiz struct{}
	// QuestionsLoaded delivers a fetched question set.
	QuestionsLoaded struct {
		Gen       uint64
		Questions []domain.Question
	}
	// QuestionsFailed reports that the fetch could not produce a set.
	QuestionsFailed struct{ Gen uint64 }
	// Answer submits the selected option for the current question.
	Answer struct{ Option string }
	// Tick decrements the countdown by one second.
	Tick struct{ Gen uint64 }
	// OpenSaveForm moves from the result screen to the save form.
	OpenSaveForm struct{}
	// SubmitScore submits the (possibly edited) record to the score store.
	SubmitScore struct{ Name, Grade, Category string }
	// ScoreSaved confirms the submission.
	ScoreSaved struct{ Gen uint64 }
	// ScoreSaveFailed reports a failed submission.
	ScoreSaveFailed struct{ Gen uint64 }
	// SetFilter changes the dashboard grade filter.
	SetFilter struct{ Filter string }
	// DeleteScore removes a record from the dashboard.
	DeleteScore struct{ ID int64 }
	// BoardRefreshed reports that the dashboard list was re-fetched.
	BoardRefreshed struct {
		Gen    uint64
		Notice string
	}
	// PlayAgain starts a new battle, keeping the player name.
	PlayAgain struct{}
	// GoHome returns to the welcome screen, discarding the session.
	GoHome struct{}
)

func (SplashDone) isEvent()      {}
func (SubmitPIN) isEvent()       {}
func (PINErrorExpired) isEvent() {}
func (EnterSetup) isEvent()      {}
func (SubmitName) isEvent()      {}
func (ChooseGrade) isEvent()     {}
func (ChooseCategory) isEvent()  {}
func (BackToGrade) isEvent()     {}
func (StartQuiz) isEvent()       {}
func (QuestionsLoaded) isEvent() {}
func (QuestionsFailed) isEvent() {}
func (Answer) isEvent()          {}
func (Tick) isEvent()            {}
func (OpenSaveForm) isEvent()    {}
func (SubmitScore) isEvent()     {}
func (ScoreSaved) isEvent()      {}
func (ScoreSaveFailed) isEvent() {}
func (SetFilter) isEvent()       {}
func (DeleteScore) isEvent()     {}
func (BoardRefreshed) isEvent()  {}
func (PlayAgain) isEvent()       {}
func (GoHome) isEvent()          {}

// Command is a side effect requested by a transition; the engine runtime
// executes commands and feeds their results back as events.
type Command interface{ isCommand() }

type (
	cmdScheduleSplash   struct{ gen uint64 }
	cmdSchedulePINClear struct{ gen uint64 }
	cmdFetchQuestions   struct {
		gen             uint64
		grade, category string
	}
	cmdStartTimer  struct{ gen uint64 }
	cmdStopTimer   struct{}
	cmdSubmitScore struct {
		gen uint64
		rec domain.ScoreRecord
	}
	cmdRefreshBoard struct{ gen uint64 }
	cmdSetFilter    struct{ filter string }
	cmdDeleteScore  struct {
		gen uint64
		id  int64
	}
)

func (cmdScheduleSplash) isCommand()   {}
func (cmdSchedulePINClear) isCommand() {}
func (cmdFetchQuestions) isCommand()   {}
func (cmdStartTimer) isCommand()       {}
func (cmdStopTimer) isCommand()        {}
func (cmdSubmitScore) isCommand()      {}
func (cmdRefreshBoard) isCommand()     {}
func (cmdSetFilter) isCommand()        {}
func (cmdDeleteScore) isCommand()      {}

// Apply is the transition function: given the current session and one event
// it returns the next session and the side effects to run. Events that do
// not apply to the current step, or whose generation is stale, leave the
// session untouched.
func (c Config) Apply(s Session, ev Event) (Session, []Command) {
	c = c.withDefaults()

	switch ev := ev.(type) {
	case SplashDone:
		if s.Step != domain.StepSplash || ev.Gen != s.Gen {
			return s, nil
		}
		return s.to(domain.StepPIN), nil

	case SubmitPIN:
		if s.Step != domain.StepPIN {
			return s, nil
		}
		if ev.PIN != c.PIN {
			s.PINError = true
			s.Gen++
			return s, []Command{cmdSchedulePINClear{gen: s.Gen}}
		}
		s.PINError = false
		return s.to(domain.StepWelcome), nil

	case PINErrorExpired:
		if s.Step != domain.StepPIN || ev.Gen != s.Gen {
			return s, nil
		}
		s.PINError = false
		return s, nil

	case EnterSetup:
		if s.Step != domain.StepWelcome {
			return s, nil
		}
		return s.to(domain.StepName), nil

	case SubmitName:
		if s.Step != domain.StepName {
			return s, nil
		}
		name := strings.TrimSpace(ev.Name)
		if name == "" {
			return s, nil
		}
		s.PlayerName = name
		return s.to(domain.StepGrade), nil

	case ChooseGrade:
		if s.Step != domain.StepGrade || !domain.ValidGrade(ev.Grade) {
			return s, nil
		}
		s.Grade = ev.Grade
		// A grade change can turn a previously chosen advanced category
		// ineligible; force re-selection.
		if !domain.CategoryEligible(s.Grade, s.Category) {
			s.Category = ""
		}
		return s.to(domain.StepCategory), nil

	case ChooseCategory:
		if s.Step != domain.StepCategory || !domain.CategoryEligible(s.Grade, ev.Category) {
			return s, nil
		}
		s.Category = ev.Category
		s.LoadError = false
		return s.to(domain.StepRules), nil

	case BackToGrade:
		if s.Step != domain.StepCategory {
			return s, nil
		}
		return s.to(domain.StepGrade), nil

	case StartQuiz:
		if s.Step != domain.StepRules {
			return s, nil
		}
		s.LoadError = false
		s = s.to(domain.StepLoading)
		return s, []Command{cmdFetchQuestions{gen: s.Gen, grade: s.Grade, category: s.Category}}

	case QuestionsLoaded:
		if s.Step != domain.StepLoading || ev.Gen != s.Gen {
			return s, nil
		}
		s.Questions = ev.Questions
		s.CurrentIndex = 0
		s.Score = 0
		s.TimeRemaining = c.TimeBudget
		s = s.to(domain.StepGame)
		return s, []Command{cmdStartTimer{gen: s.Gen}}

	case QuestionsFailed:
		if s.Step != domain.StepLoading || ev.Gen != s.Gen {
			return s, nil
		}
		s.LoadError = true
		return s.to(domain.StepRules), nil

	case Answer:
		if s.Step != domain.StepGame || s.CurrentIndex >= len(s.Questions) {
			return s, nil
		}
		if ev.Option == s.Questions[s.CurrentIndex].CorrectAnswer {
			s.Score++
		}
		s.CurrentIndex++
		if s.CurrentIndex >= len(s.Questions) {
			return s.to(domain.StepResult), []Command{cmdStopTimer{}}
		}
		return s, nil

	case Tick:
		if s.Step != domain.StepGame || ev.Gen != s.Gen {
			return s, nil
		}
		if s.TimeRemaining > 0 {
			s.TimeRemaining--
		}
		if s.TimeRemaining == 0 {
			// Time is up: the score freezes at whatever it is right now.
			return s.to(domain.StepResult), []Command{cmdStopTimer{}}
		}
		return s, nil

	case OpenSaveForm:
		if s.Step != domain.StepResult {
			return s, nil
		}
		s.SaveError = false
		return s.to(domain.StepSaveForm), nil

	case SubmitScore:
		if s.Step != domain.StepSaveForm {
			return s, nil
		}
		// The form may edit the prefilled fields right up to submission.
		if name := strings.TrimSpace(ev.Name); name != "" {
			s.PlayerName = name
		}
		if domain.ValidGrade(ev.Grade) {
			s.Grade = ev.Grade
		}
		if domain.ValidCategory(ev.Category) {
			s.Category = ev.Category
		}
		s.SaveError = false

		p := domain.Percentage(s.Score, len(s.Questions))
		rec := domain.ScoreRecord{
			Name:           s.PlayerName,
			Grade:          s.Grade,
			Category:       s.Category,
			Score:          s.Score,
			TotalQuestions: len(s.Questions),
			Percentage:     p.InexactFloat64(),
			GradeLetter:    domain.GradeLetter(p),
		}
		if rec.TotalQuestions == 0 {
			rec.TotalQuestions = domain.QuestionCount
		}
		return s, []Command{cmdSubmitScore{gen: s.Gen, rec: rec}}

	case ScoreSaved:
		if s.Step != domain.StepSaveForm || ev.Gen != s.Gen {
			return s, nil
		}
		s = s.to(domain.StepDashboard)
		// The leaderboard fetch is sequenced strictly after the submission.
		return s, []Command{cmdRefreshBoard{gen: s.Gen}}

	case ScoreSaveFailed:
		if s.Step != domain.StepSaveForm || ev.Gen != s.Gen {
			return s, nil
		}
		s.SaveError = true
		return s, nil

	case SetFilter:
		if s.Step != domain.StepDashboard {
			return s, nil
		}
		return s, []Command{cmdSetFilter{filter: ev.Filter}}

	case DeleteScore:
		if s.Step != domain.StepDashboard {
			return s, nil
		}
		return s, []Command{cmdDeleteScore{gen: s.Gen, id: ev.ID}}

	case BoardRefreshed:
		if s.Step != domain.StepDashboard || ev.Gen != s.Gen {
			return s, nil
		}
		s.Notice = ev.Notice
		return s, nil

	case PlayAgain:
		if s.Step != domain.StepResult && s.Step != domain.StepDashboard {
			return s, nil
		}
		name, gen := s.PlayerName, s.Gen
		s = NewSession()
		s.PlayerName = name
		s.Gen = gen // generations stay monotonic across resets
		return s.to(domain.StepGrade), nil

	case GoHome:
		if s.Step != domain.StepResult && s.Step != domain.StepDashboard {
			return s, nil
		}
		gen := s.Gen
		s = NewSession()
		s.Gen = gen
		return s.to(domain.StepWelcome), nil
	}

	return s, nil
}

// to moves the session to the next step and bumps the generation, which
// invalidates every asynchronous completion started under the old step.
func (s Session) to(step domain.Step) Session {
	s.Step = step
	s.Gen++
	return s
}
