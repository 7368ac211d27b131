package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step identifies one screen in the quiz flow.
type Step string

const (
	StepSplash    Step = "splash"
	StepPIN       Step = "pin"
	StepWelcome   Step = "welcome"
	StepName      Step = "name"
	StepGrade     Step = "grade"
	StepCategory  Step = "category"
	StepRules     Step = "rules"
	StepLoading   Step = "loading"
	StepGame      Step = "game"
	StepResult    Step = "result"
	StepSaveForm  Step = "save-form"
	StepDashboard Step = "dashboard"
)

// QuestionCount is the fixed size of a quiz round.
const QuestionCount = 12

const CategoryAdvanced = "Advanced Level"

// Grades lists the selectable grade levels, in display order.
var Grades = []string{"4", "5", "6", "7", "8", "9", "10"}

// Categories lists the quiz categories. CategoryAdvanced is only selectable
// for grades in advancedGrades.
var Categories = []string{"General Knowledge", "Science", "Mathematics", "English", CategoryAdvanced}

var advancedGrades = map[string]struct{}{
	"8":  {},
	"9":  {},
	"10": {},
}

// ValidGrade reports whether g is a known grade level.
func ValidGrade(g string) bool {
	for _, grade := range Grades {
		if grade == g {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, category := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

// CategoryEligible reports whether the category may be selected for the grade.
// Only the advanced category is gated; everything else is open to all grades.
func CategoryEligible(grade, category string) bool {
	if !ValidGrade(grade) || !ValidCategory(category) {
		return false
	}
	if category != CategoryAdvanced {
		return true
	}
	_, ok := advancedGrades[grade]
	return ok
}

// Question is a single multiple-choice question. Immutable once fetched.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Valid reports whether the question has exactly four distinct options and a
// correct answer that is one of them.
func (q Question) Valid() bool {
	if q.Text == "" || len(q.Options) != 4 {
		return false
	}
	seen := make(map[string]struct{}, 4)
	correctFound := false
	for _, o := range q.Options {
		if o == "" {
			return false
		}
		if _, dup := seen[o]; dup {
			return false
		}
		seen[o] = struct{}{}
		if o == q.CorrectAnswer {
			correctFound = true
		}
	}
	return correctFound
}

// ScoreRecord is one persisted quiz outcome. ID and CreatedAt are assigned by
// the store; records are immutable after creation except for deletion.
type ScoreRecord struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Grade          string    `json:"grade"`
	Category       string    `json:"category"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	GradeLetter    string    `json:"grade_letter"`
	CreatedAt      time.Time `json:"created_at"`
}

// Percentage computes score/total*100. A zero total is treated as a full
// round of QuestionCount rather than dividing by zero.
func Percentage(score, total int) decimal.Decimal {
	if total == 0 {
		total = QuestionCount
	}
	return decimal.NewFromInt(int64(score)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100))
}

var gradeLetterScale = []struct {
	min    decimal.Decimal
	letter string
}{
	{decimal.NewFromInt(90), "A+"},
	{decimal.NewFromInt(80), "A"},
	{decimal.NewFromInt(70), "B"},
	{decimal.NewFromInt(60), "C"},
	{decimal.NewFromInt(50), "D"},
}

// GradeLetter maps a percentage to a letter grade. Boundaries are
// inclusive-lower: 90.0 is an A+, 89.9 is an A.
func GradeLetter(percentage decimal.Decimal) string {
	for _, band := range gradeLetterScale {
		if percentage.GreaterThanOrEqual(band.min) {
			return band.letter
		}
	}
	return "F"
}
