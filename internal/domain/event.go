package domain

const (
	EventNameScoreSubmitted = "score.submitted"
	EventNameScoreDeleted   = "score.deleted"
)

type EventScoreSubmitted struct {
	Record ScoreRecord
}

func (EventScoreSubmitted) Name() string { return EventNameScoreSubmitted }

type EventScoreDeleted struct {
	ID int64
}

func (EventScoreDeleted) Name() string { return EventNameScoreDeleted }
