package exam

import (
	"context"
	"errors"
	"time"

	syncx "github.com/mind-engage/examgrade/internal/syncx"
)

var (
	ErrExamNotFound        = errors.New("exam not found")
	ErrExamNotPublished    = errors.New("exam not published")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAlreadySubmitted    = errors.New("exam already submitted")
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrExamInUse is returned when saving an exam would drop questions that
	// completed attempts have answered.
	ErrExamInUse           = errors.New("exam has answered questions")
)

type AttemptListOpts struct {
	ExamID string
	UserID string
	Limit  int
	Offset int
}

// Store is the persistence boundary. Readers only ever see completed attempts;
// attempt rows are written exclusively through WithTx.
type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error) // full exam, answer keys included

	// WithTx runs fn in one transaction. The transaction commits only if fn
	// returns nil; otherwise nothing fn wrote is kept.
	WithTx(ctx context.Context, fn func(tx AttemptTx) error) error

	GetAttempt(ctx context.Context, id string) (Attempt, error)
	AttemptAnswers(ctx context.Context, attemptID string) ([]AnswerRecord, error)
	CompletedAttempt(ctx context.Context, userID, examID string) (Attempt, bool, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// Events returns committed log entries with Seq > after, oldest first.
	Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// AttemptTx is the set of writes one submission performs.
type AttemptTx interface {
	CreateAttempt(ctx context.Context, a Attempt) error
	Questions(ctx context.Context, examID string) ([]Question, error)
	InsertAnswers(ctx context.Context, records []AnswerRecord) error
	AppendEvent(ctx context.Context, e syncx.Event) error
	FinalizeAttempt(ctx context.Context, attemptID string, completedAt time.Time, totalScore int) error
}
