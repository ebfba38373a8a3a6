package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/examgrade/internal/metrics"
	syncx "github.com/mind-engage/examgrade/internal/syncx"
)

// Coordinator is the transactional boundary around one exam submission.
type Coordinator struct {
	store   Store
	scorer  *Scorer
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
	siteID  string
}

type CoordinatorOption func(*Coordinator)

func WithLogger(l *zap.Logger) CoordinatorOption         { return func(c *Coordinator) { c.log = l } }
func WithMetrics(m *metrics.Metrics) CoordinatorOption    { return func(c *Coordinator) { c.metrics = m } }
func WithClock(now func() time.Time) CoordinatorOption    { return func(c *Coordinator) { c.now = now } }
func WithSiteID(id string) CoordinatorOption              { return func(c *Coordinator) { c.siteID = id } }
func WithIDGenerator(gen func() string) CoordinatorOption { return func(c *Coordinator) { c.newID = gen } }

func NewCoordinator(store Store, scorer *Scorer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:  store,
		scorer: scorer,
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
		siteID: "local",
	}
	for _, o := range opts {
		o(c)
	}
	if c.scorer == nil {
		c.scorer = NewScorer(nil)
	}
	return c
}

// Submit creates, grades and finalizes one attempt in a single transaction.
// Readers see either no attempt or a completed one. Persistence failures are
// returned; ErrAlreadySubmitted means another completed attempt for the same
// user and exam won the race.
func (c *Coordinator) Submit(ctx context.Context, userID, examID string, answers []SubmittedAnswer) (SubmissionResult, error) {
	var res SubmissionResult
	err := c.store.WithTx(ctx, func(tx AttemptTx) error {
		started := c.now().UTC()
		a := Attempt{ID: c.newID(), UserID: userID, ExamID: examID, StartedAt: started}
		if err := tx.CreateAttempt(ctx, a); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		questions, err := tx.Questions(ctx, examID)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		scored := c.scorer.Score(questions, answers)
		for i := range scored.Records {
			r := &scored.Records[i]
			r.ID = c.newID()
			r.UserID = userID
			r.AttemptID = a.ID
			r.AnsweredAt = started
		}
		if len(scored.Records) > 0 {
			if err := tx.InsertAnswers(ctx, scored.Records); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}

		res = SubmissionResult{
			AttemptID:      a.ID,
			TotalScore:     scored.TotalScore,
			TotalQuestions: len(questions),
		}
		ev, err := syncx.NewEvent(c.siteID, syncx.TypeAttemptSubmitted, a.ID, map[string]any{
			"attempt_id":      a.ID,
			"user_id":         userID,
			"exam_id":         examID,
			"total_score":     scored.TotalScore,
			"total_questions": len(questions),
			"correct":         scored.Correct,
		})
		if err != nil {
			return fmt.Errorf("build event: %w", err)
		}
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		// last write of the sequence
		if err := tx.FinalizeAttempt(ctx, a.ID, c.now().UTC(), scored.TotalScore); err != nil {
			return fmt.Errorf("finalize attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadySubmitted):
			c.metrics.ObserveSubmission(metrics.OutcomeDuplicate, 0)
			c.log.Info("duplicate submission rejected", zap.String("exam_id", examID), zap.String("user_id", userID))
		case errors.Is(err, ErrExamNotFound):
			c.metrics.ObserveSubmission(metrics.OutcomeNotFound, 0)
		default:
			c.metrics.ObserveSubmission(metrics.OutcomeError, 0)
			c.log.Error("submission failed", zap.String("exam_id", examID), zap.String("user_id", userID), zap.Error(err))
		}
		return SubmissionResult{}, err
	}

	c.metrics.ObserveSubmission(metrics.OutcomeOK, res.TotalScore)
	c.log.Info("exam submitted",
		zap.String("attempt_id", res.AttemptID),
		zap.String("exam_id", examID),
		zap.Int("total_score", res.TotalScore),
		zap.Int("total_questions", res.TotalQuestions))
	return res, nil
}
