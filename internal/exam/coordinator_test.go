package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/examgrade/internal/db"
	syncx "github.com/mind-engage/examgrade/internal/syncx"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

const countryPairs = `[{"left":"France","right":"Paris"},{"left":"Japan","right":"Tokyo"}]`

func geographyExam() Exam {
	return Exam{
		ID:          "exam-geo",
		Title:       "Geography",
		DurationMin: 30,
		IsPublished: true,
		CreatedBy:   "admin",
		Questions: []Question{
			{ID: "q-mc", Type: MultipleChoice, Text: "Capital of France?", Points: 1, Order: 1,
				Options: raw(`["Berlin","Paris","Rome"]`), CorrectAnswer: raw(`"Paris"`)},
			{ID: "q-sa", Type: ShortAnswer, Text: "Largest ocean?", Points: 2, Order: 2,
				CorrectAnswer: raw(`["Pacific","Pacific Ocean"]`)},
			{ID: "q-mt", Type: Matching, Text: "Match capitals", Points: 3, Order: 3,
				Options: raw(countryPairs), CorrectAnswer: raw(countryPairs)},
		},
	}
}

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, string(db.DriverSQLite))
}

// forEachStore runs fn against the in-memory store and a sqlite-backed SQLStore.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func seeded(t *testing.T, s Store) Exam {
	t.Helper()
	e := geographyExam()
	require.NoError(t, s.PutExam(context.Background(), e))
	return e
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestSubmitScoresAndPersists(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		c := NewCoordinator(s, NewScorer(nil), WithClock(fixedClock()))

		res, err := c.Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{
			{QuestionID: "q-mc", UserAnswer: "paris"},
			{QuestionID: "q-sa", UserAnswer: "Atlantic"},
			{QuestionID: "q-mt", UserAnswer: map[string]any{"France": "Paris", "Japan": "tokyo"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalScore)
		assert.Equal(t, 3, res.TotalQuestions)
		assert.NotEmpty(t, res.AttemptID)

		a, err := s.GetAttempt(ctx, res.AttemptID)
		require.NoError(t, err)
		assert.True(t, a.IsCompleted)
		assert.Equal(t, 4, a.TotalScore)
		require.NotNil(t, a.CompletedAt)

		recs, err := s.AttemptAnswers(ctx, res.AttemptID)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		earned := map[string]int{}
		for _, r := range recs {
			assert.Equal(t, "user-1", r.UserID)
			earned[r.QuestionID] = r.PointsEarned
		}
		assert.Equal(t, map[string]int{"q-mc": 1, "q-sa": 0, "q-mt": 3}, earned)

		found, ok, err := s.CompletedAttempt(ctx, "user-1", "exam-geo")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, res.AttemptID, found.ID)
	})
}

func TestSubmitAppendsEvent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		c := NewCoordinator(s, nil, WithSiteID("site-a"))

		res, err := c.Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{{QuestionID: "q-mc", UserAnswer: "Paris"}})
		require.NoError(t, err)

		evs, err := s.Events(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, evs, 1)
		assert.Equal(t, syncx.TypeAttemptSubmitted, evs[0].Type)
		assert.Equal(t, res.AttemptID, evs[0].Key)
		assert.Equal(t, "site-a", evs[0].SiteID)

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(evs[0].DataJSON), &data))
		assert.Equal(t, float64(1), data["total_score"])

		later, err := s.Events(ctx, evs[0].Seq, 10)
		require.NoError(t, err)
		assert.Empty(t, later)
	})
}

func TestSubmitRejectsSecondCompletion(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		c := NewCoordinator(s, nil)

		_, err := c.Submit(ctx, "user-1", "exam-geo", nil)
		require.NoError(t, err)

		_, err = c.Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{{QuestionID: "q-mc", UserAnswer: "Paris"}})
		assert.ErrorIs(t, err, ErrAlreadySubmitted)

		// another user is unaffected
		_, err = c.Submit(ctx, "user-2", "exam-geo", nil)
		assert.NoError(t, err)

		list, err := s.ListAttempts(ctx, AttemptListOpts{ExamID: "exam-geo"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestConcurrentSubmitsCompleteOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		c := NewCoordinator(s, nil)

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{{QuestionID: "q-mc", UserAnswer: "Paris"}})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		ok, dup := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadySubmitted):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, n-1, dup)

		list, err := s.ListAttempts(ctx, AttemptListOpts{UserID: "user-1"})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestSubmitUnknownExam(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		c := NewCoordinator(s, nil)
		_, err := c.Submit(context.Background(), "user-1", "missing", nil)
		assert.ErrorIs(t, err, ErrExamNotFound)
	})
}

type failingStore struct {
	Store
	err error
}

func (f failingStore) WithTx(ctx context.Context, fn func(tx AttemptTx) error) error {
	return f.Store.WithTx(ctx, func(tx AttemptTx) error {
		return fn(failingTx{AttemptTx: tx, err: f.err})
	})
}

type failingTx struct {
	AttemptTx
	err error
}

func (f failingTx) InsertAnswers(context.Context, []AnswerRecord) error { return f.err }

func TestSubmitFailureLeavesNothingBehind(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		boom := errors.New("disk full")
		c := NewCoordinator(failingStore{Store: s, err: boom}, nil)

		_, err := c.Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{{QuestionID: "q-mc", UserAnswer: "Paris"}})
		require.ErrorIs(t, err, boom)

		_, ok, err := s.CompletedAttempt(ctx, "user-1", "exam-geo")
		require.NoError(t, err)
		assert.False(t, ok)

		list, err := s.ListAttempts(ctx, AttemptListOpts{})
		require.NoError(t, err)
		assert.Empty(t, list)

		evs, err := s.Events(ctx, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, evs)

		// the user can still submit once the failure clears
		_, err = NewCoordinator(s, nil).Submit(ctx, "user-1", "exam-geo", nil)
		assert.NoError(t, err)
	})
}

func TestSubmitWithoutAnswers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seeded(t, s)
		res, err := NewCoordinator(s, nil).Submit(ctx, "user-1", "exam-geo", []SubmittedAnswer{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.TotalScore)
		assert.Equal(t, 3, res.TotalQuestions)

		recs, err := s.AttemptAnswers(ctx, res.AttemptID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
