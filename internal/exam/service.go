package exam

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	syncx "github.com/mind-engage/examgrade/internal/syncx"
)

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
	answers  map[string][]AnswerRecord // attemptID -> records
	events   []syncx.Event
}

// NewInMemoryStore returns a Store kept in process memory. Transactions are
// serialized and staged, so a failed submission leaves nothing behind.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		attempts: map[string]Attempt{},
		answers:  map[string][]AnswerRecord{},
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	keep := make(map[string]bool, len(qs))
	for i := range qs {
		qs[i].ExamID = e.ID
		keep[qs[i].ID] = true
	}
	for attemptID, a := range m.attempts {
		if a.ExamID != e.ID {
			continue
		}
		for _, r := range m.answers[attemptID] {
			if !keep[r.QuestionID] {
				return fmt.Errorf("%w: question %s", ErrExamInUse, r.QuestionID)
			}
		}
	}
	e.Questions = qs
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	e.Questions = qs
	return e, nil
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx AttemptTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m, attempts: map[string]Attempt{}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// commit: the completed-attempt uniqueness check mirrors the SQL index
	for _, a := range tx.attempts {
		if !a.IsCompleted {
			continue
		}
		for _, other := range m.attempts {
			if other.IsCompleted && other.UserID == a.UserID && other.ExamID == a.ExamID {
				return ErrAlreadySubmitted
			}
		}
	}
	for id, a := range tx.attempts {
		m.attempts[id] = a
	}
	for _, r := range tx.answers {
		m.answers[r.AttemptID] = append(m.answers[r.AttemptID], r)
	}
	m.events = append(m.events, tx.events...)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok || !a.IsCompleted {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) AttemptAnswers(_ context.Context, attemptID string) ([]AnswerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.answers[attemptID]
	out := make([]AnswerRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (m *memoryStore) CompletedAttempt(_ context.Context, userID, examID string) (Attempt, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.IsCompleted && a.UserID == userID && a.ExamID == examID {
			return a, true, nil
		}
	}
	return Attempt{}, false, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0)
	for _, a := range m.attempts {
		if !a.IsCompleted {
			continue
		}
		if opts.ExamID != "" && a.ExamID != opts.ExamID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return page(out, opts.Offset, opts.Limit), nil
}

func (m *memoryStore) Events(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]syncx.Event, 0)
	for _, e := range m.events {
		if e.Seq <= after {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func page(in []Attempt, offset, limit int) []Attempt {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []Attempt{}
	}
	in = in[offset:]
	if limit < len(in) {
		in = in[:limit]
	}
	return in
}

// memoryTx stages writes until WithTx commits them. Reads of exam data go
// straight to the store, which is locked for the whole transaction.
type memoryTx struct {
	store    *memoryStore
	attempts map[string]Attempt
	answers  []AnswerRecord
	events   []syncx.Event
}

func (t *memoryTx) CreateAttempt(_ context.Context, a Attempt) error {
	if _, ok := t.store.exams[a.ExamID]; !ok {
		return ErrExamNotFound
	}
	a.IsCompleted = false
	a.CompletedAt = nil
	t.attempts[a.ID] = a
	return nil
}

func (t *memoryTx) Questions(_ context.Context, examID string) ([]Question, error) {
	e, ok := t.store.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	return qs, nil
}

func (t *memoryTx) InsertAnswers(_ context.Context, records []AnswerRecord) error {
	for _, r := range records {
		if _, ok := t.attempts[r.AttemptID]; !ok {
			return ErrAttemptNotFound
		}
	}
	t.answers = append(t.answers, records...)
	return nil
}

func (t *memoryTx) AppendEvent(_ context.Context, e syncx.Event) error {
	e.Seq = int64(len(t.store.events) + len(t.events) + 1)
	t.events = append(t.events, e)
	return nil
}

func (t *memoryTx) FinalizeAttempt(_ context.Context, attemptID string, completedAt time.Time, totalScore int) error {
	a, ok := t.attempts[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	a.CompletedAt = &completedAt
	a.TotalScore = totalScore
	a.IsCompleted = true
	t.attempts[attemptID] = a
	return nil
}
