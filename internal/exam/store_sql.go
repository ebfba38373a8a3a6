package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	syncx "github.com/mind-engage/examgrade/internal/syncx"
)

const pgUniqueViolation = "23505"

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// PutExam upserts the exam and replaces its question set. Questions are
// updated in place by id so stored answers keep their question; dropping a
// question that completed attempts answered fails with ErrExamInUse.
func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	keep := make(map[string]bool, len(qs))
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = uuid.NewString()
		}
		keep[qs[i].ID] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put exam tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO exams (id,title,description,duration_min,is_published,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			duration_min=EXCLUDED.duration_min, is_published=EXCLUDED.is_published`,
		e.ID, e.Title, e.Description, e.DurationMin, e.IsPublished, e.CreatedBy, created.Unix())
	if err != nil {
		return fmt.Errorf("upsert exam: %w", err)
	}

	answered, err := answeredQuestions(ctx, tx, e.ID)
	if err != nil {
		return err
	}
	for _, id := range answered {
		if !keep[id] {
			return fmt.Errorf("%w: question %s", ErrExamInUse, id)
		}
	}

	// park current orders below zero so reordering cannot trip UNIQUE (exam_id, sort_order)
	if _, err := tx.ExecContext(ctx, `UPDATE questions SET sort_order = -sort_order WHERE exam_id=$1`, e.ID); err != nil {
		return fmt.Errorf("park question order: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions
		WHERE exam_id=$1 AND id NOT IN (SELECT question_id FROM answers)`, e.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for _, q := range qs {
		var opts any
		if len(q.Options) > 0 {
			opts = string(q.Options)
		}
		correct := string(q.CorrectAnswer)
		if correct == "" {
			correct = "null"
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO questions
			(id,exam_id,question_text,question_type,options_json,correct_answer_json,points,sort_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET question_text=EXCLUDED.question_text,
				question_type=EXCLUDED.question_type, options_json=EXCLUDED.options_json,
				correct_answer_json=EXCLUDED.correct_answer_json, points=EXCLUDED.points,
				sort_order=EXCLUDED.sort_order
			WHERE questions.exam_id = EXCLUDED.exam_id`,
			q.ID, e.ID, q.Text, string(q.Type), opts, correct, q.Points, q.Order)
		if err != nil {
			return fmt.Errorf("upsert question %d: %w", q.Order, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("upsert question %d: id %s belongs to another exam", q.Order, q.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put exam: %w", err)
	}
	return nil
}

// answeredQuestions lists the exam's question ids that have stored answers.
func answeredQuestions(ctx context.Context, q queryer, examID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT a.question_id FROM answers a
		JOIN questions q ON q.id = a.question_id WHERE q.exam_id=$1`, examID)
	if err != nil {
		return nil, fmt.Errorf("query answered questions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan answered question: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,duration_min,is_published,created_by,created_at
		FROM exams WHERE id=$1`, id)
	var e Exam
	var created int64
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.DurationMin, &e.IsPublished, &e.CreatedBy, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	e.CreatedAt = time.Unix(created, 0).UTC()
	qs, err := loadQuestions(ctx, s.db, id)
	if err != nil {
		return Exam{}, err
	}
	e.Questions = qs
	return e, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadQuestions(ctx context.Context, q queryer, examID string) ([]Question, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,exam_id,question_text,question_type,options_json,correct_answer_json,points,sort_order
		FROM questions WHERE exam_id=$1 ORDER BY sort_order`, examID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	out := make([]Question, 0)
	for rows.Next() {
		var qq Question
		var typ string
		var opts sql.NullString
		var correct string
		if err := rows.Scan(&qq.ID, &qq.ExamID, &qq.Text, &typ, &opts, &correct, &qq.Points, &qq.Order); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qq.Type = QuestionType(typ)
		if opts.Valid {
			qq.Options = json.RawMessage(opts.String)
		}
		qq.CorrectAnswer = json.RawMessage(correct)
		out = append(out, qq)
	}
	return out, rows.Err()
}

// WithTx runs fn inside one database transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx AttemptTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadySubmitted
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const attemptCols = `id,user_id,exam_id,started_at,completed_at,total_score,is_completed`

func scanAttempt(sc interface{ Scan(...any) error }) (Attempt, error) {
	var a Attempt
	var started int64
	var completed sql.NullInt64
	if err := sc.Scan(&a.ID, &a.UserID, &a.ExamID, &started, &completed, &a.TotalScore, &a.IsCompleted); err != nil {
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM exam_attempts WHERE id=$1 AND is_completed = TRUE`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) AttemptAnswers(ctx context.Context, attemptID string) ([]AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,user_id,attempt_id,question_id,user_answer_json,is_correct,points_earned,answered_at
		FROM answers WHERE attempt_id=$1 ORDER BY answered_at, id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AnswerRecord, 0)
	for rows.Next() {
		var r AnswerRecord
		var raw string
		var answered int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.AttemptID, &r.QuestionID, &raw, &r.IsCorrect, &r.PointsEarned, &answered); err != nil {
			return nil, err
		}
		r.UserAnswer = storedAnswer(raw)
		r.AnsweredAt = time.Unix(answered, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// storedAnswer undoes the column's JSON layer only, giving back the storage form.
func storedAnswer(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func (s *SQLStore) CompletedAttempt(ctx context.Context, userID, examID string) (Attempt, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM exam_attempts
		WHERE user_id=$1 AND exam_id=$2 AND is_completed = TRUE LIMIT 1`, userID, examID)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, false, nil
		}
		return Attempt{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	where := []string{"is_completed = TRUE"}
	args := []any{}
	if opts.ExamID != "" {
		args = append(args, opts.ExamID)
		where = append(where, fmt.Sprintf("exam_id=$%d", len(args)))
	}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q := `SELECT ` + attemptCols + ` FROM exam_attempts WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY started_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	evs, err := syncx.Since(ctx, s.db, after, limit)
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	if evs == nil {
		evs = []syncx.Event{}
	}
	return evs, nil
}

type sqlTx struct{ tx *sql.Tx }

func (t *sqlTx) CreateAttempt(ctx context.Context, a Attempt) error {
	var exists int
	if err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, a.ExamID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExamNotFound
		}
		return err
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO exam_attempts (id,user_id,exam_id,started_at,total_score,is_completed)
		VALUES ($1,$2,$3,$4,0,FALSE)`, a.ID, a.UserID, a.ExamID, a.StartedAt.Unix())
	return err
}

func (t *sqlTx) Questions(ctx context.Context, examID string) ([]Question, error) {
	return loadQuestions(ctx, t.tx, examID)
}

func (t *sqlTx) InsertAnswers(ctx context.Context, records []AnswerRecord) error {
	stmt, err := t.tx.PrepareContext(ctx, `INSERT INTO answers
		(id,user_id,attempt_id,question_id,user_answer_json,is_correct,points_earned,answered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		buf, err := json.Marshal(r.UserAnswer)
		if err != nil {
			return fmt.Errorf("encode answer for question %s: %w", r.QuestionID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.UserID, r.AttemptID, r.QuestionID, string(buf),
			r.IsCorrect, r.PointsEarned, r.AnsweredAt.Unix()); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTx) AppendEvent(ctx context.Context, e syncx.Event) error {
	return syncx.NewEventRepo(t.tx).Append(ctx, e)
}

func (t *sqlTx) FinalizeAttempt(ctx context.Context, attemptID string, completedAt time.Time, totalScore int) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE exam_attempts
		SET completed_at=$1, total_score=$2, is_completed=TRUE
		WHERE id=$3 AND is_completed = FALSE`, completedAt.Unix(), totalScore, attemptID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadySubmitted
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrAttemptNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
