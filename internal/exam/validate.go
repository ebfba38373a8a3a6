package exam

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidExam = errors.New("invalid exam")

// Validate checks an authored exam before it is stored.
func (e Exam) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidExam)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidExam)
	}
	if e.DurationMin < 1 {
		return fmt.Errorf("%w: duration must be at least 1 minute", ErrInvalidExam)
	}
	orders := make(map[int]struct{}, len(e.Questions))
	ids := make(map[string]struct{}, len(e.Questions))
	for i, q := range e.Questions {
		if err := q.validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidExam, i+1, err)
		}
		if _, dup := orders[q.Order]; dup {
			return fmt.Errorf("%w: question %d: duplicate order %d", ErrInvalidExam, i+1, q.Order)
		}
		orders[q.Order] = struct{}{}
		if q.ID != "" {
			if _, dup := ids[q.ID]; dup {
				return fmt.Errorf("%w: question %d: duplicate id %s", ErrInvalidExam, i+1, q.ID)
			}
			ids[q.ID] = struct{}{}
		}
	}
	return nil
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question_text required")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unknown question_type %q", q.Type)
	}
	if q.Points < 1 {
		return errors.New("points must be at least 1")
	}
	if q.Order < 1 {
		return errors.New("order must be at least 1")
	}
	if len(q.CorrectAnswer) == 0 {
		return errors.New("correct_answer required")
	}
	return nil
}
