package exam

import (
	"context"
	"math"

	"github.com/mind-engage/examgrade/internal/answer"
)

// Review is the post-submission summary of one completed attempt.
type Review struct {
	Attempt         Attempt      `json:"attempt"`
	ExamTitle       string       `json:"exam_title"`
	MaxPoints       int          `json:"max_points"`
	Percentage      int          `json:"percentage"`
	CorrectCount    int          `json:"correct_count"`
	TotalQuestions  int          `json:"total_questions"`
	DurationSeconds int64        `json:"duration_seconds"`
	Items           []ReviewItem `json:"items"`
}

type ReviewItem struct {
	QuestionID    string       `json:"question_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Points        int          `json:"points"`
	Answered      bool         `json:"answered"`
	UserAnswer    any          `json:"user_answer"`
	CorrectAnswer any          `json:"correct_answer"`
	IsCorrect     bool         `json:"is_correct"`
	PointsEarned  int          `json:"points_earned"`
}

// BuildReview joins the exam's questions (in order) with the attempt's graded
// answers. Percentage is rounded to the nearest integer and is 0 when the exam
// has no points.
func BuildReview(e Exam, a Attempt, records []AnswerRecord) Review {
	byQuestion := make(map[string]AnswerRecord, len(records))
	for _, r := range records {
		if _, seen := byQuestion[r.QuestionID]; !seen {
			byQuestion[r.QuestionID] = r
		}
	}

	rv := Review{
		Attempt:        a,
		ExamTitle:      e.Title,
		MaxPoints:      e.MaxPoints(),
		TotalQuestions: len(e.Questions),
		Items:          make([]ReviewItem, 0, len(e.Questions)),
	}
	if rv.MaxPoints > 0 {
		rv.Percentage = int(math.Round(float64(a.TotalScore) / float64(rv.MaxPoints) * 100))
	}
	if a.CompletedAt != nil {
		rv.DurationSeconds = int64(a.CompletedAt.Sub(a.StartedAt).Seconds())
	}

	for _, q := range sortedQuestions(e.Questions) {
		item := ReviewItem{
			QuestionID:    q.ID,
			Text:          q.Text,
			Type:          q.Type,
			Points:        q.Points,
			CorrectAnswer: answer.Decode(q.CorrectAnswer),
		}
		if r, ok := byQuestion[q.ID]; ok {
			item.Answered = true
			item.UserAnswer = displayAnswer(q.Type, r.UserAnswer)
			item.IsCorrect = r.IsCorrect
			item.PointsEarned = r.PointsEarned
			if r.IsCorrect {
				rv.CorrectCount++
			}
		}
		rv.Items = append(rv.Items, item)
	}
	return rv
}

// displayAnswer turns a stored matching answer back into its mapping; other
// types are shown as stored.
func displayAnswer(t QuestionType, stored any) any {
	if t != Matching {
		return stored
	}
	if m, ok := answer.Mapping(answer.Decode(stored)); ok {
		return m
	}
	return stored
}

// LoadReview reads a completed attempt with its exam and answers.
func LoadReview(ctx context.Context, s Store, attemptID string) (Review, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Review{}, err
	}
	e, err := s.GetExam(ctx, a.ExamID)
	if err != nil {
		return Review{}, err
	}
	records, err := s.AttemptAnswers(ctx, a.ID)
	if err != nil {
		return Review{}, err
	}
	return BuildReview(e, a, records), nil
}
