package exam

import (
	"github.com/mind-engage/examgrade/internal/answer"
	"github.com/mind-engage/examgrade/internal/grading"
)

// Scored is the outcome of grading one submission. Records do not yet carry
// IDs, user or attempt; the coordinator fills those in.
type Scored struct {
	Records    []AnswerRecord
	TotalScore int
	Correct    int
}

// Scorer applies the validator to every answered question of a submission.
type Scorer struct {
	v *grading.Validator
}

func NewScorer(v *grading.Validator) *Scorer {
	if v == nil {
		v = grading.NewValidator()
	}
	return &Scorer{v: v}
}

// Score grades submitted against questions. It has no side effects.
//
// Answers for question IDs that are not in questions are skipped. A question
// answered more than once is graded on its first answer only. Questions with no
// answer earn nothing and produce no record.
func (s *Scorer) Score(questions []Question, submitted []SubmittedAnswer) Scored {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := Scored{Records: make([]AnswerRecord, 0, len(submitted))}
	graded := make(map[string]struct{}, len(submitted))
	for _, sa := range submitted {
		q, ok := byID[sa.QuestionID]
		if !ok {
			continue
		}
		if _, dup := graded[q.ID]; dup {
			continue
		}
		graded[q.ID] = struct{}{}

		correct := s.v.Validate(string(q.Type), sa.UserAnswer, q.CorrectAnswer)
		earned := 0
		if correct {
			earned = q.Points
			out.Correct++
		}
		out.TotalScore += earned
		out.Records = append(out.Records, AnswerRecord{
			QuestionID:   q.ID,
			UserAnswer:   answer.Encode(sa.UserAnswer),
			IsCorrect:    correct,
			PointsEarned: earned,
		})
	}
	return out
}
