package exam

import (
	"encoding/json"
	"time"

	"github.com/mind-engage/examgrade/internal/answer"
	"github.com/mind-engage/examgrade/internal/grading"
)

type QuestionType string

const (
	MultipleChoice QuestionType = grading.TypeMultipleChoice
	ShortAnswer    QuestionType = grading.TypeShortAnswer
	Matching       QuestionType = grading.TypeMatching
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, ShortAnswer, Matching:
		return true
	}
	return false
}

// Question is one stored question. Options and CorrectAnswer hold the payloads
// exactly as stored; their shape depends on Type and on when the row was written.
type Question struct {
	ID            string          `json:"id"`
	ExamID        string          `json:"exam_id"`
	Text          string          `json:"question_text"`
	Type          QuestionType    `json:"question_type"`
	Points        int             `json:"points"`
	Order         int             `json:"order"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
}

// Body is the type-specific part of a question.
type Body interface {
	QuestionType() QuestionType
}

type MultipleChoiceBody struct {
	Options []string
}

type ShortAnswerBody struct{}

type MatchingBody struct {
	Pairs []answer.Pair
}

func (MultipleChoiceBody) QuestionType() QuestionType { return MultipleChoice }
func (ShortAnswerBody) QuestionType() QuestionType    { return ShortAnswer }
func (MatchingBody) QuestionType() QuestionType       { return Matching }

// Body decodes the options payload into the variant for q.Type. Payloads that do
// not have the expected shape decode to an empty variant.
func (q Question) Body() (Body, error) {
	switch q.Type {
	case MultipleChoice:
		opts, _ := answer.Strings(answer.Decode(q.Options))
		return MultipleChoiceBody{Options: opts}, nil
	case ShortAnswer:
		return ShortAnswerBody{}, nil
	case Matching:
		pairs := servedPairs(answer.Decode(q.Options))
		if len(pairs) == 0 {
			pairs, _ = answer.Pairs(answer.Decode(q.CorrectAnswer))
		}
		return MatchingBody{Pairs: pairs}, nil
	default:
		return nil, ErrUnknownQuestionType
	}
}

// servedPairs reads pairs from either the authoring form (a pair list) or the
// served form {matching_pairs: [{left}], right_options: [...]}. In the served
// form the right values are only meaningful as a multiset.
func servedPairs(v any) []answer.Pair {
	m, ok := v.(map[string]any)
	if _, served := m["matching_pairs"]; !ok || !served {
		pairs, _ := answer.Pairs(v)
		return pairs
	}
	lefts, _ := answer.Pairs(m["matching_pairs"])
	rights, _ := answer.Strings(m["right_options"])
	out := make([]answer.Pair, 0, len(lefts))
	for i, p := range lefts {
		if p.Right == "" && i < len(rights) {
			p.Right = rights[i]
		}
		out = append(out, p)
	}
	return out
}

type Exam struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DurationMin int        `json:"duration"`
	IsPublished bool       `json:"is_published"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Questions   []Question `json:"questions"`
}

// MaxPoints is the sum of all question points.
func (e Exam) MaxPoints() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

type Attempt struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ExamID      string     `json:"exam_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TotalScore  int        `json:"total_score"`
	IsCompleted bool       `json:"is_completed"`
}

// AnswerRecord is one graded answer. UserAnswer is in storage form.
type AnswerRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AttemptID    string    `json:"attempt_id"`
	QuestionID   string    `json:"question_id"`
	UserAnswer   any       `json:"user_answer"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// SubmittedAnswer is one entry of a submission as sent by the client.
// UserAnswer is a string, an object keyed by left item, or nil.
type SubmittedAnswer struct {
	QuestionID string `json:"question_id"`
	UserAnswer any    `json:"user_answer"`
}

type SubmissionResult struct {
	AttemptID      string `json:"attempt_id"`
	TotalScore     int    `json:"total_score"`
	TotalQuestions int    `json:"total_questions"`
}
