package exam

import (
	"math/rand/v2"
	"sort"
	"time"
)

// QuestionView is a question as served to a test-taker. It never carries the
// answer key.
type QuestionView struct {
	ID     string       `json:"id"`
	ExamID string       `json:"exam_id"`
	Text   string       `json:"question_text"`
	Type   QuestionType `json:"question_type"`
	Points int          `json:"points"`
	Order  int          `json:"order"`

	// at most one of these is set, matching Type
	*ChoiceView
	*MatchingView
}

type ChoiceView struct {
	Options []string `json:"options"`
}

type MatchingView struct {
	MatchingPairs []LeftItem `json:"matching_pairs"`
	RightOptions  []string   `json:"right_options"`
}

type LeftItem struct {
	Left string `json:"left"`
}

type ExamView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	DurationMin int            `json:"duration"`
	CreatedAt   time.Time      `json:"created_at"`
	Questions   []QuestionView `json:"questions"`
}

// Presenter builds learner-facing views of stored questions.
type Presenter struct {
	shuffle func(n int, swap func(i, j int))
}

// NewPresenter returns a presenter that shuffles matching right options with a
// uniform Fisher-Yates permutation from the runtime's random source.
func NewPresenter() *Presenter {
	return &Presenter{shuffle: rand.Shuffle}
}

// NewPresenterWithRand is NewPresenter with an explicit source, for tests.
func NewPresenterWithRand(r *rand.Rand) *Presenter {
	return &Presenter{shuffle: r.Shuffle}
}

// PresentExam strips answer keys from every question and orders them by Order.
func (p *Presenter) PresentExam(e Exam) ExamView {
	qs := sortedQuestions(e.Questions)
	view := ExamView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		DurationMin: e.DurationMin,
		CreatedAt:   e.CreatedAt,
		Questions:   make([]QuestionView, 0, len(qs)),
	}
	for _, q := range qs {
		view.Questions = append(view.Questions, p.Present(q))
	}
	return view
}

// Present builds the view of a single question. Matching questions get their
// right values shuffled on every call; zero pairs yield empty lists.
func (p *Presenter) Present(q Question) QuestionView {
	v := QuestionView{
		ID:     q.ID,
		ExamID: q.ExamID,
		Text:   q.Text,
		Type:   q.Type,
		Points: q.Points,
		Order:  q.Order,
	}
	body, err := q.Body()
	if err != nil {
		return v
	}
	switch b := body.(type) {
	case MultipleChoiceBody:
		opts := b.Options
		if opts == nil {
			opts = []string{}
		}
		v.ChoiceView = &ChoiceView{Options: opts}
	case MatchingBody:
		m := &MatchingView{
			MatchingPairs: make([]LeftItem, 0, len(b.Pairs)),
			RightOptions:  make([]string, 0, len(b.Pairs)),
		}
		for _, pair := range b.Pairs {
			m.MatchingPairs = append(m.MatchingPairs, LeftItem{Left: pair.Left})
			m.RightOptions = append(m.RightOptions, pair.Right)
		}
		p.shuffle(len(m.RightOptions), func(i, j int) {
			m.RightOptions[i], m.RightOptions[j] = m.RightOptions[j], m.RightOptions[i]
		})
		v.MatchingView = m
	}
	return v
}

func sortedQuestions(in []Question) []Question {
	qs := make([]Question, len(in))
	copy(qs, in)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs
}
