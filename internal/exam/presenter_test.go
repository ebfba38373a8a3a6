package exam

import (
	"encoding/json"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
)

func TestPresentMatchingIsPermutation(t *testing.T) {
	p := NewPresenterWithRand(rand.New(rand.NewPCG(1, 2)))
	q := Question{ID: "m", Type: Matching, Points: 2,
		Options:       raw(`[{"left":"a","right":"1"},{"left":"b","right":"2"},{"left":"c","right":"3"},{"left":"d","right":"3"}]`),
		CorrectAnswer: raw(`[{"left":"a","right":"1"}]`)}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v := p.Present(q)
		if v.MatchingView == nil {
			t.Fatal("matching view missing")
		}
		lefts := make([]string, 0, len(v.MatchingPairs))
		for _, l := range v.MatchingPairs {
			lefts = append(lefts, l.Left)
		}
		if strings.Join(lefts, ",") != "a,b,c,d" {
			t.Fatalf("lefts = %v, want source order", lefts)
		}
		rights := append([]string(nil), v.RightOptions...)
		seen[strings.Join(rights, ",")] = true
		sort.Strings(rights)
		if strings.Join(rights, ",") != "1,2,3,3" {
			t.Fatalf("right options %v are not a permutation of 1,2,3,3", v.RightOptions)
		}
	}
	if len(seen) < 2 {
		t.Fatalf("right options never reordered across 50 presentations")
	}
}

func TestPresentMatchingZeroPairs(t *testing.T) {
	v := NewPresenter().Present(Question{ID: "m", Type: Matching, Options: raw(`[]`), CorrectAnswer: raw(`[]`)})
	if v.MatchingView == nil {
		t.Fatal("matching view missing")
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"matching_pairs":[]`) || !strings.Contains(s, `"right_options":[]`) {
		t.Fatalf("empty lists missing: %s", s)
	}
}

func TestPresentNeverLeaksKey(t *testing.T) {
	view := NewPresenter().PresentExam(geographyExam())
	b, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, leak := range []string{"correct_answer", `"right":`} {
		if strings.Contains(s, leak) {
			t.Fatalf("view leaks %q: %s", leak, s)
		}
	}
}

func TestPresentExamOrdersQuestions(t *testing.T) {
	e := geographyExam()
	e.Questions[0], e.Questions[2] = e.Questions[2], e.Questions[0]
	view := NewPresenter().PresentExam(e)
	var ids []string
	for _, q := range view.Questions {
		ids = append(ids, q.ID)
	}
	if strings.Join(ids, ",") != "q-mc,q-sa,q-mt" {
		t.Fatalf("order = %v", ids)
	}
	if view.Questions[0].ChoiceView == nil || len(view.Questions[0].Options) != 3 {
		t.Fatalf("multiple choice options missing: %+v", view.Questions[0])
	}
	if view.Questions[1].ChoiceView != nil || view.Questions[1].MatchingView != nil {
		t.Fatalf("short answer should carry no options: %+v", view.Questions[1])
	}
}

func TestPresentServedFormOptions(t *testing.T) {
	q := Question{ID: "m", Type: Matching,
		Options:       raw(`{"matching_pairs":[{"left":"x"},{"left":"y"}],"right_options":["1","2"]}`),
		CorrectAnswer: raw(`[{"left":"x","right":"1"},{"left":"y","right":"2"}]`)}
	v := NewPresenter().Present(q)
	if len(v.MatchingPairs) != 2 || len(v.RightOptions) != 2 {
		t.Fatalf("view = %+v", v.MatchingView)
	}
}
