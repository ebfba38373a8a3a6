package grading

import (
	"fmt"

	"github.com/mind-engage/examgrade/internal/answer"
)

// comparer returns the canonical form used to compare two answer strings.
func comparer(caseSensitive bool) func(string) string {
	if caseSensitive {
		return answer.CleanLiteral
	}
	return answer.NormalizeForCompare
}

type multipleChoiceStrategy struct{ cmp func(string) string }

func (s multipleChoiceStrategy) Check(userRaw, correctRaw any) (bool, error) {
	var key string
	switch c := answer.Decode(correctRaw).(type) {
	case nil:
		return false, fmt.Errorf("%w: empty", ErrMalformedKey)
	case []any:
		// legacy rows stored the key as a one-element list
		if len(c) == 0 {
			return false, fmt.Errorf("%w: empty list", ErrMalformedKey)
		}
		key = answer.Text(c[0])
	case map[string]any:
		return false, fmt.Errorf("%w: object key for multiple choice", ErrMalformedKey)
	default:
		key = answer.Text(c)
	}
	key = s.cmp(key)
	if key == "" {
		return false, fmt.Errorf("%w: blank", ErrMalformedKey)
	}

	user := answer.Decode(userRaw)
	switch user.(type) {
	case []any, map[string]any:
		return false, fmt.Errorf("%w: structured value for multiple choice", ErrMalformedAnswer)
	}
	return s.cmp(answer.Text(user)) == key, nil
}

type shortAnswerStrategy struct{ cmp func(string) string }

func (s shortAnswerStrategy) Check(userRaw, correctRaw any) (bool, error) {
	accepted := map[string]struct{}{}
	correct := answer.Decode(correctRaw)
	if list, ok := answer.Strings(correct); ok {
		for _, a := range list {
			if n := s.cmp(a); n != "" {
				accepted[n] = struct{}{}
			}
		}
	} else if _, isObj := correct.(map[string]any); !isObj {
		if n := s.cmp(answer.Text(correct)); n != "" {
			accepted[n] = struct{}{}
		}
	}
	// a question with no acceptable answer can never be answered correctly
	if len(accepted) == 0 {
		return false, fmt.Errorf("%w: no acceptable answers", ErrMalformedKey)
	}

	// typed text is compared as written, even when it reads as JSON
	if text, isText := userRaw.(string); isText {
		_, ok := accepted[s.cmp(text)]
		return ok, nil
	}
	user := answer.Decode(userRaw)
	switch user.(type) {
	case []any, map[string]any:
		return false, fmt.Errorf("%w: structured value for short answer", ErrMalformedAnswer)
	}
	_, ok := accepted[s.cmp(answer.Text(user))]
	return ok, nil
}

type matchingStrategy struct{ cmp func(string) string }

func (s matchingStrategy) Check(userRaw, correctRaw any) (bool, error) {
	user := answer.Decode(userRaw)
	if user == nil {
		return false, nil
	}
	submitted, ok := answer.Mapping(user)
	if !ok {
		return false, fmt.Errorf("%w: matching answer is %T, want object", ErrMalformedAnswer, user)
	}

	pairs, ok := answer.Pairs(answer.Decode(correctRaw))
	if !ok {
		return false, fmt.Errorf("%w: matching key is not a pair list", ErrMalformedKey)
	}
	canonical := pairs[:0:0]
	for _, p := range pairs {
		if answer.CleanLiteral(p.Left) != "" && answer.CleanLiteral(p.Right) != "" {
			canonical = append(canonical, p)
		}
	}
	if len(canonical) == 0 {
		return false, fmt.Errorf("%w: no canonical pairs", ErrMalformedKey)
	}

	// left keys are matched as authored; cleaned keys catch quoting artifacts
	cleaned := make(map[string]any, len(submitted))
	for k, v := range submitted {
		ck := answer.CleanLiteral(k)
		if _, dup := cleaned[ck]; !dup {
			cleaned[ck] = v
		}
	}

	for _, p := range canonical {
		left := answer.CleanLiteral(p.Left)
		got, found := submitted[left]
		if !found {
			got, found = cleaned[left]
		}
		if !found {
			return false, nil
		}
		if s.cmp(answer.Text(got)) != s.cmp(p.Right) {
			return false, nil
		}
	}
	return true, nil
}
