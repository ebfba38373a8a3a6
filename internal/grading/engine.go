package grading

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Question types understood by the validator.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeShortAnswer    = "short_answer"
	TypeMatching       = "matching"
)

var (
	ErrUnknownType     = errors.New("unknown question type")
	ErrMalformedKey    = errors.New("malformed correct answer")
	ErrMalformedAnswer = errors.New("malformed submitted answer")
)

// Strategy judges one question type. A non-nil error explains why the answer
// could not be judged correct; the verdict is then always false.
type Strategy interface {
	Check(user, correct any) (bool, error)
}

// Validator routes by question type to the matching Strategy.
type Validator struct {
	strategies map[string]Strategy
	log        *zap.Logger
}

type Option func(*config)

type config struct {
	CaseSensitive bool
	Logger        *zap.Logger
}

// WithCaseSensitive switches text comparison from case-insensitive (default)
// to case-sensitive. Quote and whitespace cleaning applies either way.
func WithCaseSensitive(b bool) Option  { return func(c *config) { c.CaseSensitive = b } }
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.Logger = l } }

// NewValidator installs the built-in strategies.
func NewValidator(opts ...Option) *Validator {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cmp := comparer(cfg.CaseSensitive)
	return &Validator{
		log: cfg.Logger.Named("grading"),
		strategies: map[string]Strategy{
			TypeMultipleChoice: multipleChoiceStrategy{cmp: cmp},
			TypeShortAnswer:    shortAnswerStrategy{cmp: cmp},
			TypeMatching:       matchingStrategy{cmp: cmp},
		},
	}
}

// Validate reports whether userRaw is a correct answer for a question of type
// qType whose stored key is correctRaw. It never panics and never returns an
// error: anything that cannot be judged is incorrect.
func (v *Validator) Validate(qType string, userRaw, correctRaw any) (correct bool) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Warn("validator panic recovered", zap.String("type", qType), zap.Any("panic", r))
			correct = false
		}
	}()

	ok, err := v.Check(qType, userRaw, correctRaw)
	if err != nil {
		v.log.Debug("answer judged incorrect", zap.String("type", qType), zap.Error(err))
		return false
	}
	return ok
}

// Check is Validate with the reason exposed.
func (v *Validator) Check(qType string, userRaw, correctRaw any) (bool, error) {
	s, ok := v.strategies[qType]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownType, qType)
	}
	return s.Check(userRaw, correctRaw)
}
