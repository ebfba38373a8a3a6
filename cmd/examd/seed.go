package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/examgrade/internal/exam"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load an exam from a YAML fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		e, err := loadFixture(path)
		if err != nil {
			return err
		}
		cfg := loadConfig(cmd)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		be, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer be.close()
		if err := be.store.PutExam(ctx, e); err != nil {
			return fmt.Errorf("store exam %s: %w", e.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded exam %s (%d questions, %d points)\n", e.ID, len(e.Questions), e.MaxPoints())
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "exam fixture (YAML)")
	_ = seedCmd.MarkFlagRequired("file")
}

type fixture struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Duration    int               `yaml:"duration"`
	Published   bool              `yaml:"published"`
	CreatedBy   string            `yaml:"created_by"`
	Questions   []fixtureQuestion `yaml:"questions"`
}

type fixtureQuestion struct {
	ID      string        `yaml:"id"`
	Text    string        `yaml:"text"`
	Type    string        `yaml:"type"`
	Points  int           `yaml:"points"`
	Order   int           `yaml:"order"`
	Options []string      `yaml:"options"`
	Answer  any           `yaml:"answer"` // string or list of strings
	Pairs   []fixturePair `yaml:"pairs"`
}

type fixturePair struct {
	Left  string `yaml:"left" json:"left"`
	Right string `yaml:"right" json:"right"`
}

func loadFixture(path string) (exam.Exam, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return exam.Exam{}, err
	}
	var f fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return exam.Exam{}, fmt.Errorf("parse %s: %w", path, err)
	}
	e := exam.Exam{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		DurationMin: f.Duration,
		IsPublished: f.Published,
		CreatedBy:   f.CreatedBy,
	}
	for i, fq := range f.Questions {
		q, err := fq.toQuestion(f.ID, i+1)
		if err != nil {
			return exam.Exam{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		e.Questions = append(e.Questions, q)
	}
	if err := e.Validate(); err != nil {
		return exam.Exam{}, err
	}
	return e, nil
}

func (fq fixtureQuestion) toQuestion(examID string, pos int) (exam.Question, error) {
	q := exam.Question{
		ID:     fq.ID,
		ExamID: examID,
		Text:   fq.Text,
		Type:   exam.QuestionType(fq.Type),
		Points: fq.Points,
		Order:  fq.Order,
	}
	if q.Order == 0 {
		q.Order = pos
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("%s-q%d", examID, q.Order)
	}
	if q.Points == 0 {
		q.Points = 1
	}

	var options, key any
	switch q.Type {
	case exam.MultipleChoice:
		options, key = fq.Options, fq.Answer
	case exam.ShortAnswer:
		key = fq.Answer
	case exam.Matching:
		options, key = fq.Pairs, fq.Pairs
	default:
		return exam.Question{}, fmt.Errorf("unknown type %q", fq.Type)
	}
	if options != nil {
		b, err := json.Marshal(options)
		if err != nil {
			return exam.Question{}, err
		}
		q.Options = b
	}
	if key != nil {
		b, err := json.Marshal(key)
		if err != nil {
			return exam.Question{}, err
		}
		q.CorrectAnswer = b
	}
	return q, nil
}
