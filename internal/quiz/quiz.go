package quiz

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SessionLength is the number of questions a session walks through.
const SessionLength = 6

//go:embed questions.yaml
var questionsYAML []byte

// Question is read-only reference data. CorrectIndex never leaves the server;
// clients only ever see the Public projection.
type Question struct {
	Text         string   `yaml:"text"`
	ImageURL     string   `yaml:"imageUrl"`
	Answers      []string `yaml:"answers"`
	CorrectIndex int      `yaml:"correctIndex"`
}

// PublicQuestion is the questionData payload pushed at THINK entry.
type PublicQuestion struct {
	QuestionText string   `json:"questionText"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Answers      []string `json:"answers"`
}

func (q Question) Public() PublicQuestion {
	answers := make([]string, len(q.Answers))
	copy(answers, q.Answers)
	return PublicQuestion{
		QuestionText: q.Text,
		ImageURL:     q.ImageURL,
		Answers:      answers,
	}
}

type Bank struct {
	questions []Question
}

// Load parses the embedded question file.
func Load() (*Bank, error) {
	return Parse(questionsYAML)
}

func Parse(data []byte) (*Bank, error) {
	var file struct {
		Questions []Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	if len(file.Questions) != SessionLength {
		return nil, fmt.Errorf("expected %d questions, got %d", SessionLength, len(file.Questions))
	}
	for i, q := range file.Questions {
		if q.Text == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		if len(q.Answers) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 answers, got %d", i, len(q.Answers))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return nil, fmt.Errorf("question %d: correctIndex %d out of range", i, q.CorrectIndex)
		}
	}

	return &Bank{questions: file.Questions}, nil
}

// Sequence returns the fixed ordered question list for one session.
// The copy keeps the bank immutable no matter what callers do.
func (b *Bank) Sequence() []Question {
	seq := make([]Question, len(b.questions))
	copy(seq, b.questions)
	return seq
}
