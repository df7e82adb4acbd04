package quiz

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultBank(t *testing.T) {
	t.Parallel()

	b, err := Default("")
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if b.DefaultTopic() != "general" {
		t.Fatalf("DefaultTopic() = %q, want general", b.DefaultTopic())
	}
	qs, ok := b.Questions("general")
	if !ok || len(qs) != 3 {
		t.Fatalf("Questions(general) = %d, %v; want 3 questions", len(qs), ok)
	}
}

func TestSelectTopic(t *testing.T) {
	t.Parallel()

	b, err := Default("")
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	tests := []struct {
		utterance string
		want      string
	}{
		{"quiz me", "general"},
		{"", "general"},
		{"quiz me on math", "math"},
		{"Give me a mathematics quiz", "math"},
		{"test my physics", "science"},
		{"quiz me on coding", "programming"},
		// Earlier topics win when several are named.
		{"computer science and math", "math"},
		{"history quiz please", "history"},
	}
	for _, tt := range tests {
		if got := b.SelectTopic(tt.utterance); got != tt.want {
			t.Errorf("SelectTopic(%q) = %q, want %q", tt.utterance, got, tt.want)
		}
	}
}

func TestQuestionsAreSnapshots(t *testing.T) {
	t.Parallel()

	b, err := Default("")
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	qs, _ := b.Questions("general")
	qs[0].Prompt = "changed"
	qs[0].Keywords[0] = "changed"

	again, _ := b.Questions("general")
	if again[0].Prompt == "changed" || again[0].Keywords[0] == "changed" {
		t.Fatal("bank mutated through returned questions")
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		def  string
		want error
	}{
		{"empty document", "", "", ErrNoTopics},
		{"no topics", "topics: []\n", "", ErrNoTopics},
		{"no questions", "topics:\n  - name: math\n", "", ErrNoQuestions},
		{"no keywords", "topics:\n  - name: math\n    questions:\n      - prompt: 1+1?\n", "", ErrNoKeywords},
		{"unknown default", "topics:\n  - name: math\n    questions:\n      - prompt: 1+1?\n        keywords: ['2']\n", "art", ErrUnknownDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tt.doc), tt.def)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadDefaultsToFirstTopic(t *testing.T) {
	t.Parallel()

	doc := `{"topics": [{"name": "Art", "questions": [{"prompt": "Who painted the Mona Lisa?", "keywords": ["da vinci"]}]}]}`
	b, err := Load(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.DefaultTopic() != "art" {
		t.Fatalf("DefaultTopic() = %q, want art", b.DefaultTopic())
	}
}

func TestScorerCorrect(t *testing.T) {
	t.Parallel()

	s := Scorer{Threshold: DefaultThreshold}
	tests := []struct {
		answer   string
		keywords []string
		want     bool
	}{
		{"Paris", []string{"paris"}, true},
		{"pariss", []string{"paris"}, true},
		{"I think it is Paris", []string{"paris"}, true},
		{"London", []string{"paris"}, false},
		{"", []string{"paris"}, false},
		{"co2", []string{"carbon dioxide", "co2"}, true},
		{"carbon dioxid", []string{"carbon dioxide"}, true},
		{"3.14", []string{"3.14"}, true},
		{"venus", []string{"mars"}, false},
	}
	for _, tt := range tests {
		if got := s.Correct(tt.answer, tt.keywords); got != tt.want {
			t.Errorf("Correct(%q, %v) = %v, want %v", tt.answer, tt.keywords, got, tt.want)
		}
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	if got := Ratio("abc", "abc"); got != 1 {
		t.Errorf("Ratio(abc, abc) = %v, want 1", got)
	}
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Errorf("Ratio(abc, xyz) = %v, want 0", got)
	}
	if got := Ratio("", ""); got != 1 {
		t.Errorf("Ratio of empty strings = %v, want 1", got)
	}
}
