// Package quiz holds the quiz question bank and answer scoring.
package quiz

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sujith0466/Smart-Study-Buddy/internal/nlp"
)

//go:embed questions.yaml
var defaultBank []byte

var (
	// ErrNoTopics is returned when a bank defines no topics.
	ErrNoTopics = errors.New("quiz bank has no topics")
	// ErrNoQuestions is returned when a topic has no questions.
	ErrNoQuestions = errors.New("quiz topic has no questions")
	// ErrNoKeywords is returned when a question has no expected keywords.
	ErrNoKeywords = errors.New("quiz question has no keywords")
	// ErrUnknownDefault is returned when the default topic is not defined.
	ErrUnknownDefault = errors.New("default quiz topic is not defined")
)

// Question is a single prompt and the keywords accepted as its answer.
type Question struct {
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Topic groups questions under a name and optional aliases.
type Topic struct {
	Name      string     `yaml:"name" json:"name"`
	Aliases   []string   `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Questions []Question `yaml:"questions" json:"questions"`
}

type bankFile struct {
	Default string  `yaml:"default"`
	Topics  []Topic `yaml:"topics"`
}

// Bank is the immutable set of quiz topics.
type Bank struct {
	topics       []Topic
	byName       map[string]int
	names        [][][]string
	defaultTopic string
}

// Load parses a YAML or JSON question bank. defaultTopic, when non-empty,
// overrides the default named in the document.
func Load(r io.Reader, defaultTopic string) (*Bank, error) {
	var doc bankFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTopics
		}
		return nil, fmt.Errorf("decode quiz bank: %w", err)
	}
	if defaultTopic != "" {
		doc.Default = defaultTopic
	}
	return New(doc.Topics, doc.Default)
}

// LoadFile reads a question bank from disk.
func LoadFile(path, defaultTopic string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz bank %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	b, err := Load(f, defaultTopic)
	if err != nil {
		return nil, fmt.Errorf("load quiz bank %s: %w", path, err)
	}
	return b, nil
}

// Default returns the bank shipped with the binary.
func Default(defaultTopic string) (*Bank, error) {
	return Load(bytes.NewReader(defaultBank), defaultTopic)
}

// New validates topics and builds a bank. An empty defaultTopic selects the
// first topic.
func New(topics []Topic, defaultTopic string) (*Bank, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	b := &Bank{byName: make(map[string]int, len(topics))}
	for _, t := range topics {
		t.Name = strings.ToLower(strings.TrimSpace(t.Name))
		if t.Name == "" {
			return nil, fmt.Errorf("topic #%d: empty name", len(b.topics))
		}
		if _, dup := b.byName[t.Name]; dup {
			return nil, fmt.Errorf("topic %q: defined twice", t.Name)
		}
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("topic %q: %w", t.Name, ErrNoQuestions)
		}
		for i, q := range t.Questions {
			if len(q.Keywords) == 0 {
				return nil, fmt.Errorf("topic %q question %d: %w", t.Name, i, ErrNoKeywords)
			}
		}

		var names [][]string
		for _, n := range append([]string{t.Name}, t.Aliases...) {
			if toks := nlp.Normalize(n); len(toks) > 0 {
				names = append(names, toks)
			}
		}

		b.byName[t.Name] = len(b.topics)
		b.topics = append(b.topics, cloneTopic(t))
		b.names = append(b.names, names)
	}

	defaultTopic = strings.ToLower(strings.TrimSpace(defaultTopic))
	if defaultTopic == "" {
		defaultTopic = b.topics[0].Name
	}
	if _, ok := b.byName[defaultTopic]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, defaultTopic)
	}
	b.defaultTopic = defaultTopic
	return b, nil
}

// DefaultTopic returns the topic used when an utterance names none.
func (b *Bank) DefaultTopic() string {
	return b.defaultTopic
}

// Topics returns topic names in bank order.
func (b *Bank) Topics() []string {
	out := make([]string, len(b.topics))
	for i, t := range b.topics {
		out[i] = t.Name
	}
	return out
}

// SelectTopic returns the first topic whose name or an alias appears in the
// utterance, or the default topic.
func (b *Bank) SelectTopic(utterance string) string {
	tokens := nlp.Normalize(utterance)
	if len(tokens) == 0 {
		return b.defaultTopic
	}
	for i, names := range b.names {
		for _, name := range names {
			if containsRun(tokens, name) {
				return b.topics[i].Name
			}
		}
	}
	return b.defaultTopic
}

// Questions returns a copy of the questions of topic.
func (b *Bank) Questions(topic string) ([]Question, bool) {
	i, ok := b.byName[strings.ToLower(topic)]
	if !ok {
		return nil, false
	}
	return cloneTopic(b.topics[i]).Questions, true
}

// containsRun reports whether needle occurs as a contiguous run in tokens.
func containsRun(tokens, needle []string) bool {
	for i := 0; i+len(needle) <= len(tokens); i++ {
		match := true
		for j := range needle {
			if tokens[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func cloneTopic(t Topic) Topic {
	t.Aliases = append([]string(nil), t.Aliases...)
	qs := make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		qs[i] = Question{Prompt: q.Prompt, Keywords: append([]string(nil), q.Keywords...)}
	}
	t.Questions = qs
	return t
}
