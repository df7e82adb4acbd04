// Package intent holds the immutable intent catalog the assistant is trained
// and matched against.
package intent

// Well-known tags with dedicated handling in the dialogue engine.
const (
	TagFallback    = "fallback"
	TagGreeting    = "greeting"
	TagSetReminder = "set_reminder"
	TagQuizRequest = "quiz_request"
)

// Actions an intent may declare to move the caller into a follow-up mode.
const (
	ActionSchedule = "schedule"
	ActionQuiz     = "quiz"
	ActionLinks    = "links"
)

// Intent is a named user goal with example phrases and canned responses.
type Intent struct {
	Tag       string   `yaml:"tag" json:"tag"`
	Patterns  []string `yaml:"patterns" json:"patterns"`
	Responses []string `yaml:"responses" json:"responses"`
	Action    string   `yaml:"action,omitempty" json:"action,omitempty"`
}

// Pattern is one example phrase with its position in corpus order.
type Pattern struct {
	Index int
	Tag   string
	Text  string
}
