package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
)

// policy produces the reply for a resolved intent. A false result is a soft
// failure: the reply is shown but the turn leaves no trace in the context.
type policy func(ctx context.Context, t *turnState) (string, bool)

type turnState struct {
	userID string
	ctx    *Context
	text   string
	intent intent.Intent
}

const (
	helpReply  = "Sure! I can help with study schedules, subjects, quizzes or videos. What would you like to know more about?"
	sorryReply = "No worries! Just let me know what you need help with."

	reminderPrompt = "To set a reminder, please tell me the specific time (e.g., 'Remind me at 8:00 AM')."
)

var subjectRe = regexp.MustCompile(`(?i)\b(?:for|on|about)\s+(.+)$`)

func (e *Engine) resolvePolicies() error {
	intents := e.catalog.Intents()
	e.policies = make(map[string]resolved, len(intents))
	for _, in := range intents {
		var p policy
		switch {
		case in.Tag == intent.TagFallback:
			p = e.fallbackHelp
		case in.Tag == intent.TagGreeting:
			p = e.timeOfDayGreeting
		case in.Tag == intent.TagSetReminder:
			p = e.timeExtraction
		case in.Tag == intent.TagQuizRequest || in.Action == intent.ActionQuiz:
			if e.bank == nil {
				return fmt.Errorf("intent %q: %w", in.Tag, ErrNoQuizBank)
			}
			p = e.quizStart
		case in.Action == intent.ActionLinks:
			p = e.contentLinks
		case len(in.Responses) == 1:
			p = fixed
		default:
			p = e.randomChoice
		}
		e.policies[in.Tag] = resolved{intent: in, policy: p}
	}
	return nil
}

func fixed(_ context.Context, t *turnState) (string, bool) {
	return t.intent.Responses[0], true
}

func (e *Engine) randomChoice(_ context.Context, t *turnState) (string, bool) {
	return e.pick(t.intent.Responses), true
}

func (e *Engine) timeOfDayGreeting(_ context.Context, _ *turnState) (string, bool) {
	var greeting string
	switch h := e.now().Hour(); {
	case h < 12:
		greeting = "Good morning!"
	case h < 18:
		greeting = "Good afternoon!"
	default:
		greeting = "Good evening!"
	}
	return greeting + " How can I help you today?", true
}

func (e *Engine) timeExtraction(ctx context.Context, t *turnState) (string, bool) {
	at, ok := ExtractTime(t.text)
	if !ok {
		return reminderPrompt, false
	}
	t.ctx.Set(KeyReminderTime, at)
	if e.reminders != nil {
		if err := e.reminders.RecordReminder(ctx, t.userID, at); err != nil {
			e.logger.Warn("Failed to record reminder", "user_id", t.userID, "at", at, "error", err)
		}
	}
	return "Understood. I will set a reminder for you at " + at + ".", true
}

func (e *Engine) fallbackHelp(_ context.Context, t *turnState) (string, bool) {
	lower := strings.ToLower(t.text)
	switch {
	case strings.Contains(lower, "help"):
		return helpReply, true
	case strings.Contains(lower, "sorry"):
		return sorryReply, true
	}
	return e.pick(t.intent.Responses), true
}

func (e *Engine) contentLinks(ctx context.Context, t *turnState) (string, bool) {
	subject := ""
	if m := subjectRe.FindStringSubmatch(t.text); m != nil {
		subject = strings.Trim(strings.TrimSpace(m[1]), ".!?")
	}
	if subject == "" {
		subject = t.ctx.String(KeyStudySubject)
	}
	if subject == "" {
		return e.pick(t.intent.Responses), true
	}

	if e.links == nil {
		return "I couldn't find study material for " + subject + " right now.", true
	}

	links, err := e.links.FetchLinks(ctx, subject, "")
	if err != nil {
		e.logger.Warn("Study material lookup failed", "user_id", t.userID, "subject", subject, "error", err)
		links = nil
	}
	if len(links) == 0 {
		return "I couldn't find study material for " + subject + " right now.", true
	}

	var b strings.Builder
	b.WriteString("Here is some study material for ")
	b.WriteString(subject)
	b.WriteString(":")
	for _, l := range links {
		fmt.Fprintf(&b, "\n- [%s](%s)", l.Label, l.URL)
	}
	return b.String(), true
}
