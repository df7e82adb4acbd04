package dialogue

import (
	"context"
	"fmt"
	"strings"
)

func (e *Engine) quizStart(_ context.Context, t *turnState) (string, bool) {
	topic := e.bank.SelectTopic(t.text)
	questions, ok := e.bank.Questions(topic)
	if !ok || len(questions) == 0 {
		return "I don't have any questions ready right now. Try again later!", false
	}

	t.ctx.Set(KeyInQuiz, true)
	t.ctx.Set(KeyQuiz, QuizState{Topic: topic, Questions: questions})

	intro := e.pick(t.intent.Responses)
	return fmt.Sprintf("%s Here is a %s quiz with %d questions.\n%s",
		intro, topic, len(questions), questionPrompt(1, len(questions), questions[0].Prompt)), true
}

// answerQuiz scores the reply to the current question and advances the quiz.
// It reports false when the context claims a quiz is running but holds none.
func (e *Engine) answerQuiz(c *Context, text string) (Turn, bool) {
	q, ok := c.Quiz()
	if !ok || q.Index < 0 || q.Index >= len(q.Questions) {
		c.Delete(KeyInQuiz)
		c.Delete(KeyQuiz)
		e.logger.Warn("Quiz flag set without a valid quiz, resetting", "index", q.Index, "questions", len(q.Questions))
		return Turn{}, false
	}

	current := q.Questions[q.Index]
	var b strings.Builder
	if e.scorer.Correct(text, current.Keywords) {
		q.Score++
		b.WriteString("Correct!")
	} else {
		fmt.Fprintf(&b, "Not quite. The answer was %s.", current.Keywords[0])
	}
	q.Index++

	if q.Index >= len(q.Questions) {
		c.Delete(KeyQuiz)
		c.Delete(KeyInQuiz)
		fmt.Fprintf(&b, " Quiz complete! You scored %d/%d.", q.Score, len(q.Questions))
	} else {
		c.Set(KeyQuiz, q)
		b.WriteString("\n")
		b.WriteString(questionPrompt(q.Index+1, len(q.Questions), q.Questions[q.Index].Prompt))
	}
	return Turn{Response: b.String(), Intent: IntentQuizAnswer, Source: SourceQuiz}, true
}

func questionPrompt(n, total int, prompt string) string {
	return fmt.Sprintf("Question %d of %d: %s", n, total, prompt)
}
