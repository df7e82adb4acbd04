package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Console commands.
const (
	consoleQuit  = "/quit"
	consoleReset = "/reset"
)

// Console runs a line-oriented conversation with the engine, one turn per
// input line, sharing the conversation log with the web channels.
type Console struct {
	h         *Handler
	userID    string
	sessionID string
}

// NewConsole creates a console conversation for userID.
func (h *Handler) NewConsole(userID string) *Console {
	return &Console{h: h, userID: userID, sessionID: uuid.NewString()}
}

// Run reads lines from in until EOF, /quit or ctx is cancelled, writing
// each reply to out.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Study Buddy is ready. Type %s to start over, %s to leave.\n", consoleReset, consoleQuit)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := sc.Text()
		switch strings.TrimSpace(line) {
		case consoleQuit:
			fmt.Fprintln(out, "Bot: Goodbye!")
			return nil
		case consoleReset:
			c.h.engine.ResetContext(c.userID)
			fmt.Fprintln(out, "Bot: Conversation cleared.")
			continue
		}

		turn := c.h.respond(ctx, c.userID, c.sessionID, ChannelCLI, line, "")
		fmt.Fprintf(out, "Bot: %s\n", turn.Response)
	}
}
