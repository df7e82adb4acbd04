package main

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sujith0466/Smart-Study-Buddy/internal/chat"
	"github.com/sujith0466/Smart-Study-Buddy/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Chat starts an interactive conversation on stdin and stdout using the
same engine as the web server. Conversation state is kept in memory and
reminders are not persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Keep logs off the conversation.
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := buildAssistant(ctx, cfg, assistantDeps{logger: logger})
		if err != nil {
			return err
		}

		var convLogger chat.ConversationLogger
		if cfg.ConversationLog.Enabled {
			convLogger, err = chat.NewConversationLogger(chat.ConversationLogConfig{
				Enabled:       true,
				Dir:           cfg.ConversationLog.Dir,
				GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
				GlobalPath:    cfg.ConversationLog.GlobalPath,
				QueueSize:     cfg.ConversationLog.QueueSize,
			}, logger)
			if err != nil {
				return err
			}
			defer func() { _ = convLogger.Close() }()
		}

		h := chat.NewHandler(a.engine, convLogger, chat.Options{Logger: logger})
		return h.NewConsole("cli-" + uuid.NewString()).Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
