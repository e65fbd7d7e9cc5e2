package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nihongo/internal/chat"
)

const chatPrompt = "you> "

var replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask the AI assistant about Japanese",
		Args:  cobra.NoArgs,
		RunE:  runChatCmd,
	}
}

// sender is one side of a conversation.
type sender interface {
	Send(ctx context.Context, text string) (string, error)
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := s.plainLogger(cmd)
	if err != nil {
		return err
	}
	client, err := chat.NewClient(s.env.GeminiAPIKey, chat.WithModel(s.chatModel()))
	if err != nil {
		return fmt.Errorf("%w (set GEMINI_API_KEY)", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logf(cmd.OutOrStdout(), "Ask anything about Japanese. /reset clears the history, /quit leaves.\n")
	return chatLoop(ctx, func() sender { return chat.NewConversation(client) }, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// chatLoop reads one question per line until EOF, /quit or cancellation.
func chatLoop(ctx context.Context, newConversation func() sender, in io.Reader, out io.Writer, log logrus.FieldLogger) error {
	conv := newConversation()
	scanner := bufio.NewScanner(in)
	for {
		logf(out, chatPrompt)
		if !scanner.Scan() {
			logf(out, "\n")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			conv = newConversation()
			logf(out, "History cleared.\n")
			continue
		}

		reply, err := conv.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("chat request failed")
			logf(out, "%s\n", replyStyle.Render(chat.FallbackReply))
			continue
		}
		logf(out, "%s\n", replyStyle.Render(reply))
	}
}
