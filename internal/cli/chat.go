package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"zenith/internal/chat"
	"zenith/internal/models"
	"zenith/internal/terminal"
)

// newChatCmd creates the chat command
func newChatCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [MESSAGE]",
		Short: "Talk with the Zenith companion",
		Long: `Start an interactive conversation with Zenith. With a MESSAGE argument a single
turn is sent and the reply printed. Commands: /reset, /transcript, /exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openClient(); err != nil {
				return err
			}
			session, err := a.chatSession(cmd.Context())
			if err != nil {
				return err
			}
			orch := chat.NewOrchestrator(session, a.logger("chat"))

			if len(args) > 0 {
				return a.chatTurn(cmd.Context(), orch, strings.Join(args, " "))
			}
			return a.chatLoop(cmd.Context(), orch, cmd.InOrStdin())
		},
	}
}

func (a *app) chatLoop(ctx context.Context, orch *chat.Orchestrator, in io.Reader) error {
	a.display.PrintWelcome("Your mindful companion. /reset starts over, /exit leaves.")
	for _, m := range orch.Transcript().Messages() {
		a.display.PrintMessage(m)
	}

	input := terminal.NewInput(in)
	for {
		if ctx.Err() != nil {
			break
		}
		a.display.PrintPrompt()
		line, err := input.ReadLine()
		if err != nil {
			break
		}

		if cmd, ok := terminal.IsCommand(line); ok {
			switch cmd {
			case "exit", "quit":
				a.display.PrintGoodbye()
				return nil
			case "reset", "clear":
				orch.Reset()
				a.display.PrintSuccess("Started a new conversation")
			case "transcript":
				a.display.PrintSeparator()
				for _, m := range orch.Transcript().Messages() {
					a.display.PrintMessage(m)
				}
				a.display.PrintSeparator()
			default:
				a.display.PrintWarning("Unknown command /" + cmd)
			}
			continue
		}

		if err := a.chatTurn(ctx, orch, line); err != nil && !errors.Is(err, models.ErrEmptyInput) {
			a.display.PrintError(err)
		}
	}

	a.display.PrintGoodbye()
	return nil
}

// chatTurn sends one message and streams the reply to the display
func (a *app) chatTurn(ctx context.Context, orch *chat.Orchestrator, text string) error {
	if strings.TrimSpace(text) == "" {
		return models.ErrEmptyInput
	}

	printed := 0
	orch.OnUpdate = func(m models.ChatMessage) {
		if printed == 0 {
			a.spinner.Stop()
		}
		a.display.WriteFragment(m.Content[printed:])
		printed = len(m.Content)
	}

	a.display.StartReply()
	if terminal.IsTerminal() {
		a.spinner.Start("")
	}
	_, err := orch.Send(ctx, text)
	a.spinner.Stop()
	a.display.EndReply()

	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.logger("chat").Printf("transcript has %d messages", orch.Transcript().Len())
	}
	return nil
}
