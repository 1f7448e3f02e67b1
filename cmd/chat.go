package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

var (
	chatNoSave bool // lulu chat --no-save
	chatForce  bool // lulu chat --force
)

const (
	chatCmdExit    = "/exit"
	chatCmdQuit    = "/quit"
	chatCmdHistory = "/history"
	chatCmdStatus  = "/status"
	chatCmdSave    = "/save"
	chatCmdHelp    = "/help"
)

var chatCommands = []string{chatCmdExit, chatCmdQuit, chatCmdHistory, chatCmdStatus, chatCmdSave, chatCmdHelp}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatNoSave, "no-save", false, "Do not save the transcript when the session ends")
	chatCmd.Flags().BoolVarP(&chatForce, "force", "f", false, "Chat even if the camera is not running")
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the bot, once or interactively",
	Long: `With a message (or piped stdin) lulu sends it once and prints the reply.
Without one it opens an interactive session; type /help for its commands.

Chat is only available while the camera is running, as in the dashboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCompanion()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if !chatForce {
			if _, err := c.Poller.Poll(ctx); err != nil {
				return fmt.Errorf("failed to reach the server: %w", err)
			}
			if !c.Poller.ChatEnabled() {
				return errors.New("chat is available only while the camera is running (try 'lulu camera start')")
			}
		}

		message := ""
		if len(args) > 0 {
			message = args[0]
		} else {
			message = readStdin()
		}
		if strings.TrimSpace(message) != "" {
			return sendAndPrint(ctx, c, message)
		}

		if !ui.IsInteractive() {
			return cmd.Help()
		}
		defer saveChatTranscript(c)
		return runChatREPL(ctx, c)
	},
}

func runChatREPL(ctx context.Context, c *service.Companion) error {
	fmt.Printf("Chatting with %s. Type %s for commands, %s to leave.\n",
		keyColor(c.Client.BaseURL()), highlightColor(chatCmdHelp), highlightColor(chatCmdExit))
	for {
		res, err := ui.RunChatInput(chatCommands, "Say something...")
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}
		if res.Canceled {
			return nil
		}
		input := res.Value
		if strings.HasPrefix(input, "/") {
			if done := handleChatCommand(ctx, c, input); done {
				return nil
			}
			continue
		}
		if err := sendAndPrint(ctx, c, input); err != nil && !errors.Is(err, service.ErrEmptyMessage) {
			// The fallback reply is already printed; keep the session going.
			service.Debugf("chat send: %v", err)
		}
	}
}

// handleChatCommand runs a slash command and reports whether to leave.
func handleChatCommand(ctx context.Context, c *service.Companion, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case chatCmdExit, chatCmdQuit:
		return true
	case chatCmdHistory:
		messages := c.Chat.Log().Messages()
		if len(messages) == 0 {
			fmt.Println(grayColor("No messages yet."))
		}
		for _, m := range messages {
			printChatMessage(m)
		}
	case chatCmdStatus:
		snap, err := c.Poller.Poll(ctx)
		if err != nil {
			fmt.Println(redColor(fmt.Sprintf("Failed to fetch status: %v", err)))
			break
		}
		fmt.Print(formatSnapshot(snap, time.Now()))
	case chatCmdSave:
		saveChatTranscript(c)
	case chatCmdHelp:
		fmt.Printf("  %-10s %s\n", chatCmdHistory, "show this session's messages")
		fmt.Printf("  %-10s %s\n", chatCmdStatus, "show who is in front of the camera")
		fmt.Printf("  %-10s %s\n", chatCmdSave, "save the transcript now")
		fmt.Printf("  %-10s %s\n", chatCmdExit, "leave the chat")
	default:
		fmt.Println(yellowColor(fmt.Sprintf("Unknown command %s", fields[0])))
	}
	return false
}

func sendAndPrint(ctx context.Context, c *service.Companion, message string) error {
	reply, err := withLoading(c.Display, "Thinking...", func() (service.ChatMessage, error) {
		return c.Chat.Send(ctx, message)
	})
	if errors.Is(err, service.ErrEmptyMessage) {
		return err
	}
	printChatMessage(reply)
	return err
}

// printChatMessage prints a message; assistant replies are rendered as markdown.
func printChatMessage(m service.ChatMessage) {
	stamp := m.At.Format("15:04")
	if m.Origin == service.OriginUser {
		fmt.Println(ui.FormatChatLine(true, stamp, service.SanitizeText(m.Content), ui.GetTerminalWidth()))
		return
	}
	header := fmt.Sprintf("%s%s%s%s %s%s%s", data.BoldSeq, data.RoleAssistantColor, ui.AssistantLabel, data.ResetSeq,
		data.DetailColor, stamp, data.ResetSeq)
	fmt.Println(header)
	fmt.Println(ui.RenderMarkdown(service.SanitizeText(m.Content), ui.GetTerminalWidth()-2))
}

func saveChatTranscript(c *service.Companion) {
	if chatNoSave {
		return
	}
	id, err := c.SaveTranscript(transcriptStore())
	if err != nil {
		service.Warnf("%v", err)
		return
	}
	if id != "" {
		fmt.Printf("Transcript saved as %s\n", keyColor(id))
	}
}
