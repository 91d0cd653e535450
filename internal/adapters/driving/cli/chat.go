package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the interactive terminal chat.

Each question is answered from the index and remembered in the current
session. Earlier sessions can be reopened from the session list.

Controls:
  Enter    - Send
  Tab      - Sessions
  Ctrl+N   - New session
  PgUp/Dn  - Scroll
  F1       - Help
  Esc      - Back
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", domain.DefaultUserID, "user recorded with each exchange")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("chat crashed: %v", r)
		}
	}()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	answer, err := ensureChat(cmd.Context(), settings)
	if err != nil {
		return err
	}
	history, err := ensureHistory(settings)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{Answer: answer, History: history})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(cmd.Context()).WithUser(chatUser)

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
