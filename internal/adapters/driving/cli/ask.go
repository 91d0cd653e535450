package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var (
	askSession string
	askUser    string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the index",
	Long: `Answer a question from the index.

With a question argument, print one answer and exit. Without one, read
questions line by line from standard input and answer each in the same
session. The answer goes to stdout and the session id to stderr, so
follow-up calls can pass it back with --session.

Examples:
  ragchat ask "অনুপমের ভাষায় সুপুরুষ কাকে বলা হয়েছে?"
  ragchat ask --session 3f2a... "And who else?"
  cat questions.txt | ragchat ask`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session to continue (default a new session)")
	askCmd.Flags().StringVar(&askUser, "user", domain.DefaultUserID, "user recorded with each exchange")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	answer, err := ensureChat(cmd.Context(), settings)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		_, err := askOnce(cmd, answer, strings.Join(args, " "), askSession)
		return err
	}
	return askLoop(cmd, answer)
}

func askOnce(cmd *cobra.Command, answer driving.AnswerService, query, sessionID string) (string, error) {
	resp, err := answer.Answer(cmd.Context(), domain.AnswerRequest{
		Query:     query,
		SessionID: sessionID,
		UserID:    askUser,
	})
	if err != nil {
		return sessionID, err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
	fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", resp.SessionID)
	return resp.SessionID, nil
}

// askLoop answers each input line in one session. Blank lines are skipped.
// A failed question is reported and the loop continues.
func askLoop(cmd *cobra.Command, answer driving.AnswerService) error {
	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sessionID := askSession
	prompt := func() {
		if interactive {
			fmt.Fprint(cmd.ErrOrStderr(), "> ")
		}
	}

	prompt()
	for scanner.Scan() {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			prompt()
			continue
		}

		next, err := askOnce(cmd, answer, query, sessionID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		sessionID = next
		prompt()
	}
	return scanner.Err()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
