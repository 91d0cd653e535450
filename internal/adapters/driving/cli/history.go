package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneBefore time.Duration

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Read and prune the conversation log",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently active first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print every exchange of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete exchanges older than a given age",
	Long: `Delete exchanges older than a given age.

Examples:
  ragchat history prune --before 720h`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	historyPruneCmd.Flags().DurationVar(&pruneBefore, "before", 0, "delete exchanges older than this age")
	_ = historyPruneCmd.MarkFlagRequired("before")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	history, err := ensureHistory(settings)
	if err != nil {
		return err
	}

	sessions, err := history.Sessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	cmd.Printf("%-36s  %9s  %-20s  %-20s\n", "SESSION", "EXCHANGES", "FIRST", "LAST")
	for _, s := range sessions {
		cmd.Printf("%-36s  %9d  %-20s  %-20s\n", s.SessionID, s.ExchangeCount,
			s.FirstAt.Local().Format(time.DateTime), s.LastAt.Local().Format(time.DateTime))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	history, err := ensureHistory(settings)
	if err != nil {
		return err
	}

	exchanges, err := history.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if len(exchanges) == 0 {
		cmd.Printf("No exchanges in session %s.\n", args[0])
		return nil
	}

	for i, ex := range exchanges {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("[%s] %s\n", ex.Timestamp.Local().Format(time.DateTime), ex.UserID)
		cmd.Printf("You: %s\n", ex.Query)
		cmd.Printf("Bot: %s\n", ex.Answer)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	history, err := ensureHistory(settings)
	if err != nil {
		return err
	}

	n, err := history.Prune(cmd.Context(), pruneBefore)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	cmd.Printf("Deleted %d exchanges older than %s.\n", n, pruneBefore)
	return nil
}
