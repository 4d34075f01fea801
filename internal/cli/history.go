package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View and manage search history",
	Long: `View and manage your search history.

Examples:
  libgendl history              List recent searches
  libgendl history rerun        Pick a past search and run it again
  libgendl history clear        Clear all search history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSearchHistory(20)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all search history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.ClearSearchHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		Successf("Search history cleared.")
		return nil
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return showSearchHistory(limit)
	},
}

var historyRerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Pick a past search and run it again",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := db.GetUniqueSearchHistory(20)
		if err != nil {
			return fmt.Errorf("failed to get search history: %w", err)
		}

		items := make([]tui.Item, len(history))
		for i, h := range history {
			items[i] = historyItem(h)
		}

		idx, err := tui.RunSelector("Select a search to run again", items)
		if err != nil {
			if err == tui.ErrNothingToSelect {
				fmt.Println("No search history.")
				return nil
			}
			return fmt.Errorf("selection failed: %w", err)
		}
		if idx < 0 {
			return nil
		}

		h := history[idx]
		typ, err := libgen.ParseSearchType(h.SearchType)
		if err != nil {
			return err
		}
		verify, _ := cmd.Flags().GetBool("verify")

		s, err := newSession()
		if err != nil {
			return err
		}
		q := libgen.BookQuery{Title: h.Title, Authors: h.Authors}
		return s.get(cmd.Context(), q, &typ, getChoices{verify: verify || s.cfg.Downloads.Verify})
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyRerunCmd.Flags().Bool("verify", false, "verify the MD5 checksum after downloading")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRerunCmd)
}

func historyItem(h *db.SearchHistory) tui.Item {
	return tui.Item{
		Label: h.Query(),
		Detail: []string{fmt.Sprintf("%s | %d results | %s | %s",
			h.SearchType, h.ResultCount, h.Mirror, h.CreatedAt.Format("2006-01-02 15:04"))},
	}
}

// showSearchHistory prints the latest run of each recent search
func showSearchHistory(limit int) error {
	history, err := db.GetUniqueSearchHistory(limit)
	if err != nil {
		return fmt.Errorf("failed to get search history: %w", err)
	}

	if len(history) == 0 {
		fmt.Println("No search history.")
		fmt.Println("\nSearches are saved automatically when you search for books.")
		return nil
	}

	fmt.Printf("Recent Searches (%d):\n\n", len(history))

	for i, h := range history {
		fmt.Printf("  %d. \"%s\" (%d results)\n", i+1, h.Query(), h.ResultCount)
		fmt.Printf("     %s on %s\n", strings.ToLower(h.SearchType), h.Mirror)
		fmt.Printf("     %s\n\n", h.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
