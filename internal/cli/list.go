package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/tui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads",
	Long: `List downloads and their status.

By default, completed downloads are hidden. Use -a/--all to show them.

Examples:
  libgendl list                  List unfinished downloads
  libgendl list -a               List all downloads
  libgendl list -s failed        List failed downloads`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "filter by status (pending, downloading, completed, failed)")
	listCmd.Flags().BoolP("all", "a", false, "show all downloads including completed")
}

func runList(cmd *cobra.Command, args []string) error {
	statusFilter, _ := cmd.Flags().GetString("status")
	showAll, _ := cmd.Flags().GetBool("all")

	var status db.DownloadStatus
	if statusFilter != "" {
		status = db.DownloadStatus(strings.ToLower(statusFilter))
	}

	downloads, err := db.ListDownloads(status, showAll)
	if err != nil {
		return fmt.Errorf("failed to list downloads: %w", err)
	}

	if len(downloads) == 0 {
		if statusFilter != "" {
			fmt.Printf("No downloads with status '%s'.\n", statusFilter)
		} else {
			fmt.Println("No unfinished downloads.")
		}
		return nil
	}

	fmt.Printf("Downloads (%d):\n\n", len(downloads))

	for _, d := range downloads {
		printDownload(d)
	}

	return nil
}

func printDownload(d *db.Download) {
	var statusIcon string
	switch d.Status {
	case db.StatusPending:
		statusIcon = "⏳"
	case db.StatusDownloading:
		statusIcon = "⬇️ "
	case db.StatusCompleted:
		statusIcon = "✅"
	case db.StatusFailed:
		statusIcon = "❌"
	default:
		statusIcon = "  "
	}

	fmt.Printf("%s [%d] %s\n", statusIcon, d.ID, tui.Truncate(d.Title, 50))
	if d.Authors != "" {
		fmt.Printf("   Author: %s\n", d.Authors)
	}

	fmt.Printf("   Status: %s", d.Status)
	if d.ErrorMessage != "" {
		fmt.Printf(" - %s", d.ErrorMessage)
	}
	if d.Verified {
		fmt.Print(" (verified)")
	}
	fmt.Println()

	if d.FilePath != "" {
		fmt.Printf("   File: %s (%s)\n", d.FilePath, tui.FormatSize(d.FileSize))
	}
	fmt.Printf("   Mirror: %s\n", d.Mirror)
	fmt.Printf("   MD5: %s\n", d.MD5Hash)

	fmt.Println()
}
