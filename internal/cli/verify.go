package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/libgen"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [download-id]",
	Short: "Verify checksum of downloaded files",
	Long: `Verify the MD5 checksum of downloaded files against their content hash.

Examples:
  libgendl verify 1          # Verify specific download
  libgendl verify --all      # Verify all completed downloads
  libgendl verify --failed   # Re-verify downloads that failed verification
  libgendl verify --all --fix`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Bool("all", false, "verify all completed downloads")
	verifyCmd.Flags().Bool("failed", false, "re-verify downloads that failed verification")
	verifyCmd.Flags().Bool("fix", false, "remove corrupted files and download them again")
}

func runVerify(cmd *cobra.Command, args []string) error {
	verifyAll, _ := cmd.Flags().GetBool("all")
	verifyFailed, _ := cmd.Flags().GetBool("failed")
	autoFix, _ := cmd.Flags().GetBool("fix")

	downloads, err := downloadsToVerify(args, verifyAll, verifyFailed)
	if err != nil {
		return err
	}

	if len(downloads) == 0 {
		fmt.Println("No downloads to verify")
		return nil
	}

	fmt.Printf("Verifying %d download(s)...\n\n", len(downloads))

	var corrupted []*db.Download
	verified, missing := 0, 0

	for _, d := range downloads {
		if _, err := os.Stat(d.FilePath); errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("❌ [%d] %s\n", d.ID, d.Title)
			fmt.Printf("    File not found: %s\n\n", d.FilePath)
			missing++
			continue
		}

		fmt.Printf("🔍 [%d] %s\n", d.ID, d.Title)
		fmt.Printf("    Verifying: %s\n", d.FilePath)

		if err := verifyAndMark(d.ID, d.FilePath, d.MD5Hash); err != nil {
			fmt.Printf("    ❌ Verification failed: %v\n\n", err)
			corrupted = append(corrupted, d)
			continue
		}
		fmt.Printf("    ✓ Checksum verified\n\n")
		verified++
	}

	if autoFix && len(corrupted) > 0 {
		if err := redownload(cmd, corrupted); err != nil {
			return err
		}
	}

	// Summary
	fmt.Println("─────────────────────────────────")
	fmt.Printf("Verified: %d\n", verified)
	if len(corrupted) > 0 {
		fmt.Printf("Failed: %d\n", len(corrupted))
	}
	if missing > 0 {
		fmt.Printf("Missing: %d\n", missing)
	}

	if len(corrupted) > 0 && !autoFix {
		fmt.Println("\nTip: Use --fix flag to download corrupted files again")
	}

	return nil
}

func downloadsToVerify(args []string, all, failed bool) ([]*db.Download, error) {
	if all || failed {
		completed, err := db.ListDownloads(db.StatusCompleted, true)
		if err != nil {
			return nil, fmt.Errorf("failed to list downloads: %w", err)
		}
		if all {
			return completed, nil
		}
		var unverified []*db.Download
		for _, d := range completed {
			if !d.Verified {
				unverified = append(unverified, d)
			}
		}
		return unverified, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("provide a download ID or use --all flag")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid download ID: %s", args[0])
	}

	d, err := db.GetDownload(id)
	if err != nil {
		return nil, fmt.Errorf("download not found: %w", err)
	}
	if d.Status != db.StatusCompleted {
		return nil, fmt.Errorf("download is not completed (status: %s)", d.Status)
	}
	return []*db.Download{d}, nil
}

// redownload removes each corrupted file and fetches it again into the
// same directory
func redownload(cmd *cobra.Command, corrupted []*db.Download) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	for _, d := range corrupted {
		fmt.Printf("🔄 [%d] Downloading again: %s\n", d.ID, d.Title)

		if err := os.Remove(d.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("    ⚠️  Couldn't remove corrupted file: %v\n", err)
			continue
		}

		s.saveTo(filepath.Dir(d.FilePath))
		t := libgen.Target{
			MD5:       d.MD5Hash,
			Title:     d.Title,
			Author:    d.Authors,
			Extension: d.Format,
		}
		if err := s.downloadTarget(cmd.Context(), t, "", true); err != nil {
			fmt.Printf("    ⚠️  Download failed: %v\n", err)
			continue
		}
		if err := db.DeleteDownload(d.ID); err != nil {
			fmt.Printf("    ⚠️  Couldn't remove old record: %v\n", err)
		}
	}
	return nil
}
