package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/mirror"
)

var downloadCmd = &cobra.Command{
	Use:   "download [md5-hash]",
	Short: "Download a book by MD5 hash",
	Long: `Resolve a content hash on a download mirror and download the file.

The MD5 hash can be obtained from the search results. The file is named from
the server's Content-Disposition header, or from --name.

Examples:
  libgendl download 0123456789ABCDEF0123456789ABCDEF
  libgendl download -o ~/Books --verify 0123456789ABCDEF0123456789ABCDEF
  libgendl download --mirror libgen.lol --name "Dune.epub" 0123456789ABCDEF0123456789ABCDEF`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringP("output", "o", "", "output directory (default: downloads.path)")
	downloadCmd.Flags().String("mirror", "", "download mirror to use, by name or host")
	downloadCmd.Flags().String("name", "", "file name to use when the server doesn't send one")
	downloadCmd.Flags().Bool("verify", false, "verify the MD5 checksum after downloading")
	downloadCmd.Flags().Bool("force", false, "download again even if a completed download exists")
}

func runDownload(cmd *cobra.Command, args []string) error {
	hash, err := normalizeHash(args[0])
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	named, _ := cmd.Flags().GetString("mirror")
	name, _ := cmd.Flags().GetString("name")
	verify, _ := cmd.Flags().GetBool("verify")
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if existing, err := db.GetLatestDownloadByHash(hash); err == nil && existing.Status == db.StatusCompleted {
			fmt.Printf("Already downloaded: %s\n", existing.FilePath)
			fmt.Println("Use --force to download it again.")
			return nil
		}
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	if outputDir != "" {
		s.saveTo(outputDir)
	}

	target := libgen.HashTarget(hash)
	if name != "" {
		target.Title = name
	}

	return s.downloadTarget(cmd.Context(), target, named, verify || s.cfg.Downloads.Verify)
}

// downloadTarget resolves t on the reachable download mirrors and fetches it
func (s *session) downloadTarget(ctx context.Context, t libgen.Target, named string, verify bool) error {
	mirrors, err := s.reachable(ctx, mirror.GroupDownload, named)
	if err != nil {
		return err
	}

	link, m, err := s.resolveAny(ctx, t, mirrors)
	if err != nil {
		return err
	}

	fmt.Printf("Downloading: %s\n", targetTitle(t))
	fmt.Printf("Destination: %s\n", s.cfg.Downloads.Path)
	_, err = s.fetch(ctx, t, m, link, verify)
	return err
}
