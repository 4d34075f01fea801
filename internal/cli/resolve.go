package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/mirror"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [md5-hash]",
	Short: "Print the direct file link for a hash",
	Long: `Resolve a content hash into a direct file link without downloading it.

Without --mirror the download mirrors are probed and tried in order until
one of them yields a link.

Examples:
  libgendl resolve 0123456789ABCDEF0123456789ABCDEF
  libgendl resolve --mirror libgen.lc 0123456789ABCDEF0123456789ABCDEF`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := normalizeHash(args[0])
		if err != nil {
			return err
		}
		named, _ := cmd.Flags().GetString("mirror")

		s, err := newSession()
		if err != nil {
			return err
		}

		mirrors, err := s.reachable(cmd.Context(), mirror.GroupDownload, named)
		if err != nil {
			return err
		}

		link, m, err := s.resolveAny(cmd.Context(), libgen.HashTarget(hash), mirrors)
		if err != nil {
			return err
		}

		Printf("Resolved on %s\n", m.HostURL)
		fmt.Println(link)
		return nil
	},
}

func init() {
	resolveCmd.Flags().String("mirror", "", "download mirror to use, by name or host")
}
