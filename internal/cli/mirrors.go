package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/mirror"
	"github.com/billmal071/libgendl/internal/tui"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "List the configured mirrors",
	Long: `List the search and download mirrors in catalog order.

The list comes from mirrors.file, or the list built into libgendl when that
is empty.

Examples:
  libgendl mirrors
  libgendl mirrors probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		printGroup("Search mirrors", s.catalog.Search)
		printGroup("Download mirrors", s.catalog.Download)
		return nil
	},
}

var mirrorsProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which mirrors answer without being blocked",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		search, download := s.prober.Start(cmd.Context(), s.catalog)

		var failed int
		for _, batch := range []*mirror.Pending{search, download} {
			mirrors, err := s.await(batch)
			fmt.Println(tui.TitleStyle.Render(fmt.Sprintf("%s mirrors", batch.Group)))
			if err != nil {
				failed++
				printProbeError(err)
				continue
			}
			for _, m := range mirrors {
				fmt.Printf("  %s %s\n", tui.ReachableStyle.Render("✓"), m.HostURL)
			}
			fmt.Println()
		}

		if failed == 2 {
			return fmt.Errorf("no usable mirrors")
		}
		return nil
	},
}

func init() {
	mirrorsCmd.AddCommand(mirrorsProbeCmd)
}

func printGroup(title string, mirrors []mirror.Mirror) {
	fmt.Println(tui.TitleStyle.Render(fmt.Sprintf("%s (%d)", title, len(mirrors))))
	for _, m := range mirrors {
		fmt.Printf("  %-14s %s\n", m.Name, m.HostURL)
		if m.SearchURL != "" {
			fmt.Printf("  %-14s %s\n", "", tui.DimStyle.Render("search: "+m.SearchURL))
		}
		if m.SearchURLFiction != "" {
			fmt.Printf("  %-14s %s\n", "", tui.DimStyle.Render("fiction: "+m.SearchURLFiction))
		}
		if m.DownloadURL != "" {
			fmt.Printf("  %-14s %s\n", "", tui.DimStyle.Render("download: "+m.DownloadURL))
		}
		if m.Dialect != mirror.DialectUnknown {
			fmt.Printf("  %-14s %s\n", "", tui.DimStyle.Render("dialect: "+m.Dialect.String()))
		}
	}
	fmt.Println()
}

func printProbeError(err error) {
	var perr *mirror.ProbeError
	if errors.As(err, &perr) && len(perr.Blocked) > 0 {
		for _, host := range perr.Blocked {
			fmt.Printf("  %s %s\n", tui.BlockedStyle.Render("blocked"), host)
		}
		fmt.Println(tui.DimStyle.Render("  the whole group is unusable while any mirror is blocked"))
		fmt.Println()
		return
	}
	fmt.Printf("  %s %v\n\n", tui.UnreachableStyle.Render("✗"), err)
}
