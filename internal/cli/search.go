package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/mirror"
	"github.com/billmal071/libgendl/internal/tui"
)

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search for books",
	Long: `Search a reachable search mirror and print what it found.

Non-fiction searches print every English record with its MD5 hash. Fiction
searches print the first matching hash. Without --mirror the search mirrors
are probed and the first reachable one is used.

Examples:
  libgendl search dune -a herbert
  libgendl search --fiction "dune messiah"
  libgendl search --mirror libgen.is "clean code"`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	addQueryFlags(searchCmd)
	searchCmd.Flags().String("mirror", "", "search mirror to use, by name or host")
	searchCmd.Flags().IntP("limit", "n", 0, "maximum number of records to print (0 for all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, typ, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if q.Text() == "" {
		return fmt.Errorf("nothing to search for: give a title or --author")
	}
	searchType := libgen.NonFiction
	if typ != nil {
		searchType = *typ
	}

	named, _ := cmd.Flags().GetString("mirror")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := newSession()
	if err != nil {
		return err
	}

	mirrors, err := s.reachable(cmd.Context(), mirror.GroupSearch, named)
	if err != nil {
		return err
	}
	m := mirrors[0]
	Printf("Searching %s for: %s\n", m.HostURL, q)

	if searchType == libgen.Fiction {
		hit, err := s.searcher.SearchFictionHit(cmd.Context(), q, m)
		if err != nil {
			recordSearch(q, searchType, m, 0)
			return fmt.Errorf("fiction search failed: %w", err)
		}
		recordSearch(q, searchType, m, 1)
		fmt.Println(describeHit(hit))
		fmt.Printf("\nTo download, run:\n  libgendl download %s\n", hit.MD5)
		return nil
	}

	records, err := s.searcher.SearchNonFiction(cmd.Context(), q, m)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	recordSearch(q, searchType, m, len(records))

	if len(records) == 0 {
		fmt.Println("No books found matching your query.")
		return nil
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	printRecords(records)
	return nil
}

// printRecords prints records in a simple format
func printRecords(records []libgen.Record) {
	for i, r := range records {
		fmt.Printf("%d. %s\n", i+1, r.Title)
		if r.Author != "" {
			fmt.Printf("   Author: %s\n", r.Author)
		}
		fmt.Printf("   Format: %s", r.Extension)
		if size := r.SizeBytes(); size > 0 {
			fmt.Printf(" | Size: %s", tui.FormatSize(size))
		}
		if r.Year != "" {
			fmt.Printf(" | Year: %s", r.Year)
		}
		if r.Publisher != "" {
			fmt.Printf(" | Publisher: %s", r.Publisher)
		}
		fmt.Println()
		fmt.Printf("   MD5: %s\n", r.MD5)
		if r.CoverURL != "" {
			fmt.Printf("   Cover: %s\n", r.CoverURL)
		}
		fmt.Println()
	}
}
