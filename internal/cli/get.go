package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/mirror"
	"github.com/billmal071/libgendl/internal/tui"
)

var getCmd = &cobra.Command{
	Use:   "get [title]",
	Short: "Search interactively and download a book",
	Long: `Probe the mirrors, search for a book and download it.

Both mirror groups are probed in the background while you choose what to
search for. You then pick a search mirror, a result and a download mirror.

Examples:
  libgendl get dune -a "Frank Herbert"
  libgendl get --fiction "dune messiah"
  libgendl get --type non-fiction "clean code" --verify`,
	Args: cobra.ArbitraryArgs,
	RunE: runGet,
}

func init() {
	addQueryFlags(getCmd)
	getCmd.Flags().String("mirror", "", "search mirror to use, by name or host")
	getCmd.Flags().String("download-mirror", "", "download mirror to use, by name or host")
	getCmd.Flags().Bool("verify", false, "verify the MD5 checksum after downloading")
}

// addQueryFlags registers the flags describing a BookQuery
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("author", "a", nil, "author name (repeatable)")
	cmd.Flags().String("type", "", "search type: fiction or non-fiction")
	cmd.Flags().Bool("fiction", false, "search the fiction index")
}

// queryFromFlags builds the query and, if the user gave one, the search type
func queryFromFlags(cmd *cobra.Command, args []string) (libgen.BookQuery, *libgen.SearchType, error) {
	authors, _ := cmd.Flags().GetStringArray("author")
	q := libgen.BookQuery{Title: strings.Join(args, " "), Authors: authors}

	if fiction, _ := cmd.Flags().GetBool("fiction"); fiction {
		t := libgen.Fiction
		return q, &t, nil
	}
	if cmd.Flags().Changed("type") {
		raw, _ := cmd.Flags().GetString("type")
		t, err := libgen.ParseSearchType(raw)
		if err != nil {
			return q, nil, err
		}
		return q, &t, nil
	}
	return q, nil, nil
}

func runGet(cmd *cobra.Command, args []string) error {
	q, typ, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if q.Text() == "" {
		return fmt.Errorf("nothing to search for: give a title or --author")
	}

	searchMirror, _ := cmd.Flags().GetString("mirror")
	downloadMirror, _ := cmd.Flags().GetString("download-mirror")
	verify, _ := cmd.Flags().GetBool("verify")

	s, err := newSession()
	if err != nil {
		return err
	}

	return s.get(cmd.Context(), q, typ, getChoices{
		searchMirror:   searchMirror,
		downloadMirror: downloadMirror,
		verify:         verify || s.cfg.Downloads.Verify,
	})
}

// getChoices are the answers the user gave up front
type getChoices struct {
	searchMirror   string
	downloadMirror string
	verify         bool
}

// get runs the whole flow: probe, search, pick, resolve, download
func (s *session) get(ctx context.Context, q libgen.BookQuery, typ *libgen.SearchType, choices getChoices) error {
	Printf("Probing mirrors...\n")
	searchBatch, downloadBatch := s.prober.Start(ctx, s.catalog)

	// the probes keep running while the user answers this
	if typ == nil {
		picked, ok, err := chooseSearchType()
		if err != nil || !ok {
			return err
		}
		typ = &picked
	}

	searchMirrors, err := s.await(searchBatch)
	if err != nil {
		return err
	}
	sm, ok, err := chooseMirror("Select a search mirror", searchMirrors, choices.searchMirror)
	if err != nil || !ok {
		return err
	}

	target, ok, err := s.searchAndPick(ctx, q, *typ, sm)
	if err != nil || !ok {
		return err
	}

	downloadMirrors, err := s.await(downloadBatch)
	if err != nil {
		return err
	}
	dm, ok, err := chooseMirror("Select a download mirror", downloadMirrors, choices.downloadMirror)
	if err != nil || !ok {
		return err
	}

	link, err := s.resolver.Resolve(ctx, target, dm)
	if err != nil {
		return fmt.Errorf("couldn't resolve %s on %s: %w", target.MD5, dm.HostURL, err)
	}
	Printf("Direct link: %s\n", link)

	fmt.Printf("Downloading: %s\n", targetTitle(target))
	_, err = s.fetch(ctx, target, dm, link.String(), choices.verify)
	return err
}

// searchAndPick runs the search and lets the user choose what to download
func (s *session) searchAndPick(ctx context.Context, q libgen.BookQuery, typ libgen.SearchType, m mirror.Mirror) (libgen.Target, bool, error) {
	fmt.Printf("Searching %s for: %s\n", m.HostURL, q)

	if typ == libgen.Fiction {
		hit, err := s.searcher.SearchFictionHit(ctx, q, m)
		if err != nil {
			recordSearch(q, typ, m, 0)
			return libgen.Target{}, false, fmt.Errorf("fiction search failed: %w", err)
		}
		recordSearch(q, typ, m, 1)

		fmt.Printf("Found: %s\n", describeHit(hit))
		return hit.Target(), true, nil
	}

	records, err := s.searcher.SearchNonFiction(ctx, q, m)
	if err != nil {
		return libgen.Target{}, false, fmt.Errorf("search failed: %w", err)
	}
	recordSearch(q, typ, m, len(records))

	if len(records) == 0 {
		fmt.Println("No books found matching your query.")
		return libgen.Target{}, false, nil
	}

	items := make([]tui.Item, len(records))
	for i, r := range records {
		items[i] = recordItem(r)
	}
	idx, err := tui.RunSelector("Select a book to download", items)
	if err != nil {
		return libgen.Target{}, false, fmt.Errorf("selection failed: %w", err)
	}
	if idx < 0 {
		return libgen.Target{}, false, nil
	}
	return records[idx].Target(), true, nil
}

func chooseSearchType() (libgen.SearchType, bool, error) {
	types := []libgen.SearchType{libgen.NonFiction, libgen.Fiction}
	items := []tui.Item{
		{Label: libgen.NonFiction.String(), Detail: []string{"books, papers and manuals with full metadata"}},
		{Label: libgen.Fiction.String(), Detail: []string{"novels and stories, first match only"}},
	}

	idx, err := tui.RunSelector("What are you looking for?", items)
	if err != nil {
		return libgen.NonFiction, false, fmt.Errorf("selection failed: %w", err)
	}
	if idx < 0 {
		return libgen.NonFiction, false, nil
	}
	return types[idx], true, nil
}

// chooseMirror picks the named mirror among the reachable ones, or asks
func chooseMirror(title string, mirrors []mirror.Mirror, named string) (mirror.Mirror, bool, error) {
	if named != "" {
		m, ok := mirror.Select(mirrors, named)
		if !ok {
			return mirror.Mirror{}, false, fmt.Errorf("mirror %q is not among the reachable mirrors", named)
		}
		return m, true, nil
	}

	items := make([]tui.Item, len(mirrors))
	for i, m := range mirrors {
		items[i] = mirrorItem(m)
	}

	idx, err := tui.RunSelector(title, items)
	if err != nil {
		return mirror.Mirror{}, false, fmt.Errorf("selection failed: %w", err)
	}
	if idx < 0 {
		return mirror.Mirror{}, false, nil
	}
	return mirrors[idx], true, nil
}

func recordItem(r libgen.Record) tui.Item {
	var parts []string
	if r.Author != "" {
		parts = append(parts, r.Author)
	}
	if r.Extension != "" {
		parts = append(parts, strings.ToUpper(r.Extension))
	}
	if size := r.SizeBytes(); size > 0 {
		parts = append(parts, tui.FormatSize(size))
	}
	if r.Year != "" {
		parts = append(parts, r.Year)
	}

	return tui.Item{
		Label:  r.Title,
		Detail: []string{strings.Join(parts, " | "), "MD5: " + tui.ShortHash(r.MD5)},
	}
}

func mirrorItem(m mirror.Mirror) tui.Item {
	detail := m.Name
	if m.Dialect != mirror.DialectUnknown {
		detail += " (" + m.Dialect.String() + ")"
	}
	return tui.Item{Label: m.HostURL, Detail: []string{detail}}
}

func describeHit(h *libgen.FictionHit) string {
	if h.Title == "" {
		return h.MD5
	}
	desc := h.Title
	if h.Author != "" {
		desc += " by " + h.Author
	}
	return fmt.Sprintf("%s [%s]", desc, h.MD5)
}
