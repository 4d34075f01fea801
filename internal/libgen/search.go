package libgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/billmal071/libgendl/internal/logging"
	"github.com/billmal071/libgendl/internal/mirror"
)

const (
	// searchPageSize is the number of rows requested from non-fiction search
	searchPageSize = "25"
	// syncFields are the metadata columns requested per hash
	syncFields = "id,title,author,filesize,extension,md5,year,language,pages,publisher,edition,coverurl"
	// coverPlaceholder is substituted with a record's cover path
	coverPlaceholder = "{cover-url}"
	// keptLanguage is the only record language returned by non-fiction search
	keptLanguage = "English"

	maxSyncBody = 4 << 20
)

// SearcherOptions configures a Searcher
type SearcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond limits sync lookups. Zero or less means unlimited.
	RequestsPerSecond float64
	Client            *http.Client
	Logger            *logrus.Entry
}

// Searcher queries search mirrors and turns their pages into hashes and records
type Searcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	log       *logrus.Entry
}

// NewSearcher creates a new searcher
func NewSearcher(opts SearcherOptions) *Searcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	log := opts.Logger
	if log == nil {
		log = logging.For("search")
	}

	return &Searcher{
		client:    client,
		timeout:   timeout,
		userAgent: opts.UserAgent,
		limiter:   limiter,
		log:       log,
	}
}

// SearchNonFiction searches m's non-fiction index for q and returns the
// English records of every hash found, in the order the hashes appeared.
// Hashes whose metadata lookup fails are skipped.
func (s *Searcher) SearchNonFiction(ctx context.Context, q BookQuery, m mirror.Mirror) ([]Record, error) {
	if m.SearchURL == "" {
		return nil, fmt.Errorf("%w: %s has no search url", ErrMisconfigured, m.HostURL)
	}
	if m.SyncURL == "" {
		return nil, fmt.Errorf("%w: %s has no synchronization url", ErrMisconfigured, m.HostURL)
	}

	searchURL, err := withQuery(m.SearchURL, url.Values{
		"req":      {q.Text()},
		"lg_topic": {"libgen"},
		"res":      {searchPageSize},
		"open":     {"0"},
		"view":     {"simple"},
		"phrase":   {"1"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid search url: %v", ErrMisconfigured, err)
	}

	body, err := s.fetchPage(searchURL)
	if err != nil {
		return nil, err
	}

	hashes := ExtractHashes(body)
	s.log.WithFields(logrus.Fields{"mirror": m.HostURL, "hashes": len(hashes)}).Debug("Parsed search page")

	return s.records(ctx, hashes, m), nil
}

// SearchFiction searches m's fiction index for q and returns the first hash
func (s *Searcher) SearchFiction(ctx context.Context, q BookQuery, m mirror.Mirror) (string, error) {
	hit, err := s.SearchFictionHit(ctx, q, m)
	if err != nil {
		return "", err
	}
	return hit.MD5, nil
}

// SearchFictionHit is SearchFiction plus the title, author and format shown
// next to the hash on the result page, when they can be found
func (s *Searcher) SearchFictionHit(_ context.Context, q BookQuery, m mirror.Mirror) (*FictionHit, error) {
	if m.SearchURLFiction == "" {
		return nil, fmt.Errorf("%w: %s has no fiction search url", ErrMisconfigured, m.HostURL)
	}

	searchURL, err := withQuery(m.SearchURLFiction, url.Values{
		"q":        {q.Text()},
		"criteria": {""},
		"language": {keptLanguage},
		"format":   {""},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid fiction search url: %v", ErrMisconfigured, err)
	}

	body, err := s.fetchPage(searchURL)
	if err != nil {
		return nil, err
	}

	hashes := ExtractHashes(body)
	if len(hashes) == 0 {
		return nil, ErrNotFound
	}

	hit := describeFictionHit(body, hashes[0])
	s.log.WithFields(logrus.Fields{"mirror": m.HostURL, "md5": hit.MD5, "title": hit.Title}).Debug("Found fiction hash")
	return hit, nil
}

// fetchPage GETs a search page and returns its raw body. Non-2xx answers
// are returned as-is; mirrors sometimes list results on error pages.
func (s *Searcher) fetchPage(pageURL string) ([]byte, error) {
	collector := colly.NewCollector(colly.UserAgent(s.userAgent))
	collector.SetRequestTimeout(s.timeout)
	collector.ParseHTTPErrorResponse = true
	collector.IgnoreRobotsTxt = true

	var body []byte
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	s.log.WithField("url", pageURL).Debug("Getting content")

	if err := collector.Visit(pageURL); err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	collector.Wait()

	return body, nil
}

// records resolves every hash through the mirror's sync endpoint
func (s *Searcher) records(ctx context.Context, hashes []string, m mirror.Mirror) []Record {
	var all []Record
	for _, hash := range hashes {
		recs, err := s.syncRecords(ctx, hash, m)
		if err != nil {
			s.log.WithError(err).WithField("md5", hash).Warn("Skipping hash")
			continue
		}
		all = append(all, recs...)
	}
	return all
}

func (s *Searcher) syncRecords(ctx context.Context, hash string, m mirror.Mirror) ([]Record, error) {
	syncURL, err := withQuery(m.SyncURL, url.Values{
		"ids":    {hash},
		"fields": {syncFields},
	})
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, syncURL, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync error: %s", resp.Status)
	}

	var recs []Record
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSyncBody)).Decode(&recs); err != nil {
		return nil, fmt.Errorf("couldn't parse json: %w", err)
	}

	kept := recs[:0]
	for _, r := range recs {
		if r.Language != keptLanguage {
			continue
		}
		if m.CoverPattern != "" {
			r.CoverURL = strings.ReplaceAll(m.CoverPattern, coverPlaceholder, r.CoverURL)
		}
		kept = append(kept, r)
	}
	return kept, nil
}

// withQuery appends params to the query of base
func withQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute url", base)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var formatPattern = regexp.MustCompile(`(?i)^\s*(epub|pdf|mobi|azw3|fb2|djvu|rtf|txt|doc|docx|rar|zip)\b`)

// describeFictionHit pulls title, author and format out of the result row
// that links to hash. Missing pieces stay empty.
func describeFictionHit(body []byte, hash string) *FictionHit {
	hit := &FictionHit{MD5: hash}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return hit
	}

	var row *goquery.Selection
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(strings.ToUpper(href), hash) {
			return true
		}
		if text := strings.TrimSpace(a.Text()); text != "" && hit.Title == "" {
			hit.Title = text
		}
		if row == nil {
			row = a.Closest("tr")
		}
		return hit.Title == ""
	})

	if row == nil || row.Length() == 0 {
		return hit
	}

	if authors := row.Find(".catalog_authors li"); authors.Length() > 0 {
		var names []string
		authors.Each(func(_ int, li *goquery.Selection) {
			if name := strings.TrimSpace(li.Text()); name != "" {
				names = append(names, name)
			}
		})
		hit.Author = strings.Join(names, ", ")
	}

	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		if hit.Extension != "" {
			return
		}
		if m := formatPattern.FindStringSubmatch(td.Text()); m != nil {
			hit.Extension = strings.ToLower(m[1])
		}
	})

	return hit
}
