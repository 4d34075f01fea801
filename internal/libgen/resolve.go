package libgen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/libgendl/internal/logging"
	"github.com/billmal071/libgendl/internal/mirror"
)

// md5Placeholder marks where the content hash goes in a download pattern
const md5Placeholder = "{md5}"

const maxDownloadPage = 8 << 20

// LinkExtractor pulls the direct file URL out of a mirror's download page
type LinkExtractor interface {
	ExtractLink(page []byte, base *url.URL) (*url.URL, error)
}

var directLinkPattern = regexp.MustCompile(`get\.php\?md5=\w{32}&key=\w{16}`)

// DirectLinkExtractor handles pages that embed a same-origin
// get.php?md5=...&key=... path
type DirectLinkExtractor struct{}

func (DirectLinkExtractor) ExtractLink(page []byte, base *url.URL) (*url.URL, error) {
	match := directLinkPattern.Find(page)
	if match == nil {
		return nil, ErrLinkNotFound
	}
	link, err := base.Parse(string(match))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLinkNotFound, err)
	}
	return link, nil
}

// gatewayPatterns are tried in order; the first match wins
var gatewayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`http://62\.182\.86\.140/main/\d{7}/\w{32}/.+?(gz|pdf|rar|djvu|epub|chm)`),
	regexp.MustCompile(`https://cloudflare-ipfs\.com/ipfs/\w{62}\?filename=.+?(gz|pdf|rar|djvu|epub|chm)`),
	regexp.MustCompile(`https://ipfs\.io/ipfs/\w{62}\?filename=.+?(gz|pdf|rar|djvu|epub|chm)`),
}

// GatewayExtractor handles pages that link out to a numbered origin or an
// IPFS gateway
type GatewayExtractor struct{}

func (GatewayExtractor) ExtractLink(page []byte, base *url.URL) (*url.URL, error) {
	for _, p := range gatewayPatterns {
		match := p.Find(page)
		if match == nil {
			continue
		}
		link, err := base.Parse(string(match))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLinkNotFound, err)
		}
		return link, nil
	}
	return nil, ErrLinkNotFound
}

// ResolverOptions configures a Resolver
type ResolverOptions struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *logrus.Entry
}

// Resolver turns a content hash into a direct file URL on a download mirror
type Resolver struct {
	client     *http.Client
	userAgent  string
	extractors map[mirror.Dialect]LinkExtractor
	log        *logrus.Entry
}

// NewResolver creates a resolver that knows the direct-link and gateway dialects
func NewResolver(opts ResolverOptions) *Resolver {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logging.For("resolve")
	}

	return &Resolver{
		client:    client,
		userAgent: opts.UserAgent,
		extractors: map[mirror.Dialect]LinkExtractor{
			mirror.DialectDirectLink: DirectLinkExtractor{},
			mirror.DialectGateway:    GatewayExtractor{},
		},
		log: log,
	}
}

// Register sets the extractor used for dialect d
func (r *Resolver) Register(d mirror.Dialect, e LinkExtractor) {
	r.extractors[d] = e
}

// DownloadPageURL substitutes md5 into a download pattern
func DownloadPageURL(pattern, md5 string) (string, error) {
	if pattern == "" {
		return "", ErrMisconfigured
	}
	return strings.ReplaceAll(pattern, md5Placeholder, md5), nil
}

// Resolve fetches the mirror's download page for t and extracts the direct
// file URL according to the mirror's dialect
func (r *Resolver) Resolve(ctx context.Context, t Target, m mirror.Mirror) (*url.URL, error) {
	pageURL, err := DownloadPageURL(m.DownloadPattern, t.MD5)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no download pattern", ErrMisconfigured, m.HostURL)
	}

	base, err := url.Parse(m.HostURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid host url %q", ErrMisconfigured, m.HostURL)
	}

	log := r.log.WithFields(logrus.Fields{"mirror": m.HostURL, "md5": t.MD5})
	log.WithField("url", pageURL).Debug("Fetching download page")

	page, err := r.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	extractor, ok := r.extractors[m.Dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHost, m.HostURL)
	}

	link, err := extractor.ExtractLink(page, base)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", m.Dialect, m.HostURL, err)
	}

	log.WithField("link", link.String()).Debug("Resolved direct link")
	return link, nil
}

func (r *Resolver) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.WithField("status", resp.Status).Debug("Download page answered with an error status")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadPage))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return body, nil
}
