package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

// Group identifies which half of the catalog a mirror belongs to
type Group int

const (
	GroupSearch Group = iota
	GroupDownload
)

func (g Group) String() string {
	switch g {
	case GroupSearch:
		return "search"
	case GroupDownload:
		return "download"
	default:
		return "unknown"
	}
}

// Dialect names the strategy needed to pull a direct file URL out of a
// mirror's download page
type Dialect int

const (
	DialectUnknown Dialect = iota
	// DialectDirectLink pages embed a same-origin get.php?md5=...&key=... path
	DialectDirectLink
	// DialectGateway pages link out to a numbered origin or an IPFS gateway
	DialectGateway
)

func (d Dialect) String() string {
	switch d {
	case DialectDirectLink:
		return "direct-link"
	case DialectGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

// ParseDialect parses the value of a mirror entry's Dialect field
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct-link", "directlink", "direct":
		return DialectDirectLink, nil
	case "gateway", "ipfs":
		return DialectGateway, nil
	default:
		return DialectUnknown, fmt.Errorf("unknown dialect %q", s)
	}
}

// knownDialects maps the hosts we know how to talk to
var knownDialects = map[string]Dialect{
	"libgen.rocks": DialectDirectLink,
	"libgen.lc":    DialectDirectLink,
	"libgen.lol":   DialectGateway,
	"libgen.me":    DialectGateway,
}

// DialectForHost looks up the dialect of a well-known host URL
func DialectForHost(hostURL string) Dialect {
	return knownDialects[hostName(hostURL)]
}

// hostName returns the lowercased host of a URL without "www."
func hostName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Mirror describes one mirror host
type Mirror struct {
	Name               string
	HostURL            string
	SearchURL          string
	SearchURLFiction   string
	DownloadURL        string
	DownloadURLFiction string
	// DownloadPattern is the download page URL with a live {md5} placeholder
	DownloadPattern string
	SyncURL         string
	// CoverPattern contains a {cover-url} placeholder
	CoverPattern string
	Dialect      Dialect
}

func (m Mirror) String() string {
	return m.HostURL
}

// IsSearch reports whether m belongs to the search group
func (m Mirror) IsSearch() bool {
	return m.SearchURL != ""
}

// IsDownload reports whether m belongs to the download group
func (m Mirror) IsDownload() bool {
	return m.SearchURL == "" && m.DownloadURL != ""
}

// Matches reports whether key names m: its name, its host URL or the bare
// host name ("libgen.lc"). Case, a trailing slash and "www." are ignored.
func (m Mirror) Matches(key string) bool {
	key = strings.TrimSuffix(strings.TrimSpace(key), "/")
	if key == "" {
		return false
	}
	if strings.EqualFold(m.Name, key) || strings.EqualFold(strings.TrimSuffix(m.HostURL, "/"), key) {
		return true
	}
	host := hostName(m.HostURL)
	return host != "" && host == strings.TrimPrefix(strings.ToLower(key), "www.")
}
