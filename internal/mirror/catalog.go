package mirror

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed mirrors.json
var defaultMirrors []byte

const md5Placeholder = "{md5}"

// Catalog is the immutable, classified mirror list. It is built once and
// then only read, so it is safe to share between goroutines.
type Catalog struct {
	Search   []Mirror
	Download []Mirror
}

// NewCatalog classifies mirrors into the search and download groups,
// keeping their relative order. Mirrors without a host, or with neither a
// search nor a download URL, are dropped.
func NewCatalog(mirrors []Mirror) *Catalog {
	c := &Catalog{}
	for _, m := range mirrors {
		if strings.TrimSpace(m.HostURL) == "" {
			continue
		}
		switch {
		case m.IsSearch():
			c.Search = append(c.Search, m)
		case m.IsDownload():
			c.Download = append(c.Download, m)
		}
	}
	return c
}

// Group returns the mirrors of g
func (c *Catalog) Group(g Group) []Mirror {
	if g == GroupSearch {
		return c.Search
	}
	return c.Download
}

// Find looks a mirror up by host URL or name in either group
func (c *Catalog) Find(key string) (Mirror, bool) {
	if m, ok := Select(c.Search, key); ok {
		return m, true
	}
	return Select(c.Download, key)
}

// Select returns the first mirror of list matching key
func Select(list []Mirror, key string) (Mirror, bool) {
	for _, m := range list {
		if m.Matches(key) {
			return m, true
		}
	}
	return Mirror{}, false
}

// entry is one value of the mirror document
type entry struct {
	Host                         string `json:"Host"`
	SearchURL                    string `json:"SearchUrl"`
	FictionSearchURL             string `json:"FictionSearchUrl"`
	NonFictionDownloadURL        string `json:"NonFictionDownloadUrl"`
	FictionDownloadURL           string `json:"FictionDownloadUrl"`
	NonFictionSynchronizationURL string `json:"NonFictionSynchronizationUrl"`
	NonFictionCoverURL           string `json:"NonFictionCoverUrl"`
	Dialect                      string `json:"Dialect"`
}

func (e entry) toMirror(name string) (Mirror, error) {
	m := Mirror{
		Name:               name,
		HostURL:            strings.TrimSpace(e.Host),
		SearchURL:          e.SearchURL,
		SearchURLFiction:   e.FictionSearchURL,
		DownloadURL:        strings.ReplaceAll(e.NonFictionDownloadURL, md5Placeholder, ""),
		DownloadURLFiction: strings.ReplaceAll(e.FictionDownloadURL, md5Placeholder, ""),
		DownloadPattern:    e.NonFictionDownloadURL,
		SyncURL:            e.NonFictionSynchronizationURL,
		CoverPattern:       e.NonFictionCoverURL,
	}

	if e.Dialect != "" {
		d, err := ParseDialect(e.Dialect)
		if err != nil {
			return Mirror{}, err
		}
		m.Dialect = d
	} else {
		m.Dialect = DialectForHost(m.HostURL)
	}

	return m, nil
}

// Parse builds a catalog from a JSON document keyed by mirror name.
// Entries keep their document order.
func Parse(raw []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected an object keyed by mirror name", ErrInvalidConfig)
	}

	var mirrors []Mirror
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		name, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: mirror %q: %v", ErrInvalidConfig, name, err)
		}

		// Non-object values carry no fields and are skipped like empty entries
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}

		var e entry
		if err := json.Unmarshal(trimmed, &e); err != nil {
			return nil, fmt.Errorf("%w: mirror %q: %v", ErrInvalidConfig, name, err)
		}

		m, err := e.toMirror(name)
		if err != nil {
			return nil, fmt.Errorf("%w: mirror %q: %v", ErrInvalidConfig, name, err)
		}
		mirrors = append(mirrors, m)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return NewCatalog(mirrors), nil
}

// Load reads a catalog from path, or the embedded list when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultMirrors)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror list: %w", err)
	}
	return Parse(raw)
}
