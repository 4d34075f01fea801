package libgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SearchType selects the content domain to search
type SearchType int

const (
	NonFiction SearchType = iota
	Fiction
)

func (s SearchType) String() string {
	if s == Fiction {
		return "Fiction"
	}
	return "Non Fiction"
}

// ParseSearchType accepts "fiction" and the usual spellings of non-fiction
func ParseSearchType(s string) (SearchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fiction", "f":
		return Fiction, nil
	case "non fiction", "non-fiction", "nonfiction", "nf", "":
		return NonFiction, nil
	default:
		return NonFiction, fmt.Errorf("unknown search type %q", s)
	}
}

// BookQuery is what we search mirrors for
type BookQuery struct {
	Title   string
	Authors []string
}

// Text is the free-text query sent to mirrors: the title followed by the
// comma-joined authors
func (q BookQuery) Text() string {
	return strings.TrimSpace(strings.TrimSpace(q.Title) + " " + strings.Join(q.Authors, ", "))
}

func (q BookQuery) String() string {
	return q.Text()
}

// Record is one row of non-fiction metadata returned by a sync endpoint
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Filesize  string `json:"filesize"`
	Year      string `json:"year"`
	Language  string `json:"language"`
	Pages     string `json:"pages"`
	Publisher string `json:"publisher"`
	Edition   string `json:"edition"`
	Extension string `json:"extension"`
	MD5       string `json:"md5"`
	CoverURL  string `json:"coverurl"`
}

// SizeBytes parses Filesize, returning 0 when it isn't numeric
func (r Record) SizeBytes() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Filesize), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (r Record) String() string {
	return fmt.Sprintf("%s.%s, %s = %.2f Mb", r.Title, r.Extension, r.Author, float64(r.SizeBytes())/1048576.0)
}

// Target returns the download target for r
func (r Record) Target() Target {
	return Target{MD5: r.MD5, Title: r.Title, Author: r.Author, Extension: r.Extension}
}

// FictionHit is the first hash of a fiction search, with whatever the result
// row told us about it
type FictionHit struct {
	MD5       string
	Title     string
	Author    string
	Extension string
}

// Target returns the download target for h
func (h FictionHit) Target() Target {
	return Target{MD5: h.MD5, Title: h.Title, Author: h.Author, Extension: h.Extension}
}

// Target is what gets resolved and downloaded. Only MD5 is required; the
// rest feeds the fallback file name.
type Target struct {
	MD5       string
	Title     string
	Author    string
	Extension string
}

// HashTarget wraps a bare content hash
func HashTarget(md5 string) Target {
	return Target{MD5: strings.TrimSpace(md5)}
}

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// FallbackName is the file name used when the server doesn't suggest one:
// "{title} - {author}.{extension}", degrading to the hash
func (t Target) FallbackName() string {
	var name string
	switch {
	case t.Title != "" && t.Author != "":
		name = t.Title + " - " + t.Author
	case t.Title != "":
		name = t.Title
	default:
		name = t.MD5
	}

	name = strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, "_"))
	if len(name) > 200 {
		name = name[:200]
	}
	if name == "" {
		name = "book"
	}

	if ext := strings.Trim(strings.ToLower(t.Extension), ". "); ext != "" {
		name += "." + ext
	}
	return name
}
