package downloader

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
)

var looseFilename = regexp.MustCompile(`(?i)filename\s*=\s*("([^"]*)"|[^;]+)`)

// ParseFilename returns the filename attribute of a Content-Disposition
// header, quoted or not. It returns "" when there is none.
func ParseFilename(header string) string {
	if header == "" {
		return ""
	}

	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return cleanName(name)
		}
	}

	// mirrors send headers mime rejects, e.g. unquoted names with spaces
	m := looseFilename.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	name := m[2]
	if name == "" {
		name = strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	return cleanName(name)
}

// cleanName keeps only the last path element so a header can't point
// outside the download directory
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
