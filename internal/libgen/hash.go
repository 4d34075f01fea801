package libgen

import "regexp"

var hashPattern = regexp.MustCompile(`[A-Z0-9]{32}`)

// ExtractHashes returns every distinct content hash in body, in order of
// first appearance
func ExtractHashes(body []byte) []string {
	matches := hashPattern.FindAll(body, -1)

	seen := make(map[string]bool, len(matches))
	hashes := make([]string, 0, len(matches))
	for _, m := range matches {
		h := string(m)
		if seen[h] {
			continue
		}
		seen[h] = true
		hashes = append(hashes, h)
	}
	return hashes
}
