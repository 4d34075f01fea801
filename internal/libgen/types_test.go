package libgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookQueryText(t *testing.T) {
	tests := []struct {
		name  string
		query BookQuery
		want  string
	}{
		{name: "title and authors", query: BookQuery{Title: "Good Omens", Authors: []string{"Pratchett", "Gaiman"}}, want: "Good Omens Pratchett, Gaiman"},
		{name: "title only", query: BookQuery{Title: " Dune "}, want: "Dune"},
		{name: "authors only", query: BookQuery{Authors: []string{"Herbert"}}, want: "Herbert"},
		{name: "empty", query: BookQuery{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Text())
		})
	}
}

func TestFallbackName(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{name: "full record", target: Target{MD5: hashA, Title: "Dune", Author: "Frank Herbert", Extension: "epub"}, want: "Dune - Frank Herbert.epub"},
		{name: "no author", target: Target{MD5: hashA, Title: "Dune", Extension: "PDF"}, want: "Dune.pdf"},
		{name: "bare hash", target: HashTarget(hashA), want: hashA},
		{name: "unsafe characters", target: Target{Title: "What/If?", Author: "R: Munroe", Extension: "epub"}, want: "What_If_ - R_ Munroe.epub"},
		{name: "nothing at all", target: Target{}, want: "book"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.target.FallbackName())
		})
	}
}

func TestFallbackNameIsBounded(t *testing.T) {
	name := Target{Title: strings.Repeat("x", 500), Extension: "epub"}.FallbackName()
	assert.Equal(t, 200+len(".epub"), len(name))
}

func TestRecordSize(t *testing.T) {
	assert.Equal(t, int64(1048576), Record{Filesize: "1048576"}.SizeBytes())
	assert.Equal(t, int64(0), Record{Filesize: "n/a"}.SizeBytes())
	assert.Equal(t, "Dune.epub, Frank Herbert = 1.00 Mb", Record{Title: "Dune", Extension: "epub", Author: "Frank Herbert", Filesize: "1048576"}.String())
}

func TestParseSearchType(t *testing.T) {
	for _, s := range []string{"fiction", "Fiction", " f "} {
		got, err := ParseSearchType(s)
		assert.NoError(t, err)
		assert.Equal(t, Fiction, got, s)
	}
	for _, s := range []string{"Non Fiction", "non-fiction", "nonfiction", ""} {
		got, err := ParseSearchType(s)
		assert.NoError(t, err)
		assert.Equal(t, NonFiction, got, s)
	}

	_, err := ParseSearchType("poetry")
	assert.Error(t, err)

	roundTrip, err := ParseSearchType(Fiction.String())
	assert.NoError(t, err)
	assert.Equal(t, Fiction, roundTrip)
}
