package libgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	hashA = "0123456789ABCDEF0123456789ABCDEF"
	hashB = "FEDCBA9876543210FEDCBA9876543210"
	hashC = "AAAABBBBCCCCDDDDEEEEFFFF00001111"
)

func TestExtractHashesKeepsFirstSeenOrder(t *testing.T) {
	body := strings.Join([]string{
		`<a href="book/index.php?md5=` + hashA + `">one</a>`,
		`<a href="book/index.php?md5=` + hashB + `">two</a>`,
		`<a href="book/index.php?md5=` + hashA + `">one again</a>`,
		`<a href="book/index.php?md5=` + hashC + `">three</a>`,
	}, "\n")

	assert.Equal(t, []string{hashA, hashB, hashC}, ExtractHashes([]byte(body)))
}

func TestExtractHashesIgnoresLowercaseAndShortTokens(t *testing.T) {
	body := "md5=" + strings.ToLower(hashA) + " id=0123456789ABCDEF"
	assert.Empty(t, ExtractHashes([]byte(body)))
	assert.Empty(t, ExtractHashes(nil))
}
