package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMirrors = `{
  "Zeta": {
    "Host": "https://search.example/",
    "SearchUrl": "https://search.example/search.php",
    "FictionSearchUrl": "https://search.example/fiction/",
    "NonFictionDownloadUrl": "https://dl.example/main/{md5}",
    "NonFictionSynchronizationUrl": "https://search.example/json.php",
    "NonFictionCoverUrl": "https://search.example/covers/{cover-url}"
  },
  "Alpha": {
    "Host": "http://libgen.lc/",
    "NonFictionDownloadUrl": "http://libgen.lc/ads.php?md5={md5}",
    "FictionDownloadUrl": "http://libgen.lc/ads.php?md5={md5}"
  },
  "NoUrls": {
    "Host": "https://nothing.example/"
  },
  "NoHost": {
    "SearchUrl": "https://orphan.example/search.php"
  },
  "Weird": "not an object",
  "Gateway": {
    "Host": "https://gw.example/",
    "NonFictionDownloadUrl": "https://gw.example/main/{md5}",
    "Dialect": "gateway"
  }
}`

func TestParseClassifiesMirrors(t *testing.T) {
	c, err := Parse([]byte(sampleMirrors))
	require.NoError(t, err)

	require.Len(t, c.Search, 1)
	require.Len(t, c.Download, 2)

	s := c.Search[0]
	assert.Equal(t, "Zeta", s.Name)
	assert.Equal(t, "https://search.example/", s.HostURL)
	assert.Equal(t, "https://search.example/json.php", s.SyncURL)
	assert.Equal(t, "https://search.example/covers/{cover-url}", s.CoverPattern)

	// document order is kept within each group
	assert.Equal(t, "http://libgen.lc/", c.Download[0].HostURL)
	assert.Equal(t, "https://gw.example/", c.Download[1].HostURL)
}

func TestParseStripsPlaceholderFromDisplayURLs(t *testing.T) {
	c, err := Parse([]byte(sampleMirrors))
	require.NoError(t, err)

	d := c.Download[0]
	assert.Equal(t, "http://libgen.lc/ads.php?md5=", d.DownloadURL)
	assert.Equal(t, "http://libgen.lc/ads.php?md5=", d.DownloadURLFiction)
	assert.Equal(t, "http://libgen.lc/ads.php?md5={md5}", d.DownloadPattern)
}

func TestParseDialects(t *testing.T) {
	c, err := Parse([]byte(sampleMirrors))
	require.NoError(t, err)

	assert.Equal(t, DialectDirectLink, c.Download[0].Dialect, "known host")
	assert.Equal(t, DialectGateway, c.Download[1].Dialect, "explicit field")
	assert.Equal(t, DialectUnknown, c.Search[0].Dialect)
}

func TestSearchURLWinsOverDownloadURL(t *testing.T) {
	mirrors := []Mirror{
		{HostURL: "https://both.example/", SearchURL: "https://both.example/s", DownloadURL: "https://both.example/d/"},
		{HostURL: "https://dl.example/", DownloadURL: "https://dl.example/d/"},
		{HostURL: "", SearchURL: "https://nohost.example/s"},
		{HostURL: "https://none.example/"},
	}

	c := NewCatalog(mirrors)

	require.Len(t, c.Search, 1)
	require.Len(t, c.Download, 1)
	assert.Equal(t, "https://both.example/", c.Search[0].HostURL)
	assert.Equal(t, "https://dl.example/", c.Download[0].HostURL)
	for _, m := range c.Download {
		assert.Empty(t, m.SearchURL)
	}
}

func TestParseRejectsUnstructuredInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "mirrors: yes"},
		{name: "array", raw: `[{"Host": "https://a.example/"}]`},
		{name: "truncated", raw: `{"A": {"Host": "https://a.example/"`},
		{name: "bad dialect", raw: `{"A": {"Host": "https://a.example/", "NonFictionDownloadUrl": "x", "Dialect": "smoke-signals"}}`},
		{name: "wrong field type", raw: `{"A": {"Host": 42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadEmbeddedList(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, c.Search)
	assert.NotEmpty(t, c.Download)
	for _, m := range c.Download {
		assert.NotEqual(t, DialectUnknown, m.Dialect, m.HostURL)
		assert.Contains(t, m.DownloadPattern, "{md5}")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirrors.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleMirrors), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Search, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCatalogFind(t *testing.T) {
	c, err := Parse([]byte(sampleMirrors))
	require.NoError(t, err)

	m, ok := c.Find("alpha")
	require.True(t, ok)
	assert.Equal(t, "http://libgen.lc/", m.HostURL)

	m, ok = c.Find("https://search.example")
	require.True(t, ok)
	assert.Equal(t, "Zeta", m.Name)

	for _, key := range []string{"libgen.lc", "LIBGEN.LC/", "www.libgen.lc"} {
		m, ok = c.Find(key)
		require.True(t, ok, key)
		assert.Equal(t, "Alpha", m.Name, key)
	}

	m, ok = c.Find("search.example")
	require.True(t, ok)
	assert.Equal(t, "Zeta", m.Name)

	_, ok = c.Find("https://unknown.example/")
	assert.False(t, ok)
	_, ok = c.Find("libgen")
	assert.False(t, ok)
}

func TestEmbeddedMirrorsFoundByHostName(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	for _, host := range []string{"libgen.lc", "libgen.lol", "libgen.is"} {
		m, ok := c.Find(host)
		require.True(t, ok, host)
		assert.Equal(t, host, hostName(m.HostURL))
	}
}

func TestSelectAmongReachable(t *testing.T) {
	list := []Mirror{{Name: "LibgenRs", HostURL: "https://libgen.rs/"}, {Name: "LibgenIs", HostURL: "https://libgen.is/"}}

	m, ok := Select(list, "HTTPS://LIBGEN.IS")
	require.True(t, ok)
	assert.Equal(t, "LibgenIs", m.Name)

	_, ok = Select(list, "")
	assert.False(t, ok)
	_, ok = Select(nil, "libgenrs")
	assert.False(t, ok)
}

func TestDialectForHost(t *testing.T) {
	assert.Equal(t, DialectDirectLink, DialectForHost("https://libgen.rocks/"))
	assert.Equal(t, DialectDirectLink, DialectForHost("http://www.libgen.lc"))
	assert.Equal(t, DialectGateway, DialectForHost("http://libgen.lol/"))
	assert.Equal(t, DialectGateway, DialectForHost("http://LIBGEN.ME/"))
	assert.Equal(t, DialectUnknown, DialectForHost("https://example.org/"))
	assert.Equal(t, DialectUnknown, DialectForHost("::"))
}
