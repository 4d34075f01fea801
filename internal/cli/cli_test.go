package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/libgendl/internal/config"
	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/downloader"
	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/logging"
	"github.com/billmal071/libgendl/internal/mirror"
	"github.com/billmal071/libgendl/internal/notify"
)

// md5 of "hello"
const helloHash = "5D41402ABC4B2A76B9719D911017C592"

func TestQueryFromFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "get"}
		addQueryFlags(cmd)
		return cmd
	}

	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("author", "Frank Herbert"))
	require.NoError(t, cmd.Flags().Set("author", "Brian Herbert"))
	q, typ, err := queryFromFlags(cmd, []string{"dune", "messiah"})
	require.NoError(t, err)
	assert.Nil(t, typ)
	assert.Equal(t, "dune messiah Frank Herbert, Brian Herbert", q.Text())

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("fiction", "true"))
	_, typ, err = queryFromFlags(cmd, []string{"dune"})
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, libgen.Fiction, *typ)

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("type", "nf"))
	_, typ, err = queryFromFlags(cmd, []string{"dune"})
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, libgen.NonFiction, *typ)

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("type", "poetry"))
	_, _, err = queryFromFlags(cmd, []string{"dune"})
	assert.Error(t, err)
}

func TestNormalizeHash(t *testing.T) {
	h, err := normalizeHash("  5d41402abc4b2a76b9719d911017c592 ")
	require.NoError(t, err)
	assert.Equal(t, helloHash, h)

	for _, bad := range []string{"", "5D41402ABC4B2A76", "GGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGG", helloHash + "00"} {
		_, err := normalizeHash(bad)
		assert.Error(t, err, bad)
	}
}

func TestChooseMirrorByName(t *testing.T) {
	mirrors := []mirror.Mirror{
		{Name: "LibgenRocks", HostURL: "https://libgen.rocks/"},
		{Name: "LibgenLc", HostURL: "http://libgen.lc/"},
	}

	for _, key := range []string{"libgen.lc", "http://libgen.lc", "libgenlc"} {
		m, ok, err := chooseMirror("pick", mirrors, key)
		require.NoError(t, err, key)
		assert.True(t, ok, key)
		assert.Equal(t, "LibgenLc", m.Name, key)
	}

	m, ok, err := chooseMirror("pick", mirrors, "librocks")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, m.HostURL)
}

func TestListItems(t *testing.T) {
	item := recordItem(libgen.Record{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Extension: "epub",
		Filesize:  "2048",
		Year:      "1965",
		MD5:       helloHash,
	})
	assert.Equal(t, "Dune", item.Label)
	assert.Equal(t, []string{"Frank Herbert | EPUB | 2.0 KB | 1965", "MD5: 5D41402ABC4B2A76..."}, item.Detail)

	mi := mirrorItem(mirror.Mirror{Name: "LibgenLol", HostURL: "http://libgen.lol/", Dialect: mirror.DialectGateway})
	assert.Equal(t, "http://libgen.lol/", mi.Label)
	assert.Equal(t, []string{"LibgenLol (gateway)"}, mi.Detail)

	assert.Equal(t, "Dune by Frank Herbert ["+helloHash+"]", describeHit(&libgen.FictionHit{MD5: helloHash, Title: "Dune", Author: "Frank Herbert"}))
	assert.Equal(t, helloHash, describeHit(&libgen.FictionHit{MD5: helloHash}))
}

// fakeDownloadMirror serves a direct-link download page and the file it links to
func fakeDownloadMirror(t *testing.T, fileStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ads.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><a href="get.php?md5=%s&key=ABCDEFGHIJKLMNOP">GET</a></html>`, r.URL.Query().Get("md5"))
	})
	mux.HandleFunc("/get.php", func(w http.ResponseWriter, r *http.Request) {
		if fileStatus != http.StatusOK {
			http.Error(w, "gone", fileStatus)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="hello.txt"`)
		w.Write([]byte("hello"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testSession(t *testing.T, srv *httptest.Server) *session {
	t.Helper()
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "libgendl.db")))
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Downloads.Path = t.TempDir()
	cfg.Network.RetryAttempts = 1

	return &session{
		cfg: cfg,
		catalog: mirror.NewCatalog([]mirror.Mirror{{
			Name:            "Local",
			HostURL:         srv.URL + "/",
			DownloadURL:     srv.URL + "/ads.php",
			DownloadPattern: srv.URL + "/ads.php?md5={md5}",
			Dialect:         mirror.DialectDirectLink,
		}}),
		prober:   mirror.NewProber(mirror.ProberOptions{}),
		resolver: libgen.NewResolver(libgen.ResolverOptions{}),
		notifier: notify.New(false),
		log:      logging.Discard(),
	}
}

func TestDownloadTargetRecordsAndVerifies(t *testing.T) {
	srv := fakeDownloadMirror(t, http.StatusOK)
	s := testSession(t, srv)

	err := s.downloadTarget(context.Background(), libgen.HashTarget(helloHash), "Local", true)
	require.NoError(t, err)

	path := filepath.Join(s.cfg.Downloads.Path, "hello.txt")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	d, err := db.GetLatestDownloadByHash(helloHash)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, d.Status)
	assert.Equal(t, path, d.FilePath)
	assert.Equal(t, int64(5), d.FileSize)
	assert.True(t, d.Verified)
	assert.Equal(t, srv.URL+"/get.php?md5="+helloHash+"&key=ABCDEFGHIJKLMNOP", d.DownloadURL)
}

func TestDownloadTargetMarksFailure(t *testing.T) {
	srv := fakeDownloadMirror(t, http.StatusNotFound)
	s := testSession(t, srv)

	err := s.downloadTarget(context.Background(), libgen.HashTarget(helloHash), "Local", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, downloader.ErrTransport))

	d, err := db.GetLatestDownloadByHash(helloHash)
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, d.Status)
	assert.NotEmpty(t, d.ErrorMessage)
}

func TestDownloadFailureLogsUnsavedStatus(t *testing.T) {
	srv := fakeDownloadMirror(t, http.StatusNotFound)
	s := testSession(t, srv)

	logger, hook := logtest.NewNullLogger()
	s.log = logrus.NewEntry(logger)

	_, err := db.DB().Exec(`CREATE TRIGGER no_failures BEFORE UPDATE ON downloads
		WHEN NEW.status = 'failed' BEGIN SELECT RAISE(ABORT, 'read only'); END`)
	require.NoError(t, err)

	err = s.downloadTarget(context.Background(), libgen.HashTarget(helloHash), "Local", false)
	require.ErrorIs(t, err, downloader.ErrTransport)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Couldn't mark download as failed", entry.Message)
	assert.Contains(t, entry.Data[logrus.ErrorKey].(error).Error(), "read only")
}

func TestDownloadTargetUnknownMirror(t *testing.T) {
	srv := fakeDownloadMirror(t, http.StatusOK)
	s := testSession(t, srv)

	err := s.downloadTarget(context.Background(), libgen.HashTarget(helloHash), "nowhere", false)
	assert.Error(t, err)
}
