package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/libgendl/internal/logging"
)

func newTestProber() *Prober {
	return NewProber(ProberOptions{Timeout: 2 * time.Second, Logger: logging.Discard()})
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Library Genesis</body></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func blockedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Block Page</title></head></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadURL returns the address of a server that is no longer listening
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestCheckClassifies(t *testing.T) {
	p := newTestProber()
	ctx := context.Background()

	ok := okServer(t)
	blocked := blockedServer(t)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	assert.Equal(t, StatusReachable, p.Check(ctx, Mirror{HostURL: ok.URL}).Status)
	assert.Equal(t, StatusBlocked, p.Check(ctx, Mirror{HostURL: blocked.URL}).Status)

	res := p.Check(ctx, Mirror{HostURL: deadURL(t)})
	assert.Equal(t, StatusUnreachable, res.Status)
	assert.NotEmpty(t, res.Reason)

	res = p.Check(ctx, Mirror{HostURL: failing.URL})
	assert.Equal(t, StatusUnreachable, res.Status)
	assert.Contains(t, res.Reason, "503")
}

func TestCheckTimeoutIsUnreachable(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	p := NewProber(ProberOptions{Timeout: 50 * time.Millisecond, Logger: logging.Discard()})
	res := p.Check(context.Background(), Mirror{HostURL: slow.URL})
	assert.Equal(t, StatusUnreachable, res.Status)
}

func TestProbeReturnsReachableInOrder(t *testing.T) {
	a, b := okServer(t), okServer(t)
	group := []Mirror{{HostURL: a.URL}, {HostURL: deadURL(t)}, {HostURL: b.URL}}

	working, err := newTestProber().Probe(context.Background(), GroupSearch, group)
	require.NoError(t, err)
	require.Len(t, working, 2)
	assert.Equal(t, a.URL, working[0].HostURL)
	assert.Equal(t, b.URL, working[1].HostURL)
}

func TestProbeBlockedWinsOverReachable(t *testing.T) {
	a := okServer(t)
	b := blockedServer(t)
	group := []Mirror{{HostURL: a.URL}, {HostURL: b.URL}}

	working, err := newTestProber().Probe(context.Background(), GroupDownload, group)
	require.Error(t, err)
	assert.Nil(t, working)
	assert.ErrorIs(t, err, ErrMirrorsBlocked)

	var perr *ProbeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{b.URL}, perr.Blocked)
	assert.Contains(t, err.Error(), b.URL)
	assert.NotContains(t, err.Error(), a.URL)
}

func TestProbeNothingReachable(t *testing.T) {
	group := []Mirror{{HostURL: deadURL(t)}}

	_, err := newTestProber().Probe(context.Background(), GroupSearch, group)
	assert.ErrorIs(t, err, ErrNoMirrorReachable)

	_, err = newTestProber().Probe(context.Background(), GroupSearch, nil)
	assert.ErrorIs(t, err, ErrNoMirrorReachable)
}

func TestProbeIsSequentialWithinGroup(t *testing.T) {
	var inFlight, maxInFlight int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&maxInFlight)
			if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	group := []Mirror{{HostURL: srv.URL + "/a"}, {HostURL: srv.URL + "/b"}, {HostURL: srv.URL + "/c"}}
	working, err := newTestProber().Probe(context.Background(), GroupSearch, group)
	require.NoError(t, err)
	assert.Len(t, working, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestStartRunsBatchesIndependently(t *testing.T) {
	blocked := blockedServer(t)
	ok := okServer(t)

	c := &Catalog{
		Search:   []Mirror{{HostURL: blocked.URL, SearchURL: blocked.URL + "/search.php"}},
		Download: []Mirror{{HostURL: ok.URL, DownloadURL: ok.URL + "/main/"}},
	}

	search, download := newTestProber().Start(context.Background(), c)
	assert.Equal(t, GroupSearch, search.Group)
	assert.Equal(t, GroupDownload, download.Group)

	// await the download batch first: order of consumption is the caller's choice
	mirrors, err := download.Wait()
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, ok.URL, mirrors[0].HostURL)

	_, err = search.Wait()
	assert.ErrorIs(t, err, ErrMirrorsBlocked)

	select {
	case <-search.Done():
	default:
		t.Fatal("search batch should be done")
	}
}
