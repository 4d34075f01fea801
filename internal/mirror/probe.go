package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/libgendl/internal/logging"
)

// BlockPageMarker is the text anti-bot pages carry instead of real content
const BlockPageMarker = "Block Page"

// maxProbeBody caps how much of a landing page is read while probing
const maxProbeBody = 8 << 20

// Status is the outcome of contacting one mirror
type Status int

const (
	StatusReachable Status = iota
	StatusBlocked
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusBlocked:
		return "blocked"
	default:
		return "unreachable"
	}
}

// Result is the probe outcome for a single mirror
type Result struct {
	Mirror Mirror
	Status Status
	// Reason explains an unreachable status
	Reason string
}

// ProberOptions configures a Prober
type ProberOptions struct {
	// Timeout bounds each probe request. Ignored when Client is set.
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *logrus.Entry
}

// Prober checks which mirrors currently answer without being blocked
type Prober struct {
	client    *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewProber creates a new prober
func NewProber(opts ProberOptions) *Prober {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logging.For("probe")
	}

	return &Prober{
		client:    client,
		userAgent: opts.UserAgent,
		log:       log,
	}
}

// Check issues a plain GET to the mirror's host URL and classifies the answer
func (p *Prober) Check(ctx context.Context, m Mirror) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.HostURL, nil)
	if err != nil {
		return Result{Mirror: m, Status: StatusUnreachable, Reason: err.Error()}
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Mirror: m, Status: StatusUnreachable, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return Result{Mirror: m, Status: StatusUnreachable, Reason: fmt.Sprintf("failed to read landing page: %v", err)}
	}

	if bytes.Contains(body, []byte(BlockPageMarker)) {
		return Result{Mirror: m, Status: StatusBlocked}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Mirror: m, Status: StatusUnreachable, Reason: fmt.Sprintf("server returned %s", resp.Status)}
	}

	return Result{Mirror: m, Status: StatusReachable}
}

// Probe checks every mirror of group one after another. If any mirror is
// blocked the whole batch fails with the blocked hosts, even when others
// are reachable.
func (p *Prober) Probe(ctx context.Context, g Group, group []Mirror) ([]Mirror, error) {
	var working []Mirror
	var blocked []string

	for _, m := range group {
		res := p.Check(ctx, m)

		entry := p.log.WithFields(logrus.Fields{
			"group":  g.String(),
			"mirror": m.HostURL,
			"status": res.Status.String(),
		})
		if res.Reason != "" {
			entry = entry.WithField("reason", res.Reason)
		}
		entry.Debug("Probed mirror")

		switch res.Status {
		case StatusReachable:
			working = append(working, m)
		case StatusBlocked:
			blocked = append(blocked, m.HostURL)
		}
	}

	if len(blocked) > 0 {
		return nil, &ProbeError{Group: g, Blocked: blocked}
	}
	if len(working) == 0 {
		return nil, &ProbeError{Group: g}
	}
	return working, nil
}

// Pending is the eventual result of one probe batch
type Pending struct {
	Group   Group
	done    chan struct{}
	mirrors []Mirror
	err     error
}

// Done is closed once the batch has finished
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the batch has finished and returns its outcome
func (p *Pending) Wait() ([]Mirror, error) {
	<-p.done
	return p.mirrors, p.err
}

// Start launches the search and download probe batches concurrently and
// returns immediately. Each batch probes its own mirrors sequentially, and
// a failure in one never affects the other.
func (p *Prober) Start(ctx context.Context, c *Catalog) (search, download *Pending) {
	return p.start(ctx, GroupSearch, c.Search), p.start(ctx, GroupDownload, c.Download)
}

func (p *Prober) start(ctx context.Context, g Group, group []Mirror) *Pending {
	pending := &Pending{Group: g, done: make(chan struct{})}
	go func() {
		defer close(pending.done)
		pending.mirrors, pending.err = p.Probe(ctx, g, group)
	}()
	return pending
}
