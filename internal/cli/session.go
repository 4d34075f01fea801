package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/libgendl/internal/config"
	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/downloader"
	"github.com/billmal071/libgendl/internal/libgen"
	"github.com/billmal071/libgendl/internal/logging"
	"github.com/billmal071/libgendl/internal/mirror"
	"github.com/billmal071/libgendl/internal/notify"
	"github.com/billmal071/libgendl/internal/tui"
)

// session wires the components for one command run from the configuration
type session struct {
	cfg      *config.Config
	catalog  *mirror.Catalog
	prober   *mirror.Prober
	searcher *libgen.Searcher
	resolver *libgen.Resolver
	notifier *notify.Notifier
	log      *logrus.Entry
}

func newSession() (*session, error) {
	cfg := config.Get()

	catalog, err := mirror.Load(cfg.Mirrors.File)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Network.Timeout}

	return &session{
		cfg:     cfg,
		catalog: catalog,
		prober: mirror.NewProber(mirror.ProberOptions{
			Timeout:   cfg.Network.ProbeTimeout,
			UserAgent: cfg.Network.UserAgent,
		}),
		searcher: libgen.NewSearcher(libgen.SearcherOptions{
			Timeout:           cfg.Network.Timeout,
			UserAgent:         cfg.Network.UserAgent,
			RequestsPerSecond: cfg.Network.RequestsPerSecond,
			Client:            client,
		}),
		resolver: libgen.NewResolver(libgen.ResolverOptions{
			UserAgent: cfg.Network.UserAgent,
			Client:    client,
		}),
		notifier: notify.New(cfg.Downloads.Notifications),
		log:      logging.For("cli"),
	}, nil
}

// saveTo points downloads of this session at dir
func (s *session) saveTo(dir string) {
	cfg := *s.cfg
	cfg.Downloads.Path = dir
	s.cfg = &cfg
}

// await blocks on a probe batch and raises a notification for blocked mirrors
func (s *session) await(p *mirror.Pending) ([]mirror.Mirror, error) {
	mirrors, err := p.Wait()
	if err != nil {
		var perr *mirror.ProbeError
		if errors.As(err, &perr) && len(perr.Blocked) > 0 {
			s.notifier.MirrorsBlocked(perr.Group.String(), perr.Blocked)
		}
		return nil, err
	}
	return mirrors, nil
}

// reachable probes one group, or returns the named mirror unprobed when
// the user asked for it explicitly
func (s *session) reachable(ctx context.Context, g mirror.Group, named string) ([]mirror.Mirror, error) {
	if named != "" {
		m, ok := mirror.Select(s.catalog.Group(g), named)
		if !ok {
			return nil, fmt.Errorf("no %s mirror named %q", g, named)
		}
		return []mirror.Mirror{m}, nil
	}

	Printf("Probing %s mirrors...\n", g)
	return s.prober.Probe(ctx, g, s.catalog.Group(g))
}

// resolveAny tries each download mirror in order until one yields a link
func (s *session) resolveAny(ctx context.Context, t libgen.Target, mirrors []mirror.Mirror) (string, mirror.Mirror, error) {
	var errs []string
	for _, m := range mirrors {
		Printf("Resolving on %s...\n", m.HostURL)
		link, err := s.resolver.Resolve(ctx, t, m)
		if err == nil {
			return link.String(), m, nil
		}
		errs = append(errs, err.Error())
	}
	return "", mirror.Mirror{}, fmt.Errorf("couldn't resolve %s: %s", t.MD5, strings.Join(errs, "; "))
}

// fetch downloads a resolved link, keeping the download history and the
// notifications in step
func (s *session) fetch(ctx context.Context, t libgen.Target, m mirror.Mirror, link string, verify bool) (*downloader.SavedFile, error) {
	record := &db.Download{
		MD5Hash:     strings.ToUpper(t.MD5),
		Title:       targetTitle(t),
		Authors:     t.Author,
		Format:      t.Extension,
		Mirror:      m.HostURL,
		DownloadURL: link,
		Status:      db.StatusDownloading,
	}
	if err := db.CreateDownload(record); err != nil {
		return nil, fmt.Errorf("failed to create download record: %w", err)
	}

	view := newProgressView()
	dl := downloader.New(downloader.Options{
		Dir:       s.cfg.Downloads.Path,
		UserAgent: s.cfg.Network.UserAgent,
		Retry:     downloader.RetryConfigFrom(s.cfg.Network),
		Indicator: view.indicator(),
	})

	saved, err := dl.Download(ctx, link, t.FallbackName(), view.update)
	view.finish(err == nil)
	if err != nil {
		if dbErr := db.UpdateStatus(record.ID, db.StatusFailed, err.Error()); dbErr != nil {
			s.log.WithError(dbErr).WithField("id", record.ID).Warn("Couldn't mark download as failed")
		}
		s.notifier.DownloadFailed(record.Title, err.Error())
		return nil, err
	}

	if err := db.MarkCompleted(record.ID, saved.Path, saved.Size); err != nil {
		return nil, fmt.Errorf("failed to mark download complete: %w", err)
	}
	Successf("Downloaded: %s (%s)", saved.Path, tui.FormatSize(saved.Size))
	s.notifier.DownloadComplete(saved.Name)

	if verify {
		if err := verifyAndMark(record.ID, saved.Path, t.MD5); err != nil {
			return saved, err
		}
		Successf("Checksum verified")
	}

	return saved, nil
}

func verifyAndMark(id int64, path, md5 string) error {
	err := downloader.VerifyChecksum(path, md5)
	if markErr := db.MarkVerified(id, err == nil); markErr != nil {
		if err != nil {
			return fmt.Errorf("verification failed (%v) and failed to update status: %w", err, markErr)
		}
		return fmt.Errorf("verification succeeded but failed to update status: %w", markErr)
	}
	return err
}

func targetTitle(t libgen.Target) string {
	if t.Title != "" {
		return t.Title
	}
	return t.MD5
}

var md5Pattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

// normalizeHash validates a content hash argument
func normalizeHash(s string) (string, error) {
	h := strings.ToUpper(strings.TrimSpace(s))
	if !md5Pattern.MatchString(h) {
		return "", fmt.Errorf("invalid MD5 hash %q: must be 32 hex characters", s)
	}
	return h, nil
}

// recordSearch saves a search to history; failures only get logged
func recordSearch(q libgen.BookQuery, typ libgen.SearchType, m mirror.Mirror, results int) {
	err := db.AddSearchHistory(&db.SearchHistory{
		Title:       q.Title,
		Authors:     q.Authors,
		SearchType:  typ.String(),
		Mirror:      m.HostURL,
		ResultCount: results,
	})
	if err != nil {
		logging.For("cli").WithError(err).Warn("Couldn't save search history")
	}
}
