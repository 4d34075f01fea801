package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/billmal071/libgendl/internal/downloader"
)

// progressView renders downloader progress on stderr. The bar is created
// on the first update, once the size is known or known to be missing.
type progressView struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressView() *progressView {
	return &progressView{}
}

func (v *progressView) update(p downloader.Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bar == nil {
		v.bar = newBar(p)
	}
	v.bar.Set64(p.Written)
}

// indicator keeps the bar animating while no bytes arrive
func (v *progressView) indicator() downloader.Indicator {
	return downloader.NewSpinner(200*time.Millisecond, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.bar != nil {
			v.bar.RenderBlank()
		}
	})
}

func (v *progressView) finish(ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bar == nil {
		return
	}
	if ok {
		v.bar.Finish()
	}
	fmt.Fprintln(os.Stderr)
}

func newBar(p downloader.Progress) *progressbar.ProgressBar {
	max := p.Total
	if !p.Known() {
		max = -1
	}

	return progressbar.NewOptions64(
		max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
