package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/billmal071/libgendl/internal/logging"
)

type sent struct {
	title, message, kind string
}

func recordingNotifier(enabled bool) (*Notifier, chan sent) {
	ch := make(chan sent, 4)
	n := &Notifier{
		enabled: enabled,
		log:     logging.Discard(),
		send: func(title, message, notifyType string) error {
			ch <- sent{title, message, notifyType}
			return nil
		},
	}
	return n, ch
}

func TestNotifierSendsWhenEnabled(t *testing.T) {
	n, ch := recordingNotifier(true)
	n.DownloadFailed("Dune", "couldn't find download link")

	select {
	case got := <-ch:
		assert.Equal(t, sent{"Download Failed", "Dune: couldn't find download link", TypeError}, got)
	case <-time.After(time.Second):
		t.Fatal("notification not sent")
	}
}

func TestNotifierDisabledDropsEverything(t *testing.T) {
	n, ch := recordingNotifier(false)
	n.DownloadComplete("book.epub")
	n.MirrorsBlocked("search", []string{"https://libgen.rs/"})

	select {
	case got := <-ch:
		t.Fatalf("unexpected notification %+v", got)
	case <-time.After(20 * time.Millisecond):
	}

	var nilNotifier *Notifier
	nilNotifier.DownloadComplete("book.epub")
}

func TestEscaping(t *testing.T) {
	assert.Equal(t, `say \"hi\" \\ bye`, escapeAppleScript(`say "hi" \ bye`))
	assert.Equal(t, "Tom &amp; Jerry &lt;3", escapeXML("Tom & Jerry <3"))
}
