package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/libgendl/internal/logging"
)

// Notification types
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

// Notifier sends desktop notifications when enabled
type Notifier struct {
	enabled bool
	log     *logrus.Entry
	send    func(title, message, notifyType string) error
}

// New creates a notifier. A disabled notifier drops everything.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		log:     logging.For("notify"),
		send:    sendNotification,
	}
}

// Send sends a notification in the background
func (n *Notifier) Send(title, message, notifyType string) {
	if n == nil || !n.enabled {
		return
	}

	go func() {
		if err := n.send(title, message, notifyType); err != nil {
			n.log.WithError(err).Debug("Desktop notification failed")
		}
	}()
}

// DownloadComplete sends a download complete notification
func (n *Notifier) DownloadComplete(filename string) {
	n.Send("Download Complete", filename, TypeSuccess)
}

// DownloadFailed sends a download failed notification
func (n *Notifier) DownloadFailed(title, reason string) {
	msg := title
	if reason != "" {
		msg += ": " + reason
	}
	n.Send("Download Failed", msg, TypeError)
}

// MirrorsBlocked warns that a probe batch was refused by anti-bot pages
func (n *Notifier) MirrorsBlocked(group string, hosts []string) {
	n.Send("Mirrors Blocked", fmt.Sprintf("%s: %s", group, strings.Join(hosts, ", ")), TypeInfo)
}

func sendNotification(title, message, notifyType string) error {
	switch runtime.GOOS {
	case "linux":
		return sendLinuxNotification(title, message, notifyType)
	case "darwin":
		return sendMacNotification(title, message)
	case "windows":
		return sendWindowsNotification(title, message)
	}
	return nil
}

func sendLinuxNotification(title, message, notifyType string) error {
	// Try notify-send (most common on Linux)
	icon := "dialog-information"
	switch notifyType {
	case TypeSuccess:
		icon = "dialog-ok"
	case TypeError:
		icon = "dialog-error"
	}

	return exec.Command("notify-send", "-i", icon, "-a", "libgendl", title, message).Run()
}

func sendMacNotification(title, message string) error {
	script := `display notification "` + escapeAppleScript(message) + `" with title "` + escapeAppleScript(title) + `"`
	return exec.Command("osascript", "-e", script).Run()
}

func sendWindowsNotification(title, message string) error {
	// Use PowerShell for Windows notifications
	script := `
	[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
	[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
	$template = '<toast><visual><binding template="ToastText02"><text id="1">` + escapeXML(title) + `</text><text id="2">` + escapeXML(message) + `</text></binding></visual></toast>'
	$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
	$xml.LoadXml($template)
	$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
	[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("libgendl").Show($toast)
	`
	return exec.Command("powershell", "-Command", script).Run()
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(s)
}
