package notify_exec

import (
	"context"
	"os/exec"
	"strings"
)

// Notifier shells out to notify-send and swallows failures: a headless
// CI box without libnotify must never fail a publish over a desktop
// popup.
type Notifier struct{}

func New() *Notifier { return &Notifier{} }

func (n *Notifier) Notify(ctx context.Context, title, body, url string) error {
	if strings.TrimSpace(url) != "" {
		if body == "" {
			body = url
		} else {
			body = body + "\n" + url
		}
	}

	cmd := exec.CommandContext(ctx, "notify-send", "--app-name=mirrorship", title, body)
	_ = cmd.Run()
	return nil
}
