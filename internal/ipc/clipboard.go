package ipc

import (
	"context"
	"strings"

	"github.com/roomtin/hyprconnect/internal/apperr"
	"github.com/roomtin/hyprconnect/internal/runner"
)

// WlPaste reads the Wayland clipboard with wl-paste.
type WlPaste struct {
	runner runner.Runner
}

func NewWlPaste(r runner.Runner) *WlPaste {
	return &WlPaste{runner: r}
}

// Read returns the trimmed clipboard text. An empty clipboard is invalid.
func (w *WlPaste) Read(ctx context.Context) (string, error) {
	res, err := w.runner.Run(ctx, "wl-paste", "-n")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, err, "failed to execute wl-paste")
	}
	if !res.OK() {
		return "", apperr.Unavailable("failed to read clipboard with wl-paste")
	}
	text := strings.TrimSpace(res.Stdout)
	if text == "" {
		return "", apperr.Invalid("clipboard is empty")
	}
	return text, nil
}
