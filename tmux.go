package kittyimg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// allowTmuxPassthrough lets graphics sequences through to the terminal tmux runs in.
// Only the current pane is changed.
func allowTmuxPassthrough(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "tmux", "set-option", "-p", "allow-passthrough", "on").CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux set-option: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}
