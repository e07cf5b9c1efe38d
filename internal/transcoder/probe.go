package transcoder

import (
	"bytes"
	"context"
	"os/exec"
)

// RunProbe invokes the probe binary with the given arguments and returns its
// full stdout. Used by internal/mediainfo with the fixed argument vector
// "-v quiet -print_format json -show_format -show_streams <path>".
func (d *Driver) RunProbe(ctx context.Context, args []string) ([]byte, error) {
	path, err := d.Locator.Resolve(d.ProbeName)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.Bytes()
		if len(tail) > stderrTailLimit {
			tail = tail[len(tail)-stderrTailLimit:]
		}
		return nil, &Error{Kind: KindToolFailed, Tool: d.ProbeName, Err: err, Stderr: string(tail)}
	}

	return stdout.Bytes(), nil
}
