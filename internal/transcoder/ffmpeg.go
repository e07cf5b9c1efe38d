package transcoder

import (
	"bufio"
	"context"
	"os/exec"

	"silence-excise/internal/logx"
)

// SpawnStream starts the transcoder binary with the given arguments and
// returns a Stream the caller reads stdout from and eventually waits on.
// Grounded on FFmpegPipeline.Start: CommandContext, StdoutPipe/StderrPipe,
// a background stderr drain goroutine, Start, and a logged exit on Wait.
func (d *Driver) SpawnStream(ctx context.Context, args []string) (*Stream, error) {
	path, err := d.Locator.Resolve(d.TranscoderName)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &Error{Kind: KindIoError, Tool: d.TranscoderName, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, &Error{Kind: KindIoError, Tool: d.TranscoderName, Err: err}
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &Error{Kind: KindIoError, Tool: d.TranscoderName, Err: err}
	}

	tail := make(chan string, 1)
	go drainStderr(d.TranscoderName, stderr, tail)

	return &Stream{cmd: cmd, Stdout: stdout, cancel: cancel, tool: d.TranscoderName, stderrTail: tail}, nil
}

// RunToCompletion spawns the transcoder, discards its stdout, and waits for
// it to exit. Used for batch-render and stitch invocations, where the
// caller only cares about the exit status, not streamed output.
func (d *Driver) RunToCompletion(ctx context.Context, args []string) error {
	path, err := d.Locator.Resolve(d.TranscoderName)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, path, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &Error{Kind: KindIoError, Tool: d.TranscoderName, Err: err}
	}
	cmd.Stdout = nil

	tail := make(chan string, 1)
	go drainStderr(d.TranscoderName, stderr, tail)

	if err := cmd.Start(); err != nil {
		return &Error{Kind: KindIoError, Tool: d.TranscoderName, Err: err}
	}

	err = cmd.Wait()
	stderrTail := <-tail
	if err != nil {
		return &Error{Kind: KindToolFailed, Tool: d.TranscoderName, Err: err, Stderr: stderrTail}
	}
	return nil
}

// drainStderr consumes stderr line-by-line, logging each line tagged with
// the tool name (mirrors FFmpegPipeline.readStderr), and retains the last
// stderrTailLimit bytes for inclusion in a failure Error.
func drainStderr(tool string, r interface{ Read([]byte) (int, error) }, tail chan<- string) {
	scanner := bufio.NewScanner(readerAdapter{r})
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var accumulated []byte
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			logx.Infof(tool, "%s", line)
		}
		accumulated = append(accumulated, line...)
		accumulated = append(accumulated, '\n')
		if len(accumulated) > stderrTailLimit {
			accumulated = accumulated[len(accumulated)-stderrTailLimit:]
		}
	}
	tail <- string(accumulated)
}

type readerAdapter struct {
	r interface{ Read([]byte) (int, error) }
}

func (a readerAdapter) Read(p []byte) (int, error) { return a.r.Read(p) }

// logExitCode logs a process exit the way FFmpegPipeline.waitAndLogExit
// does, distinguishing a clean ExitError from an unexpected Wait failure.
func logExitCode(tool string, err error) {
	if err == nil {
		logx.Infof(tool, "exited normally (code 0)")
		return
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		logx.Warnf(tool, "exited with code %d", exitErr.ExitCode())
		return
	}
	logx.Errorf(tool, "wait error: %v", err)
}
