// Package cancel implements the shared cancellation flag (spec C9): a
// single atomic boolean, reset false at job entry, flipped once by a
// writer, polled cooperatively by readers. Modeled on the teacher's
// context.CancelFunc-on-Session pattern (internal/server/session.go) but
// exposed as a plain flag so non-context-aware loops (C7's tick-based
// wait) can observe it without threading a context through every layer.
package cancel

import "sync/atomic"

// Token is a single-use, per-job cancellation flag. The zero value is
// ready to use and reports not-cancelled.
type Token struct {
	flag atomic.Bool
}

// New returns a fresh, non-cancelled token.
func New() *Token {
	return &Token{}
}

// Cancel flips the flag to true. Idempotent: calling it more than once has
// no additional effect. Once Cancel returns, every subsequent
// IsCancelled call on this token, from any goroutine, observes true.
func (t *Token) Cancel() {
	t.flag.Store(true)
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	return t.flag.Load()
}

// Reset clears a token back to not-cancelled, for reuse at the start of a
// new job (per spec: "reset at job entry to clear stale prior
// cancellations").
func (t *Token) Reset() {
	t.flag.Store(false)
}
