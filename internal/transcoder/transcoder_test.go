package transcoder

import (
	"errors"
	"testing"
)

func TestLocator_ResolveFallsBackToPath(t *testing.T) {
	loc := Locator{}
	path, err := loc.Resolve("ls")
	if err != nil {
		t.Fatalf("expected ls to resolve via PATH, got error: %v", err)
	}
	if path == "" {
		t.Error("expected a non-empty resolved path")
	}
}

func TestLocator_ResolveMissingToolReturnsToolMissing(t *testing.T) {
	loc := Locator{}
	_, err := loc.Resolve("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected an error for a nonexistent binary")
	}
	if !IsToolMissing(err) {
		t.Errorf("expected KindToolMissing, got %v", err)
	}
}

func TestLocator_ResolveFallsThroughMissingSidecarDir(t *testing.T) {
	// A sidecar dir that doesn't contain the binary should fall through to
	// PATH rather than failing outright.
	loc := Locator{SidecarDir: "/nonexistent-sidecar-dir"}
	path, err := loc.Resolve("ls")
	if err != nil {
		t.Fatalf("expected fallthrough to PATH, got error: %v", err)
	}
	if path == "" {
		t.Error("expected a non-empty resolved path")
	}
}

func TestError_Error(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"missing", &Error{Kind: KindToolMissing, Tool: "ffmpeg"}, "ffmpeg: tool not found"},
		{"failed-with-stderr", &Error{Kind: KindToolFailed, Tool: "ffmpeg", Stderr: "boom"}, "ffmpeg: exited with error: boom"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.err.Error(); got != c.want {
				t.Errorf("Error() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestIsToolMissing_NonTranscoderError(t *testing.T) {
	if IsToolMissing(nil) {
		t.Error("expected nil error to not be ToolMissing")
	}
	if IsToolMissing(errors.New("boom")) {
		t.Error("expected a non-transcoder error to not be ToolMissing")
	}
}
