// Package clipboard copies text to the system clipboard, falling back to an
// OSC 52 escape sequence when no clipboard utility is available (SSH sessions,
// headless terminals).
package clipboard

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method reports how the text reached the clipboard
type Method string

const (
	MethodSystem Method = "system"
	MethodOSC52  Method = "osc52"
)

// Stubbed in tests
var (
	writeSystem           = clipboard.WriteAll
	terminal    io.Writer = os.Stderr
)

// Copy writes text to the system clipboard, or to the terminal as OSC 52
func Copy(text string) (Method, error) {
	if err := writeSystem(text); err == nil {
		return MethodSystem, nil
	}

	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(terminal); err != nil {
		return "", fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return MethodOSC52, nil
}
