// Package display renders a generated image inline in terminals that speak
// the kitty graphics protocol.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manash/picfour/pkg/models"
)

type Displayer struct {
	out io.Writer
}

func New(out io.Writer) *Displayer {
	return &Displayer{out: out}
}

func (d *Displayer) Display(img *models.GeneratedImage) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("image has no data")
	}

	enc := NewKittyEncoder(d.out)
	if err := enc.Encode(img.Data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(d.out)
	return nil
}

// IsTerminalSupported reports whether the current terminal is known to
// render the kitty graphics protocol.
func IsTerminalSupported() bool {
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	supportedPrograms := []string{"kitty", "ghostty", "iterm.app", "wezterm"}

	for _, prog := range supportedPrograms {
		if termProgram == prog {
			return true
		}
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
