// Package wizard is the interactive front end: a three-step loop (upload,
// describe, generate) over the workflow controller.
package wizard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/manash/picfour/internal/display"
	"github.com/manash/picfour/internal/image"
	"github.com/manash/picfour/internal/workflow"
)

type Wizard struct {
	in        io.Reader
	out       io.Writer
	err       io.Writer
	scanner   *bufio.Scanner
	ctrl      *workflow.Controller
	loader    *image.Loader
	saver     *image.Saver
	displayer *display.Displayer
	preview   bool
	commands  map[string]Command
	running   bool
}

type Config struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Controller *workflow.Controller
	Loader     *image.Loader
	Saver      *image.Saver
	Displayer  *display.Displayer
	Preview    bool
}

func New(cfg *Config) *Wizard {
	w := &Wizard{
		in:        cfg.In,
		out:       cfg.Out,
		err:       cfg.Err,
		scanner:   bufio.NewScanner(cfg.In),
		ctrl:      cfg.Controller,
		loader:    cfg.Loader,
		saver:     cfg.Saver,
		displayer: cfg.Displayer,
		preview:   cfg.Preview,
		commands:  make(map[string]Command),
	}
	w.registerCommands()
	return w
}

func (w *Wizard) Run(ctx context.Context) error {
	w.running = true
	w.printWelcome(ctx)

	for w.running {
		w.printPrompt(ctx)
		if !w.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(w.scanner.Text())
		if line == "" {
			continue
		}

		if err := w.execute(ctx, line); err != nil {
			fmt.Fprintf(w.err, "Error: %v\n", err)
		}
	}

	return w.scanner.Err()
}

func (w *Wizard) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := w.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, w, args)
}

func (w *Wizard) Stop() {
	w.running = false
}

func (w *Wizard) printWelcome(ctx context.Context) {
	fmt.Fprintln(w.out, "picfour - four photographic variants per generation")
	fmt.Fprintln(w.out, "Steps: 1) open an image  2) describe the change  3) generate")
	if remaining, err := w.ctrl.Remaining(ctx); err == nil {
		fmt.Fprintf(w.out, "Daily balance: %d of %d generations left.\n", remaining, w.ctrl.Limit())
	}
	fmt.Fprintln(w.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(w.out)
}

func (w *Wizard) printPrompt(ctx context.Context) {
	step := w.ctrl.Step()
	remaining, err := w.ctrl.Remaining(ctx)
	if err != nil {
		fmt.Fprintf(w.out, "picfour [%s]> ", step)
		return
	}
	fmt.Fprintf(w.out, "picfour [%s] (%d left)> ", step, remaining)
}

// confirm asks a yes/no question on the wizard's own input stream.
func (w *Wizard) confirm(question string) bool {
	fmt.Fprintf(w.out, "%s [y/N]: ", question)
	if !w.scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(w.scanner.Text()))
	return answer == "y" || answer == "yes"
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
