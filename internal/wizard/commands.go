package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/manash/picfour/internal/display"
	"github.com/manash/picfour/internal/workflow"
	"github.com/manash/picfour/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, w *Wizard, args []string) error
}

func (w *Wizard) registerCommands() {
	for _, cmd := range allCommands() {
		w.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			w.commands[alias] = cmd
		}
	}
}

func allCommands() []Command {
	return []Command{
		&OpenCommand{},
		&PromptCommand{},
		&GenerateCommand{},
		&BackCommand{},
		&ResultsCommand{},
		&ShowCommand{},
		&SaveCommand{},
		&HistoryCommand{},
		&UseCommand{},
		&ClearCommand{},
		&QuotaCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}
}

// OpenCommand loads the source image
type OpenCommand struct{}

func (c *OpenCommand) Name() string        { return "open" }
func (c *OpenCommand) Aliases() []string   { return []string{"o", "upload"} }
func (c *OpenCommand) Description() string { return "Load a source image from a file" }
func (c *OpenCommand) Usage() string       { return "open <path>" }

func (c *OpenCommand) Execute(ctx context.Context, w *Wizard, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	payload, err := w.loader.Load(args[0])
	if err != nil {
		return err
	}

	if err := w.ctrl.Dispatch(ctx, workflow.UploadImage{Image: payload}); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "Loaded %s (%s, %s)\n", args[0], payload.MimeType, humanize.Bytes(uint64(len(payload.Data))))
	fmt.Fprintln(w.out, "Next: describe the change with 'prompt <text>'.")
	return nil
}

// PromptCommand sets or shows the instruction text
type PromptCommand struct{}

func (c *PromptCommand) Name() string        { return "prompt" }
func (c *PromptCommand) Aliases() []string   { return []string{"p", "describe"} }
func (c *PromptCommand) Description() string { return "Set the modification instruction" }
func (c *PromptCommand) Usage() string       { return "prompt <text>" }

func (c *PromptCommand) Execute(ctx context.Context, w *Wizard, args []string) error {
	if len(args) == 0 {
		current := w.ctrl.Prompt()
		if current == "" {
			fmt.Fprintln(w.out, "No prompt set. Example: prompt make the sky orange")
			return nil
		}
		fmt.Fprintf(w.out, "Current prompt: %q\n", current)
		return nil
	}

	text := strings.Join(args, " ")
	if err := w.ctrl.Dispatch(ctx, workflow.SetPrompt{Text: text}); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "Prompt set: %q\n", text)
	fmt.Fprintln(w.out, "Run 'generate' when ready (consumes 1 generation).")
	return nil
}

// GenerateCommand runs the generation, including the redo confirmation flow
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g", "redo"} }
func (c *GenerateCommand) Description() string { return "Generate the four variants (or redo)" }
func (c *GenerateCommand) Usage() string       { return "generate" }

func (c *GenerateCommand) Execute(ctx context.Context, w *Wizard, _ []string) error {
	if w.ctrl.Step() != workflow.StepGenerate {
		fmt.Fprintln(w.out, "Generating four variants, this usually takes 10-20 seconds...")
	}
	err := w.ctrl.Dispatch(ctx, workflow.Generate{})

	var confirmErr *workflow.ConfirmRedoError
	if errors.As(err, &confirmErr) {
		question := fmt.Sprintf("Redo consumes 1 generation (%d remaining). Continue?", confirmErr.Remaining)
		if !w.confirm(question) {
			fmt.Fprintln(w.out, "Cancelled.")
			return nil
		}
		fmt.Fprintln(w.out, "Generating four variants, this usually takes 10-20 seconds...")
		err = w.ctrl.Dispatch(ctx, workflow.Generate{Confirmed: true})
	}
	if err != nil {
		return err
	}

	w.listResults(w.ctrl.Results())

	if remaining, qerr := w.ctrl.Remaining(ctx); qerr == nil {
		fmt.Fprintf(w.out, "Balance: %d of %d generations left today.\n", remaining, w.ctrl.Limit())
	}
	fmt.Fprintln(w.out, "Use 'save all' to download, 'redo' for a fresh set, 'back' to edit the prompt.")

	if w.preview && display.IsTerminalSupported() {
		results := w.ctrl.Results()
		if len(results) > 0 {
			if perr := w.displayer.Display(&results[0]); perr != nil {
				fmt.Fprintf(w.err, "Warning: failed to display preview: %v\n", perr)
			}
		}
	}
	return nil
}

// BackCommand steps backwards in the wizard
type BackCommand struct{}

func (c *BackCommand) Name() string        { return "back" }
func (c *BackCommand) Aliases() []string   { return []string{"b"} }
func (c *BackCommand) Description() string { return "Go back one step (results kept)" }
func (c *BackCommand) Usage() string       { return "back" }

func (c *BackCommand) Execute(ctx context.Context, w *Wizard, _ []string) error {
	if err := w.ctrl.Dispatch(ctx, workflow.Back{}); err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Step: %s\n", w.ctrl.Step())
	return nil
}

// ResultsCommand lists the current results
type ResultsCommand struct{}

func (c *ResultsCommand) Name() string        { return "results" }
func (c *ResultsCommand) Aliases() []string   { return []string{"res"} }
func (c *ResultsCommand) Description() string { return "List the current results" }
func (c *ResultsCommand) Usage() string       { return "results" }

func (c *ResultsCommand) Execute(_ context.Context, w *Wizard, _ []string) error {
	results := w.ctrl.Results()
	if len(results) == 0 {
		fmt.Fprintln(w.out, "No results yet - run 'generate' first.")
		return nil
	}
	w.listResults(results)
	return nil
}

// ShowCommand previews a result inline
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"view"} }
func (c *ShowCommand) Description() string { return "Preview a result in the terminal" }
func (c *ShowCommand) Usage() string       { return "show [n]" }

func (c *ShowCommand) Execute(_ context.Context, w *Wizard, args []string) error {
	results := w.ctrl.Results()
	if len(results) == 0 {
		return fmt.Errorf("no results to show - run 'generate' first")
	}

	index := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(results) {
			return fmt.Errorf("usage: %s (n between 1 and %d)", c.Usage(), len(results))
		}
		index = n - 1
	}

	if !display.IsTerminalSupported() {
		fmt.Fprintln(w.out, "This terminal cannot render images inline; use 'save' instead.")
		return nil
	}

	return w.displayer.Display(&results[index])
}

// SaveCommand writes one or all results to disk
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s", "download"} }
func (c *SaveCommand) Description() string { return "Save one result or all of them" }
func (c *SaveCommand) Usage() string       { return "save [n|all] [dir]" }

func (c *SaveCommand) Execute(_ context.Context, w *Wizard, args []string) error {
	results := w.ctrl.Results()
	if len(results) == 0 {
		return fmt.Errorf("no results to save - run 'generate' first")
	}

	selector := "all"
	if len(args) > 0 {
		selector = strings.ToLower(args[0])
	}
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	if selector == "all" {
		paths, err := w.saver.SaveAll(results, dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintf(w.out, "Saved: %s\n", path)
		}
		return nil
	}

	n, err := strconv.Atoi(selector)
	if err != nil || n < 1 || n > len(results) {
		return fmt.Errorf("usage: %s (n between 1 and %d)", c.Usage(), len(results))
	}

	paths, err := w.saver.SaveAll(results[n-1:n], dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Saved: %s\n", paths[0])
	return nil
}

// HistoryCommand lists past generations
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "hist"} }
func (c *HistoryCommand) Description() string { return "List recent generations" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(ctx context.Context, w *Wizard, _ []string) error {
	entries, err := w.ctrl.History(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(w.out, "No history yet")
		return nil
	}

	for i, entry := range entries {
		fmt.Fprintf(w.out, "[%d] %-14s %d result(s)  %q\n",
			i+1,
			humanize.Time(entry.Timestamp),
			len(entry.Results),
			truncate(entry.Prompt, 50))
	}
	fmt.Fprintln(w.out, "Load one with 'use <n>' (viewing history is free).")

	return nil
}

// UseCommand loads a history entry into the session
type UseCommand struct{}

func (c *UseCommand) Name() string        { return "use" }
func (c *UseCommand) Aliases() []string   { return nil }
func (c *UseCommand) Description() string { return "Load a history entry" }
func (c *UseCommand) Usage() string       { return "use <n>" }

func (c *UseCommand) Execute(ctx context.Context, w *Wizard, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	entries, err := w.ctrl.History(ctx)
	if err != nil {
		return err
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(entries) {
		return fmt.Errorf("usage: %s (n between 1 and %d)", c.Usage(), len(entries))
	}

	entry := entries[n-1]
	if err := w.ctrl.Dispatch(ctx, workflow.SelectHistory{ID: entry.ID}); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "Loaded %q (%d result(s), %s)\n",
		truncate(entry.Prompt, 50), len(entry.Results), humanize.Time(entry.Timestamp))
	w.listResults(w.ctrl.Results())
	return nil
}

// ClearCommand empties the history
type ClearCommand struct{}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Aliases() []string   { return nil }
func (c *ClearCommand) Description() string { return "Clear all history" }
func (c *ClearCommand) Usage() string       { return "clear" }

func (c *ClearCommand) Execute(ctx context.Context, w *Wizard, _ []string) error {
	if !w.confirm("Clear all history?") {
		fmt.Fprintln(w.out, "Cancelled.")
		return nil
	}
	if err := w.ctrl.Dispatch(ctx, workflow.ClearHistory{}); err != nil {
		return err
	}
	fmt.Fprintln(w.out, "History cleared.")
	return nil
}

// QuotaCommand shows the daily balance
type QuotaCommand struct{}

func (c *QuotaCommand) Name() string        { return "quota" }
func (c *QuotaCommand) Aliases() []string   { return []string{"balance"} }
func (c *QuotaCommand) Description() string { return "Show the remaining daily balance" }
func (c *QuotaCommand) Usage() string       { return "quota" }

func (c *QuotaCommand) Execute(ctx context.Context, w *Wizard, _ []string) error {
	remaining, err := w.ctrl.Remaining(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Balance: %d of %d generations left today (resets at midnight local time).\n",
		remaining, w.ctrl.Limit())
	return nil
}

// HelpCommand shows available commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, w *Wizard, _ []string) error {
	fmt.Fprintln(w.out, "Available commands:")
	fmt.Fprintln(w.out)

	for _, cmd := range allCommands() {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(w.out, "  %-12s%s\n", cmd.Name()+aliases, cmd.Description())
		fmt.Fprintf(w.out, "               Usage: %s\n", cmd.Usage())
	}

	return nil
}

// QuitCommand exits the wizard
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit the wizard" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, w *Wizard, _ []string) error {
	fmt.Fprintln(w.out, "Goodbye!")
	w.Stop()
	return nil
}

func (w *Wizard) listResults(results []models.GeneratedImage) {
	fmt.Fprintf(w.out, "Got %d variant(s):\n", len(results))
	for i, img := range results {
		fmt.Fprintf(w.out, "  [%d] %-30s %s\n",
			i+1,
			models.VariantFor(i).Caption(),
			humanize.Bytes(uint64(len(img.Data))))
	}
}

// truncate shortens s to maxLen runes, never splitting a multi-byte rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
