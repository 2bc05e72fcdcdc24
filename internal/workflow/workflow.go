// Package workflow implements the three-step generation state machine:
// Upload -> Describe -> Generate, with back and redo transitions. The
// controller is independent of the interaction layer; the wizard renders its
// state and feeds it events through Dispatch.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manash/picfour/internal/history"
	"github.com/manash/picfour/internal/provider"
	"github.com/manash/picfour/internal/quota"
	"github.com/manash/picfour/pkg/models"
)

// Cooldown is the default minimum interval between consecutive successful
// generations. The first generation in a session is exempt.
const Cooldown = 10 * time.Second

type Step int

const (
	StepUpload Step = iota + 1
	StepDescribe
	StepGenerate
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepDescribe:
		return "describe"
	case StepGenerate:
		return "generate"
	default:
		return fmt.Sprintf("step-%d", int(s))
	}
}

var (
	ErrQuotaExhausted = errors.New("daily quota exhausted, resets at the next calendar day")
	ErrNoSourceImage  = errors.New("no source image loaded")
	ErrEmptyResult    = errors.New("the service returned no usable images; try revising your instruction")
	ErrBusy           = errors.New("a generation is already in flight")
	ErrEntryNotFound  = errors.New("history entry not found")
)

// CooldownError reports the remaining wait in whole seconds.
type CooldownError struct {
	Wait int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("too soon since the last generation: wait %d second(s)", e.Wait)
}

// ConfirmRedoError signals that a redo needs explicit confirmation. The
// front end asks the user and re-dispatches Generate with Confirmed set.
type ConfirmRedoError struct {
	Remaining int
}

func (e *ConfirmRedoError) Error() string {
	return fmt.Sprintf("redo consumes 1 generation (%d remaining) and needs confirmation", e.Remaining)
}

// Event is a user action fed to Dispatch.
type Event interface {
	isEvent()
}

type UploadImage struct {
	Image models.ImagePayload
}

type SetPrompt struct {
	Text string
}

type Generate struct {
	Confirmed bool
}

type Back struct{}

type SelectHistory struct {
	ID string
}

type ClearHistory struct{}

func (UploadImage) isEvent()   {}
func (SetPrompt) isEvent()     {}
func (Generate) isEvent()      {}
func (Back) isEvent()          {}
func (SelectHistory) isEvent() {}
func (ClearHistory) isEvent()  {}

type Config struct {
	Provider provider.Provider
	Quota    *quota.Tracker
	History  *history.Store

	// Cooldown overrides the default interval when positive.
	Cooldown time.Duration
}

// Controller holds the in-memory session state and coordinates the quota
// tracker, history store, and generation client. It is driven from a single
// goroutine; the busy flag guards against re-entrant generation.
type Controller struct {
	provider provider.Provider
	quota    *quota.Tracker
	history  *history.Store

	// Clock is overridable in tests.
	Clock func() time.Time

	cooldown      time.Duration
	step          Step
	image         models.ImagePayload
	prompt        string
	results       []models.GeneratedImage
	busy          bool
	lastGenerated time.Time
}

func New(cfg *Config) *Controller {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = Cooldown
	}
	return &Controller{
		provider: cfg.Provider,
		quota:    cfg.Quota,
		history:  cfg.History,
		Clock:    time.Now,
		cooldown: cooldown,
		step:     StepUpload,
	}
}

func (c *Controller) Step() Step                       { return c.step }
func (c *Controller) Image() models.ImagePayload       { return c.image }
func (c *Controller) Prompt() string                   { return c.prompt }
func (c *Controller) Results() []models.GeneratedImage { return c.results }
func (c *Controller) Busy() bool                       { return c.busy }

func (c *Controller) Remaining(ctx context.Context) (int, error) {
	return c.quota.Remaining(ctx)
}

func (c *Controller) Limit() int {
	return c.quota.Limit()
}

func (c *Controller) History(ctx context.Context) ([]history.Entry, error) {
	return c.history.Load(ctx)
}

// Dispatch applies one event to the state machine. A returned error means
// the triggering action failed; session state is only mutated as documented
// per event, and the loop that drives the controller stays alive.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case UploadImage:
		if ev.Image.IsZero() {
			return models.ErrNoImageData
		}
		c.image = ev.Image
		c.step = StepDescribe
		return nil

	case SetPrompt:
		c.prompt = ev.Text
		return nil

	case Generate:
		return c.generate(ctx, ev.Confirmed)

	case Back:
		switch c.step {
		case StepGenerate:
			c.step = StepDescribe
		case StepDescribe:
			c.step = StepUpload
		}
		return nil

	case SelectHistory:
		return c.selectHistory(ctx, ev.ID)

	case ClearHistory:
		return c.history.Clear(ctx)

	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

// generate runs the guarded Describe -> Generate transition. Guard order:
// quota, source image, cooldown, then redo confirmation. Each guard is a
// hard stop with no quota consumed; quota is only spent once a non-empty
// result is in hand.
func (c *Controller) generate(ctx context.Context, confirmed bool) error {
	if c.busy {
		return ErrBusy
	}

	remaining, err := c.quota.Remaining(ctx)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return ErrQuotaExhausted
	}

	if c.image.IsZero() {
		// Force navigation back to the upload step.
		c.step = StepUpload
		return ErrNoSourceImage
	}

	if !c.lastGenerated.IsZero() {
		elapsed := c.Clock().Sub(c.lastGenerated)
		if elapsed < c.cooldown {
			wait := int((c.cooldown - elapsed + time.Second - 1) / time.Second)
			return &CooldownError{Wait: wait}
		}
	}

	if c.step == StepGenerate && !confirmed {
		return &ConfirmRedoError{Remaining: remaining}
	}

	req := models.NewRequest(c.image, c.prompt)
	if err := req.Validate(); err != nil {
		return err
	}

	c.busy = true
	defer func() { c.busy = false }()

	resp, err := c.provider.Modify(ctx, req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if resp.Empty() {
		return ErrEmptyResult
	}

	if _, err := c.quota.Consume(ctx); err != nil {
		return err
	}
	c.lastGenerated = c.Clock()
	c.results = resp.Images
	c.step = StepGenerate

	entry := history.NewEntry(c.image, c.prompt, resp.Payloads())
	if err := c.history.Append(ctx, entry); err != nil {
		return err
	}
	return nil
}

// selectHistory loads a past run into the session and jumps straight to the
// result step. Viewing history bypasses quota and cooldown.
func (c *Controller) selectHistory(ctx context.Context, id string) error {
	entries, err := c.history.Load(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.ID != id {
			continue
		}
		c.image = entry.OriginalImage
		c.prompt = entry.Prompt
		c.results = make([]models.GeneratedImage, 0, len(entry.Results))
		for i, payload := range entry.Results {
			c.results = append(c.results, models.GeneratedImage{
				Data:     payload.Data,
				MimeType: payload.MimeType,
				Index:    i,
			})
		}
		c.step = StepGenerate
		return nil
	}

	return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}
