package provider

import (
	"context"
	"errors"

	"github.com/manash/picfour/pkg/models"
)

var (
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrGenerationFailed = errors.New("image generation failed")
)

// Provider is the outbound boundary to a hosted image modification service.
// Modify is a single best-effort attempt; no retries, no backoff.
type Provider interface {
	Name() models.ProviderType
	Modify(ctx context.Context, req *models.Request) (*models.Response, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TimeoutSec int
	Verbose    bool
}
