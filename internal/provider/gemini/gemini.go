// Package gemini calls the Gemini generateContent API to produce the four
// photographic variants of a source image.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manash/picfour/internal/provider"
	"github.com/manash/picfour/pkg/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image"
	defaultTimeout = 120 * time.Second
)

type apiRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	verbose    bool
}

func New(cfg *provider.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		verbose: cfg.Verbose,
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderGemini
}

// Modify sends the source image and the composed four-variant instruction in
// one request and returns whatever inline images come back, in response
// order. Zero extractable images is an empty response, not an error.
func (p *Provider) Modify(ctx context.Context, req *models.Request) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	mimeType := req.Image.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	apiReq := &apiRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
				}},
				{Text: ComposeInstruction(req.Prompt)},
			},
		}},
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	p.logRequest(http.MethodPost, url, httpReq.Header, jsonData)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	p.logResponse(resp.StatusCode, body)

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", provider.ErrGenerationFailed, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", provider.ErrGenerationFailed, resp.StatusCode)
	}

	return p.buildResponse(apiResp)
}

func (p *Provider) buildResponse(apiResp apiResponse) (*models.Response, error) {
	response := &models.Response{}

	if len(apiResp.Candidates) == 0 {
		return response, nil
	}

	for _, prt := range apiResp.Candidates[0].Content.Parts {
		if prt.InlineData == nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(prt.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", len(response.Images), err)
		}
		response.Images = append(response.Images, models.GeneratedImage{
			Data:     decoded,
			MimeType: prt.InlineData.MimeType,
			Index:    len(response.Images),
		})
	}

	return response, nil
}

// ComposeInstruction wraps the user's instruction with the four framing
// rules: unchanged viewpoint, shifted viewpoint, replaced scene, and the
// combination, all constrained to photographic realism.
func ComposeInstruction(userPrompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User instruction: %q\n\n", userPrompt)
	b.WriteString("Generate four realistic 16:9 photographs in a single response:\n\n")

	for i := 0; i < models.VariantCount; i++ {
		v := models.Variant(i)
		fmt.Fprintf(&b, "Image %d (%s): %s.\n", i+1, v, v.Framing())
	}

	b.WriteString("\nHard constraint: every image must look like a real photograph with natural light. No illustration, concept art, or digital painting.")

	return b.String()
}
