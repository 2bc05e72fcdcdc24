package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrNoImageData      = errors.New("image data is required")
	ErrUnsupportedMedia = errors.New("unsupported image media type")
)

type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
)

// ImagePayload is an encoded image together with its media type.
type ImagePayload struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

func (p ImagePayload) IsZero() bool {
	return len(p.Data) == 0
}

// Request asks the generation service for the four variants of one image.
type Request struct {
	Image  ImagePayload
	Prompt string
	Model  string
}

func NewRequest(img ImagePayload, prompt string) *Request {
	return &Request{
		Image:  img,
		Prompt: prompt,
	}
}

func (r *Request) Validate() error {
	if r.Image.IsZero() {
		return ErrNoImageData
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Image.MimeType != "" && !strings.HasPrefix(r.Image.MimeType, "image/") {
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, r.Image.MimeType)
	}
	return nil
}

// Response carries whatever images the service produced, in service order.
// A response with zero images is a valid outcome, not an error.
type Response struct {
	Images []GeneratedImage
}

func (r *Response) Empty() bool {
	return len(r.Images) == 0
}

// Payloads strips per-run metadata and returns the bare encoded images.
func (r *Response) Payloads() []ImagePayload {
	payloads := make([]ImagePayload, 0, len(r.Images))
	for _, img := range r.Images {
		payloads = append(payloads, ImagePayload{Data: img.Data, MimeType: img.MimeType})
	}
	return payloads
}

type GeneratedImage struct {
	Data     []byte
	MimeType string
	Index    int
	Filename string
}

// Variant identifies one of the four framings requested per generation.
// The value matches the position in the service response.
type Variant int

const (
	VariantBaseline Variant = iota
	VariantViewpoint
	VariantScene
	VariantCombined

	VariantCount = 4
)

func (v Variant) String() string {
	switch v {
	case VariantBaseline:
		return "baseline"
	case VariantViewpoint:
		return "viewpoint"
	case VariantScene:
		return "scene"
	case VariantCombined:
		return "combined"
	default:
		return fmt.Sprintf("variant-%d", int(v))
	}
}

// Caption is the human-readable label shown next to a result.
func (v Variant) Caption() string {
	switch v {
	case VariantBaseline:
		return "Edit only (original viewpoint)"
	case VariantViewpoint:
		return "Shifted viewpoint"
	case VariantScene:
		return "New scene (same viewpoint)"
	case VariantCombined:
		return "New viewpoint and scene"
	default:
		return "Extra result"
	}
}

// Framing is the instruction fragment sent to the service for this variant.
func (v Variant) Framing() string {
	switch v {
	case VariantBaseline:
		return "keep the camera viewpoint and composition exactly unchanged; apply only the requested modification and leave every other detail intact"
	case VariantViewpoint:
		return "apply the same modification, then shift the camera angle by 15-30 degrees with realistic perspective"
	case VariantScene:
		return "apply the same modification, then move the subject into a different but plausible background environment while keeping the original viewpoint"
	case VariantCombined:
		return "apply the same modification with both a new camera angle (different from the second image) and a new environment (different from the third image)"
	default:
		return ""
	}
}

// VariantFor maps a result index to its variant, clamping anything past the
// fourth result to VariantCombined.
func VariantFor(index int) Variant {
	if index < 0 {
		return VariantBaseline
	}
	if index >= VariantCount {
		return VariantCombined
	}
	return Variant(index)
}
