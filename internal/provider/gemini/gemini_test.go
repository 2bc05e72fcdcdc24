package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/manash/picfour/internal/provider"
	"github.com/manash/picfour/pkg/models"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New(&provider.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func testRequest() *models.Request {
	return models.NewRequest(
		models.ImagePayload{Data: []byte("source-image"), MimeType: "image/png"},
		"make the sky orange",
	)
}

func inlinePart(data string) map[string]interface{} {
	return map[string]interface{}{
		"inlineData": map[string]interface{}{
			"mimeType": "image/png",
			"data":     base64.StdEncoding.EncodeToString([]byte(data)),
		},
	}
}

func writeCandidates(w http.ResponseWriter, parts ...map[string]interface{}) {
	resp := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{"parts": parts},
			},
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(&provider.Config{})
	if !errors.Is(err, provider.ErrAPIKeyRequired) {
		t.Errorf("New() error = %v, want ErrAPIKeyRequired", err)
	}
}

func TestModify_FourImages(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/models/gemini-2.5-flash-image:generateContent"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q, want %q", got, "test-key")
		}

		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("request shape = %+v, want 1 content with 2 parts", req)
		}

		img := req.Contents[0].Parts[0].InlineData
		if img == nil {
			t.Fatal("first part has no inline data")
		}
		if img.MimeType != "image/png" {
			t.Errorf("inline mimeType = %q, want image/png", img.MimeType)
		}
		decoded, _ := base64.StdEncoding.DecodeString(img.Data)
		if string(decoded) != "source-image" {
			t.Errorf("inline data = %q, want %q", decoded, "source-image")
		}

		text := req.Contents[0].Parts[1].Text
		if !strings.Contains(text, `"make the sky orange"`) {
			t.Errorf("instruction does not quote the user prompt:\n%s", text)
		}

		writeCandidates(w,
			inlinePart("img-1"),
			map[string]interface{}{"text": "here are your variants"},
			inlinePart("img-2"),
			inlinePart("img-3"),
			inlinePart("img-4"),
		)
	})

	resp, err := p.Modify(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Modify() error = %v", err)
	}

	if len(resp.Images) != 4 {
		t.Fatalf("Modify() returned %d images, want 4", len(resp.Images))
	}
	for i, img := range resp.Images {
		want := fmt.Sprintf("img-%d", i+1)
		if string(img.Data) != want {
			t.Errorf("Images[%d].Data = %q, want %q", i, img.Data, want)
		}
		if img.Index != i {
			t.Errorf("Images[%d].Index = %d, want %d", i, img.Index, i)
		}
		if img.MimeType != "image/png" {
			t.Errorf("Images[%d].MimeType = %q, want image/png", i, img.MimeType)
		}
	}
}

func TestModify_ModelOverride(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/custom-model:generateContent" {
			t.Errorf("path = %q, want custom model path", r.URL.Path)
		}
		writeCandidates(w, inlinePart("x"))
	})

	req := testRequest()
	req.Model = "custom-model"
	if _, err := p.Modify(context.Background(), req); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
}

func TestModify_EmptyResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "text parts only",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeCandidates(w, map[string]interface{}{"text": "sorry, nothing"})
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"candidates":[]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProvider(t, tt.handler)

			resp, err := p.Modify(context.Background(), testRequest())
			if err != nil {
				t.Fatalf("Modify() error = %v, zero images is not an error", err)
			}
			if !resp.Empty() {
				t.Errorf("Empty() = false, want true")
			}
		})
	}
}

func TestModify_APIError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"prompt was blocked","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := p.Modify(context.Background(), testRequest())
	if !errors.Is(err, provider.ErrGenerationFailed) {
		t.Fatalf("Modify() error = %v, want ErrGenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "prompt was blocked") {
		t.Errorf("error %q does not carry the service message", err)
	}
}

func TestModify_UnexpectedStatus(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{}`)
	})

	_, err := p.Modify(context.Background(), testRequest())
	if !errors.Is(err, provider.ErrGenerationFailed) {
		t.Errorf("Modify() error = %v, want ErrGenerationFailed", err)
	}
}

func TestModify_ValidatesBeforeSending(t *testing.T) {
	p := testProvider(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request sent despite invalid input")
	})

	req := models.NewRequest(models.ImagePayload{Data: []byte("x"), MimeType: "image/png"}, "  ")
	if _, err := p.Modify(context.Background(), req); !errors.Is(err, models.ErrEmptyPrompt) {
		t.Errorf("Modify() error = %v, want ErrEmptyPrompt", err)
	}

	req = models.NewRequest(models.ImagePayload{}, "prompt")
	if _, err := p.Modify(context.Background(), req); !errors.Is(err, models.ErrNoImageData) {
		t.Errorf("Modify() error = %v, want ErrNoImageData", err)
	}
}

func TestComposeInstruction(t *testing.T) {
	got := ComposeInstruction("replace the car with a bicycle")

	if !strings.Contains(got, `"replace the car with a bicycle"`) {
		t.Error("instruction does not quote the user prompt")
	}
	for i := 1; i <= 4; i++ {
		if !strings.Contains(got, fmt.Sprintf("Image %d", i)) {
			t.Errorf("instruction missing framing for image %d", i)
		}
	}
	if !strings.Contains(got, "photograph") {
		t.Error("instruction missing the photographic realism constraint")
	}
}
