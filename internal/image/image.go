// Package image handles the file boundary: loading a user-selected source
// image and saving generated results with deterministic sequential names.
package image

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manash/picfour/pkg/models"
)

var ErrNotAnImage = errors.New("file is not a supported image")

// Loader reads a source file and sniffs its media type.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(path string) (models.ImagePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return models.ImagePayload{}, fmt.Errorf("%w: %s is empty", ErrNotAnImage, path)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return models.ImagePayload{}, fmt.Errorf("%w: %s detected as %s", ErrNotAnImage, path, mimeType)
	}

	return models.ImagePayload{Data: data, MimeType: mimeType}, nil
}

// Saver writes generated images to disk.
type Saver struct{}

func NewSaver() *Saver {
	return &Saver{}
}

func (s *Saver) Save(img *models.GeneratedImage, path string) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("no image data available")
	}

	if err := s.ensureDir(path); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	img.Filename = path
	return nil
}

// SaveAll writes every result into dir, one file per result, numbered by
// each result's variant index so a single save keeps its position.
func (s *Saver) SaveAll(results []models.GeneratedImage, dir string) ([]string, error) {
	now := time.Now()
	paths := make([]string, 0, len(results))

	for i := range results {
		path := filepath.Join(dir, GenerateFilename(results[i].Index, results[i].MimeType, now))
		if err := s.Save(&results[i], path); err != nil {
			return paths, fmt.Errorf("failed to save image %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (s *Saver) ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// GenerateFilename builds the deterministic sequential name for result
// index: picfour-<timestamp>-<n>.<ext>.
func GenerateFilename(index int, mimeType string, t time.Time) string {
	timestamp := t.Format("20060102-150405")
	return fmt.Sprintf("picfour-%s-%d.%s", timestamp, index+1, extForMime(mimeType))
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
