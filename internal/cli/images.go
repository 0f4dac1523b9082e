package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"zenith/internal/models"
)

// saveImages writes the slideshow as image-1.png, image-2.png, ... into dir
func (a *app) saveImages(dir string, images []models.Payload) error {
	paths, err := writeImages(dir, images)
	if err != nil {
		return fmt.Errorf("failed to save images: %w", err)
	}
	a.imagePaths = paths
	a.display.PrintImages(paths)
	return nil
}

func writeImages(dir string, images []models.Payload) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(images))
	for i, img := range images {
		raw, err := img.Bytes()
		if err != nil {
			return paths, fmt.Errorf("image %d: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("image-%d%s", i+1, imageExtension(img.MIMEType)))
		if err := os.WriteFile(path, raw, 0644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// imageExtension maps an image MIME type to a file extension
func imageExtension(mimeType string) string {
	mediaType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	switch mediaType {
	case "image/png", "":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		if sub, ok := strings.CutPrefix(mediaType, "image/"); ok && sub != "" {
			return "." + sub
		}
		return ".img"
	}
}
