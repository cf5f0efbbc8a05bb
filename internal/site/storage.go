package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryListing  writeCategory = "listing"
	categoryAsset    writeCategory = "asset"
	categoryFeed     writeCategory = "feed"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write operation routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    writeCategory
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// ArtifactWriter abstracts output persistence for build artifacts so tests and
// alternative backends can capture writes without touching the host disk.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	RemoveAll(ctx context.Context, path string) error
}

// NewDiskWriter returns an artifact writer rooted at the provided directory.
func NewDiskWriter(root string) ArtifactWriter {
	return &diskWriter{root: filepath.Clean(strings.TrimSpace(root))}
}

type diskWriter struct {
	root string
}

func (w *diskWriter) resolve(path string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if cleaned == "" || cleaned == "." {
		return w.root, nil
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("site: artifact path %q escapes output root", path)
	}
	if w.root == "" || w.root == "." {
		return cleaned, nil
	}
	return filepath.Join(w.root, cleaned), nil
}

func (w *diskWriter) EnsureDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := w.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (w *diskWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("site: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("site: write requires path")
	}
	target, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("site: create %s: %w", req.Path, err)
	}
	if _, err := io.Copy(file, req.Content); err != nil {
		file.Close()
		return fmt.Errorf("site: write %s: %w", req.Path, err)
	}
	return file.Close()
}

func (w *diskWriter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("site: read %s: %w", path, err)
	}
	return data, nil
}

func (w *diskWriter) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := w.resolve(path)
	if err != nil {
		return err
	}
	return os.RemoveAll(target)
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff", "woff2":
		return "font/" + ext
	default:
		return "application/octet-stream"
	}
}
