package theme

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_EmbeddedDefault(t *testing.T) {
	resolved, err := Resolve(Config{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Name != DefaultName {
		t.Fatalf("expected default theme name, got %q", resolved.Name)
	}
	if resolved.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected deterministic theme ID")
	}

	templates, err := resolved.Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	for _, name := range []string{"post.html", "index.html", "tag.html"} {
		if _, err := fs.Stat(templates, name); err != nil {
			t.Fatalf("expected embedded template %s: %v", name, err)
		}
	}
}

func TestResolve_EmbeddedAssets(t *testing.T) {
	resolved, err := Resolve(Config{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	assets, err := resolved.Assets()
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if len(assets) == 0 {
		t.Fatalf("expected the default theme to carry assets")
	}

	file, err := resolved.Open(assets[0])
	if err != nil {
		t.Fatalf("Open(%s): %v", assets[0], err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		t.Fatalf("expected asset content, err=%v", err)
	}
}

func TestResolve_DirectoryTheme(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "templates", "post.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	resolved, err := Resolve(Config{Path: dir})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Name != filepath.Base(dir) {
		t.Fatalf("expected theme named after its directory, got %q", resolved.Name)
	}

	templates, err := resolved.Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if _, err := fs.Stat(templates, "post.html"); err != nil {
		t.Fatalf("expected directory template: %v", err)
	}

	// A theme without assets is fine.
	assets, err := resolved.Assets()
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("expected no assets, got %v", assets)
	}
}

func TestResolve_MissingDirectory(t *testing.T) {
	if _, err := Resolve(Config{Path: "/nonexistent/theme/dir"}); err == nil {
		t.Fatalf("expected error for missing theme directory")
	}
}
