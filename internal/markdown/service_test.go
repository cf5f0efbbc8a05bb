package markdown

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

func contentFS() fstest.MapFS {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return fstest.MapFS{
		"posts/first.md": &fstest.MapFile{
			Data:    []byte("---\ntitle: First\ndescription: first post\ndate: 2026-01-01\n---\nFirst body\n"),
			ModTime: now,
		},
		"posts/nested/second.md": &fstest.MapFile{
			Data:    []byte("---\ntitle: Second\ndescription: second post\ndate: 2026-01-02\n---\nSecond body\n"),
			ModTime: now,
		},
		"posts/notes.txt": &fstest.MapFile{
			Data:    []byte("not markdown"),
			ModTime: now,
		},
	}
}

func TestService_LoadDirectory(t *testing.T) {
	svc := NewServiceWithFS(Config{Pattern: "**/*.md", Recursive: true}, nil, contentFS())

	docs, err := svc.LoadDirectory(context.Background(), "posts", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].FilePath != "posts/first.md" {
		t.Fatalf("expected path-sorted documents, got %q first", docs[0].FilePath)
	}
	if !strings.Contains(string(docs[0].BodyHTML), "First body") {
		t.Fatalf("expected rendered HTML body, got %q", string(docs[0].BodyHTML))
	}
	if len(docs[0].Checksum) == 0 {
		t.Fatalf("expected checksum on loaded document")
	}
}

func TestService_LoadDirectory_NonRecursive(t *testing.T) {
	svc := NewServiceWithFS(Config{Pattern: "*.md", Recursive: true}, nil, contentFS())

	recursive := false
	docs, err := svc.LoadDirectory(context.Background(), "posts", interfaces.LoadOptions{
		Recursive: &recursive,
	})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "posts/first.md" {
		t.Fatalf("expected only the top-level document, got %#v", docs)
	}
}

func TestService_Load(t *testing.T) {
	svc := NewServiceWithFS(Config{}, nil, contentFS())

	doc, err := svc.Load(context.Background(), "posts/first.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.FrontMatter.Title != "First" {
		t.Fatalf("expected front matter title, got %q", doc.FrontMatter.Title)
	}
	if !strings.Contains(string(doc.BodyHTML), "<p>First body</p>") {
		t.Fatalf("expected rendered paragraph, got %q", string(doc.BodyHTML))
	}
}

func TestService_LoadDirectory_Cancelled(t *testing.T) {
	svc := NewServiceWithFS(Config{Pattern: "**/*.md", Recursive: true}, nil, contentFS())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.LoadDirectory(ctx, "posts", interfaces.LoadOptions{}); err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_SafeMode(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("<script>alert(1)</script>"), interfaces.ParseOptions{
		SafeMode: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Fatalf("expected raw HTML to be suppressed in safe mode, got %q", string(html))
	}
}
