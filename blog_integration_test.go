package blog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/collections"
)

func writePost(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, "posts", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write post: %v", err)
	}
}

func testConfig(t *testing.T) blog.Config {
	t.Helper()
	cfg := blog.DefaultConfig()
	cfg.Site.Title = "Test Blog"
	cfg.Site.Description = "Integration fixture"
	cfg.Site.BaseURL = "https://test.example.com"
	cfg.Content.Dir = filepath.Join(t.TempDir(), "content")
	cfg.Build.OutputDir = filepath.Join(t.TempDir(), "dist")
	if err := os.MkdirAll(filepath.Join(cfg.Content.Dir, "posts"), 0o755); err != nil {
		t.Fatalf("mkdir content: %v", err)
	}
	return cfg
}

func readOutput(t *testing.T, cfg blog.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read output %s: %v", rel, err)
	}
	return string(data)
}

func TestModule_BuildEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg.Content.Dir, "hello-world.md",
		"---\ntitle: Hello World\ndescription: The first post\ndate: 2026-01-15\ntags:\n  - intro\n---\n# Hello\n\nFirst **post** body.\n")
	writePost(t, cfg.Content.Dir, "draft-post.md",
		"---\ntitle: Draft\ndescription: Not ready\ndate: 2026-01-20\ndraft: true\n---\nWIP\n")

	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}

	result, err := module.Build(context.Background(), blog.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result == nil || result.Entries != 1 {
		t.Fatalf("expected one published entry, got %#v", result)
	}

	post := readOutput(t, cfg, "hello-world/index.html")
	if !strings.Contains(post, "Hello World") {
		t.Fatalf("expected post title in page, got %q", post)
	}
	if !strings.Contains(post, "<strong>post</strong>") {
		t.Fatalf("expected rendered markdown body, got %q", post)
	}

	index := readOutput(t, cfg, "index.html")
	if !strings.Contains(index, "Test Blog") || !strings.Contains(index, "Hello World") {
		t.Fatalf("expected index listing, got %q", index)
	}
	if strings.Contains(index, "Draft") {
		t.Fatalf("expected draft to be excluded from the index")
	}

	tagPage := readOutput(t, cfg, "tags/intro/index.html")
	if !strings.Contains(tagPage, "Hello World") {
		t.Fatalf("expected tag page listing, got %q", tagPage)
	}

	feed := readOutput(t, cfg, "feed.xml")
	if !strings.Contains(feed, "https://test.example.com/hello-world") {
		t.Fatalf("expected feed item link, got %q", feed)
	}

	sitemap := readOutput(t, cfg, "sitemap.xml")
	if !strings.Contains(sitemap, "<loc>https://test.example.com/hello-world</loc>") {
		t.Fatalf("expected sitemap entry, got %q", sitemap)
	}

	if _, err := os.Stat(filepath.Join(cfg.Build.OutputDir, "assets", "css", "site.css")); err != nil {
		t.Fatalf("expected theme asset to be copied: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Build.OutputDir, "draft-post")); !os.IsNotExist(err) {
		t.Fatalf("expected draft page to be absent, err=%v", err)
	}
}

func TestModule_BuildRejectsInvalidFrontMatter(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg.Content.Dir, "broken.md",
		"---\ntitle: Broken\ndate: whenever\n---\nbody\n")

	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}

	_, err = module.Build(context.Background(), blog.BuildOptions{})
	if err == nil {
		t.Fatalf("expected build to fail for invalid front matter")
	}
	var entryErr *collections.EntryValidationError
	if !errors.As(err, &entryErr) {
		t.Fatalf("expected EntryValidationError, got %v", err)
	}
	if !strings.HasSuffix(entryErr.FilePath, "broken.md") {
		t.Fatalf("expected error to name the offending file, got %q", entryErr.FilePath)
	}
}

func TestModule_NewPostThenBuild(t *testing.T) {
	cfg := testConfig(t)

	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}

	ctx := context.Background()
	if err := module.NewPost(ctx, blog.NewPostCommand{
		Title:       "Scaffolded Post",
		Description: "From the scaffold",
		Tags:        []string{"meta"},
	}); err != nil {
		t.Fatalf("NewPost: %v", err)
	}

	result, err := module.Build(ctx, blog.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Entries != 1 {
		t.Fatalf("expected the scaffolded post to build, got %d entries", result.Entries)
	}
	page := readOutput(t, cfg, "scaffolded-post/index.html")
	if !strings.Contains(page, "Scaffolded Post") {
		t.Fatalf("expected scaffolded post page, got %q", page)
	}
}

func TestModule_Clean(t *testing.T) {
	cfg := testConfig(t)
	writePost(t, cfg.Content.Dir, "hello.md",
		"---\ntitle: Hello\ndescription: d\ndate: 2026-01-15\n---\nbody\n")

	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}
	ctx := context.Background()
	if _, err := module.Build(ctx, blog.BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := module.Clean(ctx); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Build.OutputDir, "index.html")); !os.IsNotExist(err) {
		t.Fatalf("expected output to be removed, err=%v", err)
	}
}

func TestModule_CollectionsAccessor(t *testing.T) {
	cfg := testConfig(t)
	module, err := blog.New(cfg)
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}

	names := module.Collections().Names()
	if len(names) != 1 || names[0] != collections.PostsCollection {
		t.Fatalf("expected the posts collection, got %v", names)
	}

	if _, err := module.Collections().LoadCollection(context.Background(), "pages", collections.LoadOptions{}); !errors.Is(err, collections.ErrCollectionUnknown) {
		t.Fatalf("expected ErrCollectionUnknown, got %v", err)
	}
}
