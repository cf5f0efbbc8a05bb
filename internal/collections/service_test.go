package collections

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

func newTestService(t *testing.T, files map[string]string, cfg Config) *Service {
	t.Helper()

	mapFS := fstest.MapFS{}
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for path, content := range files {
		mapFS[path] = &fstest.MapFile{Data: []byte(content), ModTime: now}
	}

	markdownSvc := markdown.NewServiceWithFS(markdown.Config{
		Pattern:   "**/*.md",
		Recursive: true,
	}, nil, mapFS)

	if len(cfg.Definitions) == 0 {
		cfg.Definitions = []Definition{Posts()}
	}
	svc, err := NewService(cfg, markdownSvc, logging.NoOp())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func loadPosts(t *testing.T, svc *Service, opts LoadOptions) []*Entry {
	t.Helper()
	entries, err := svc.LoadCollection(context.Background(), PostsCollection, opts)
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	return entries
}

func TestLoadCollection_ValidEntry(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/hello.md": "---\ntitle: Hello\ndescription: First post\ndate: 2026-01-15\ntags:\n  - intro\n---\nHello **world**\n",
	}, Config{})

	entries := loadPosts(t, svc, LoadOptions{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Title != "Hello" || entry.Description != "First post" {
		t.Fatalf("unexpected entry metadata: %#v", entry)
	}
	if entry.Slug != "hello" {
		t.Fatalf("expected slug derived from filename, got %q", entry.Slug)
	}
	if entry.Route != "/hello" {
		t.Fatalf("expected route /hello, got %q", entry.Route)
	}
	if entry.Draft {
		t.Fatalf("expected absent draft to default to false")
	}
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !entry.Date.Equal(want) {
		t.Fatalf("expected date %v, got %v", want, entry.Date)
	}
	if !strings.Contains(string(entry.BodyHTML), "<strong>world</strong>") {
		t.Fatalf("expected rendered body, got %q", string(entry.BodyHTML))
	}
	if entry.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected deterministic non-nil entry ID")
	}
}

func TestLoadCollection_MissingRequiredField(t *testing.T) {
	for field, content := range map[string]string{
		"title":       "---\ndescription: No title\ndate: 2026-01-15\n---\nbody\n",
		"description": "---\ntitle: No description\ndate: 2026-01-15\n---\nbody\n",
		"date":        "---\ntitle: No date\ndescription: nope\n---\nbody\n",
	} {
		svc := newTestService(t, map[string]string{"posts/bad.md": content}, Config{})

		_, err := svc.LoadCollection(context.Background(), PostsCollection, LoadOptions{})
		if err == nil {
			t.Fatalf("expected load to fail when %s is missing", field)
		}
		if !errors.Is(err, ErrEntryInvalid) {
			t.Fatalf("expected ErrEntryInvalid for missing %s, got %v", field, err)
		}

		var entryErr *EntryValidationError
		if !errors.As(err, &entryErr) {
			t.Fatalf("expected EntryValidationError, got %T", err)
		}
		if entryErr.FilePath != "posts/bad.md" {
			t.Fatalf("expected error to name the file, got %q", entryErr.FilePath)
		}
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected error to name field %s, got %q", field, err.Error())
		}
	}
}

func TestLoadCollection_UnparseableDate(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/bad-date.md": "---\ntitle: Bad\ndescription: bad date\ndate: sometime soon\n---\nbody\n",
	}, Config{})

	_, err := svc.LoadCollection(context.Background(), PostsCollection, LoadOptions{})
	if err == nil {
		t.Fatalf("expected load to fail for an unparseable date")
	}

	var entryErr *EntryValidationError
	if !errors.As(err, &entryErr) {
		t.Fatalf("expected EntryValidationError, got %T: %v", err, err)
	}
	if len(entryErr.Issues) == 0 || entryErr.Issues[0].Location != "/date" {
		t.Fatalf("expected an issue at /date, got %#v", entryErr.Issues)
	}
}

func TestLoadCollection_DraftHandling(t *testing.T) {
	files := map[string]string{
		"posts/published.md": "---\ntitle: Published\ndescription: live\ndate: 2026-01-10\n---\nbody\n",
		"posts/draft.md":     "---\ntitle: Draft\ndescription: wip\ndate: 2026-01-20\ndraft: true\n---\nbody\n",
	}

	svc := newTestService(t, files, Config{})
	entries := loadPosts(t, svc, LoadOptions{})
	if len(entries) != 1 || entries[0].Slug != "published" {
		t.Fatalf("expected drafts to be excluded by default, got %#v", entries)
	}

	include := true
	entries = loadPosts(t, svc, LoadOptions{IncludeDrafts: &include})
	if len(entries) != 2 {
		t.Fatalf("expected drafts to be included on request, got %d entries", len(entries))
	}
	for _, entry := range entries {
		if entry.Slug == "draft" && !entry.Draft {
			t.Fatalf("expected draft entry to carry Draft=true")
		}
	}
}

func TestLoadCollection_ExplicitDraftFalse(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/explicit.md": "---\ntitle: Explicit\ndescription: explicit false\ndate: 2026-01-10\ndraft: false\n---\nbody\n",
	}, Config{})

	entries := loadPosts(t, svc, LoadOptions{})
	if len(entries) != 1 || entries[0].Draft {
		t.Fatalf("expected explicit draft=false entry to load, got %#v", entries)
	}
}

func TestLoadCollection_EmptyCollection(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/.gitkeep": "",
	}, Config{})

	entries := loadPosts(t, svc, LoadOptions{})
	if len(entries) != 0 {
		t.Fatalf("expected an empty collection to be valid, got %d entries", len(entries))
	}
}

func TestLoadCollection_SlugConflict(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/one.md": "---\ntitle: One\ndescription: first\ndate: 2026-01-01\nslug: same\n---\nbody\n",
		"posts/two.md": "---\ntitle: Two\ndescription: second\ndate: 2026-01-02\nslug: same\n---\nbody\n",
	}, Config{})

	_, err := svc.LoadCollection(context.Background(), PostsCollection, LoadOptions{})
	if !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	var conflict *SlugConflictError
	if !errors.As(err, &conflict) || conflict.Slug != "same" {
		t.Fatalf("expected conflict on slug %q, got %#v", "same", conflict)
	}
}

func TestLoadCollection_Ordering(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"posts/older.md":  "---\ntitle: Older\ndescription: d\ndate: 2026-01-01\n---\nbody\n",
		"posts/newest.md": "---\ntitle: Newest\ndescription: d\ndate: 2026-03-01\n---\nbody\n",
		"posts/b-tied.md": "---\ntitle: Tied B\ndescription: d\ndate: 2026-02-01\n---\nbody\n",
		"posts/a-tied.md": "---\ntitle: Tied A\ndescription: d\ndate: 2026-02-01\n---\nbody\n",
	}, Config{})

	entries := loadPosts(t, svc, LoadOptions{})
	got := make([]string, 0, len(entries))
	for _, entry := range entries {
		got = append(got, entry.Slug)
	}
	want := []string{"newest", "a-tied", "b-tied", "older"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestLoadCollection_RoutePrefix(t *testing.T) {
	def := Posts()
	def.RoutePrefix = "blog"
	svc := newTestService(t, map[string]string{
		"posts/hello.md": "---\ntitle: Hello\ndescription: d\ndate: 2026-01-01\n---\nbody\n",
	}, Config{Definitions: []Definition{def}})

	entries := loadPosts(t, svc, LoadOptions{})
	if entries[0].Route != "/blog/hello" {
		t.Fatalf("expected prefixed route, got %q", entries[0].Route)
	}
}

func TestNewService_DuplicateDefinition(t *testing.T) {
	mapFS := fstest.MapFS{}
	markdownSvc := markdown.NewServiceWithFS(markdown.Config{}, nil, mapFS)

	_, err := NewService(Config{
		Definitions: []Definition{Posts(), Posts()},
	}, markdownSvc, logging.NoOp())
	if !errors.Is(err, ErrCollectionDuplicate) {
		t.Fatalf("expected ErrCollectionDuplicate, got %v", err)
	}
}

func TestLoadCollection_Unknown(t *testing.T) {
	svc := newTestService(t, map[string]string{}, Config{})
	if _, err := svc.LoadCollection(context.Background(), "pages", LoadOptions{}); !errors.Is(err, ErrCollectionUnknown) {
		t.Fatalf("expected ErrCollectionUnknown, got %v", err)
	}
}

func TestGroupByTag(t *testing.T) {
	entries := []*Entry{
		{Slug: "a", Tags: []string{"CMake", "ci"}},
		{Slug: "b", Tags: []string{"cmake"}},
		{Slug: "c", Tags: []string{"ci"}},
	}
	grouped := GroupByTag(entries)
	if len(grouped) != 2 {
		t.Fatalf("expected case-insensitive grouping into 2 tags, got %d: %#v", len(grouped), grouped)
	}
	if len(grouped["CMake"]) != 2 {
		t.Fatalf("expected both cmake posts under the first-seen casing, got %#v", grouped)
	}
	if len(grouped["ci"]) != 2 {
		t.Fatalf("expected 2 ci posts, got %#v", grouped)
	}
}

var _ interfaces.MarkdownService = (*markdown.Service)(nil)
