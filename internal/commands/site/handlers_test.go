package sitecmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/internal/collections"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	command "github.com/goliatone/go-command"
)

var (
	_ command.Commander[BuildSiteCommand] = (*BuildSiteHandler)(nil)
	_ command.Commander[CleanSiteCommand] = (*CleanSiteHandler)(nil)
	_ command.Commander[NewPostCommand]   = (*NewPostHandler)(nil)
)

func TestNewPostCommand_Validate(t *testing.T) {
	valid := NewPostCommand{Title: "Hello", Description: "A post"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}

	cases := map[string]NewPostCommand{
		"missing title":       {Description: "d"},
		"missing description": {Title: "t"},
		"bad slug":            {Title: "t", Description: "d", Slug: "Not A Slug!"},
		"empty tag":           {Title: "t", Description: "d", Tags: []string{"ok", " "}},
	}
	for name, cmd := range cases {
		if err := cmd.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestNewPostHandler_ScaffoldsValidPost(t *testing.T) {
	contentDir := t.TempDir()
	handler := NewNewPostHandler(contentDir, logging.NoOp())

	err := handler.Execute(context.Background(), NewPostCommand{
		Title:       "My First Post",
		Description: "Testing the scaffold",
		Tags:        []string{"intro"},
		Author:      "Jane",
		Draft:       true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	path := filepath.Join(contentDir, "posts", "my-first-post.md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected scaffolded file: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		t.Fatalf("expected front matter delimiters, got %q", content)
	}
	if !strings.Contains(content, "title: My First Post") {
		t.Fatalf("expected title in front matter, got %q", content)
	}
	if !strings.Contains(content, "draft: true") {
		t.Fatalf("expected draft flag in front matter, got %q", content)
	}

	// The scaffolded document must pass the posts collection contract.
	mdSvc, err := markdown.NewService(markdown.Config{
		BasePath:  contentDir,
		Pattern:   "**/*.md",
		Recursive: true,
	}, nil)
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	colSvc, err := collections.NewService(collections.Config{
		Definitions: []collections.Definition{collections.Posts()},
	}, mdSvc, logging.NoOp())
	if err != nil {
		t.Fatalf("collections.NewService: %v", err)
	}
	include := true
	entries, err := colSvc.LoadCollection(context.Background(), collections.PostsCollection, collections.LoadOptions{
		IncludeDrafts: &include,
	})
	if err != nil {
		t.Fatalf("expected scaffolded post to validate, got %v", err)
	}
	if len(entries) != 1 || entries[0].Slug != "my-first-post" {
		t.Fatalf("unexpected entries %#v", entries)
	}
}

func TestNewPostHandler_RefusesOverwrite(t *testing.T) {
	contentDir := t.TempDir()
	handler := NewNewPostHandler(contentDir, logging.NoOp())

	cmd := NewPostCommand{Title: "Same Post", Description: "d"}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if err := handler.Execute(context.Background(), cmd); err == nil {
		t.Fatalf("expected error when the file already exists")
	}

	cmd.Overwrite = true
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("expected overwrite to succeed, got %v", err)
	}
}

func TestNewPostHandler_RejectsInvalidMessage(t *testing.T) {
	handler := NewNewPostHandler(t.TempDir(), logging.NoOp())
	if err := handler.Execute(context.Background(), NewPostCommand{}); err == nil {
		t.Fatalf("expected validation failure for empty command")
	}
}
