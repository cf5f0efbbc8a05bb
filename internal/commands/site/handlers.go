package sitecmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/goliatone/go-blog/internal/collections"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/site"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// BuildSiteHandler executes static builds through the shared command foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided site service.
func NewBuildSiteHandler(service *site.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return fmt.Errorf("sitecmd: site service is not configured")
		}
		result, err := service.Build(ctx, site.BuildOptions{
			IncludeDrafts: msg.IncludeDrafts,
			DryRun:        msg.DryRun,
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.IncludeDrafts {
				fields["include_drafts"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute implements command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler removes the build output tree.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler wired to the provided site service.
func NewCleanSiteHandler(service *site.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, _ CleanSiteCommand) error {
		if service == nil {
			return fmt.Errorf("sitecmd: site service is not configured")
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("site.clean"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute implements command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// NewPostHandler scaffolds Markdown posts under the content directory.
type NewPostHandler struct {
	inner *commands.Handler[NewPostCommand]
}

// NewNewPostHandler constructs a handler that writes posts into contentDir.
func NewNewPostHandler(contentDir string, logger interfaces.Logger, opts ...commands.HandlerOption[NewPostCommand]) *NewPostHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg NewPostCommand) error {
		if strings.TrimSpace(contentDir) == "" {
			return fmt.Errorf("sitecmd: content directory is not configured")
		}
		path, err := scaffoldPost(contentDir, msg)
		if err != nil {
			return err
		}
		baseLogger.Info("post scaffolded", "path", path)
		return nil
	}

	handlerOpts := []commands.HandlerOption[NewPostCommand]{
		commands.WithLogger[NewPostCommand](baseLogger),
		commands.WithOperation[NewPostCommand]("content.new_post"),
		commands.WithMessageFields(func(msg NewPostCommand) map[string]any {
			return map[string]any{
				"title": msg.Title,
			}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &NewPostHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute implements command.Commander[NewPostCommand].
func (h *NewPostHandler) Execute(ctx context.Context, msg NewPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// postFrontMatter keeps the scaffolded keys in a stable, readable order.
type postFrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Date        string   `yaml:"date"`
	Draft       bool     `yaml:"draft"`
	Slug        string   `yaml:"slug,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty"`
}

func scaffoldPost(contentDir string, msg NewPostCommand) (string, error) {
	slugValue := strings.TrimSpace(msg.Slug)
	if slugValue == "" {
		normalized, err := collections.NormalizeSlug(msg.Title)
		if err != nil {
			return "", fmt.Errorf("sitecmd: derive slug from title: %w", err)
		}
		slugValue = normalized
	}

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	front := postFrontMatter{
		Title:       strings.TrimSpace(msg.Title),
		Description: strings.TrimSpace(msg.Description),
		Date:        date.Format("2006-01-02"),
		Draft:       msg.Draft,
		Slug:        slugValue,
		Tags:        msg.Tags,
		Author:      strings.TrimSpace(msg.Author),
	}
	encoded, err := yaml.Marshal(front)
	if err != nil {
		return "", fmt.Errorf("sitecmd: encode front matter: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("---\n")
	builder.Write(encoded)
	builder.WriteString("---\n\n")
	builder.WriteString("Write your post here.\n")

	dir := filepath.Join(contentDir, collections.PostsCollection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sitecmd: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, slugValue+".md")
	if !msg.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("sitecmd: %s already exists", path)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("sitecmd: stat %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		return "", fmt.Errorf("sitecmd: write %s: %w", path, err)
	}
	return path, nil
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
