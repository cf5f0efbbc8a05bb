// Package blog assembles a content-collection static blog engine: Markdown
// posts validated against a front matter schema, rendered through a theme
// into a static output tree.
package blog

import (
	"context"
	"fmt"

	"github.com/goliatone/go-blog/internal/collections"
	sitecmd "github.com/goliatone/go-blog/internal/commands/site"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/internal/server"
	"github.com/goliatone/go-blog/internal/site"
	"github.com/goliatone/go-blog/internal/theme"
	"github.com/goliatone/go-blog/internal/watch"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Exported service contracts for consumers of the blog package.
type (
	CollectionService = collections.Service
	SiteService       = site.Service
	Entry             = collections.Entry
	BuildOptions      = site.BuildOptions
	BuildResult       = site.BuildResult
	NewPostCommand    = sitecmd.NewPostCommand
)

// Module is the top level blog runtime facade.
type Module struct {
	cfg         Config
	provider    interfaces.LoggerProvider
	logger      interfaces.Logger
	collections *collections.Service
	theme       *theme.Theme
	site        *site.Service

	buildHandler *sitecmd.BuildSiteHandler
	cleanHandler *sitecmd.CleanSiteHandler
	postHandler  *sitecmd.NewPostHandler
}

// New wires the full engine from configuration: logging, markdown ingestion,
// the posts collection, theme resolution, template rendering, and the build
// pipeline.
func New(cfg Config) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Focus:     cfg.Logging.Focus,
	})
	if err != nil {
		return nil, fmt.Errorf("blog: configure logging: %w", err)
	}

	markdownSvc, err := markdown.NewService(markdown.Config{
		BasePath:  cfg.Content.Dir,
		Pattern:   cfg.Content.Pattern,
		Recursive: true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("blog: markdown service: %w", err)
	}

	posts := collections.Posts()
	collectionSvc, err := collections.NewService(collections.Config{
		Definitions: []collections.Definition{posts},
	}, markdownSvc, logging.CollectionsLogger(provider))
	if err != nil {
		return nil, fmt.Errorf("blog: collections: %w", err)
	}

	activeTheme, err := theme.Resolve(theme.Config{
		Path:    cfg.Theme.Path,
		Name:    cfg.Theme.Name,
		Variant: cfg.Theme.Variant,
	})
	if err != nil {
		return nil, fmt.Errorf("blog: theme: %w", err)
	}

	templates, err := activeTheme.Templates()
	if err != nil {
		return nil, fmt.Errorf("blog: theme templates: %w", err)
	}
	renderer, err := render.NewRenderer(templates)
	if err != nil {
		return nil, fmt.Errorf("blog: templates: %w", err)
	}

	buildLogger := logging.BuildLogger(provider)
	siteSvc, err := site.NewService(site.Config{
		OutputDir:       cfg.Build.OutputDir,
		BaseURL:         cfg.Site.BaseURL,
		CleanBuild:      cfg.Build.Clean,
		Incremental:     cfg.Build.Incremental,
		CopyAssets:      cfg.Build.CopyAssetsEnabled(),
		GenerateSitemap: cfg.Build.SitemapEnabled(),
		GenerateRobots:  cfg.Build.RobotsEnabled(),
		GenerateFeeds:   cfg.Build.FeedsEnabled(),
		Workers:         cfg.Build.Workers,
		Site: site.SiteMetadata{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			Author:      cfg.Site.Author,
			BaseURL:     cfg.Site.BaseURL,
			Metadata:    cfg.Site.Metadata,
		},
	}, site.Dependencies{
		Collections: collectionSvc,
		Renderer:    renderer,
		Theme:       activeTheme,
		Writer:      site.NewDiskWriter(cfg.Build.OutputDir),
		Logger:      buildLogger,
	})
	if err != nil {
		return nil, err
	}

	rootLogger := logging.ModuleLogger(provider, "blog")
	return &Module{
		cfg:          cfg,
		provider:     provider,
		logger:       rootLogger,
		collections:  collectionSvc,
		theme:        activeTheme,
		site:         siteSvc,
		buildHandler: sitecmd.NewBuildSiteHandler(siteSvc, buildLogger),
		cleanHandler: sitecmd.NewCleanSiteHandler(siteSvc, buildLogger),
		postHandler:  sitecmd.NewNewPostHandler(cfg.Content.Dir, rootLogger),
	}, nil
}

// Collections returns the configured collection service.
func (m *Module) Collections() *CollectionService {
	return m.collections
}

// Site returns the static build service.
func (m *Module) Site() *SiteService {
	return m.site
}

// Logger returns the root module logger.
func (m *Module) Logger() interfaces.Logger {
	return m.logger
}

// Build runs a full static build through the command pipeline.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	err := m.buildHandler.Execute(ctx, sitecmd.BuildSiteCommand{
		IncludeDrafts: opts.IncludeDrafts,
		DryRun:        opts.DryRun,
		ResultCallback: func(envelope sitecmd.ResultEnvelope) {
			result = envelope.Result
		},
	})
	return result, err
}

// Clean removes the build output tree.
func (m *Module) Clean(ctx context.Context) error {
	return m.cleanHandler.Execute(ctx, sitecmd.CleanSiteCommand{})
}

// NewPost scaffolds a Markdown post with schema-valid front matter.
func (m *Module) NewPost(ctx context.Context, cmd NewPostCommand) error {
	return m.postHandler.Execute(ctx, cmd)
}

// Serve runs the preview server until the context is cancelled.
func (m *Module) Serve(ctx context.Context) error {
	srv, err := server.New(server.Config{
		Addr: m.cfg.Server.Address(),
		Dir:  m.cfg.Build.OutputDir,
	}, server.WithLogger(logging.ServerLogger(m.provider)))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// Watch rebuilds on content changes until the context is cancelled. Draft
// entries are included so authors can preview work in progress.
func (m *Module) Watch(ctx context.Context) error {
	watcher, err := watch.New(watch.Config{
		Dirs: []string{m.cfg.Content.Dir},
	}, func(ctx context.Context) error {
		_, err := m.Build(ctx, BuildOptions{IncludeDrafts: true})
		return err
	}, watch.WithLogger(logging.WatchLogger(m.provider)))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
