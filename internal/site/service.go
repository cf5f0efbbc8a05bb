package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blog/internal/collections"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/theme"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	defaultWorkers = 4

	templatePost  = "post"
	templateIndex = "index"
	templateTag   = "tag"
)

// Config controls build output and generation toggles.
type Config struct {
	OutputDir       string
	BaseURL         string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	Site            SiteMetadata
}

// Dependencies carries the collaborators a build needs.
type Dependencies struct {
	Collections *collections.Service
	Renderer    interfaces.TemplateRenderer
	Theme       *theme.Theme
	Writer      ArtifactWriter
	Logger      interfaces.Logger
}

// BuildOptions are per-invocation overrides.
type BuildOptions struct {
	// IncludeDrafts renders draft entries, used by preview servers.
	IncludeDrafts bool
	// DryRun renders everything but persists nothing.
	DryRun bool
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	GeneratedAt   time.Time
	Duration      time.Duration
	Entries       int
	Pages         []RenderedPage
	Diagnostics   []RenderDiagnostic
	PagesWritten  int
	PagesSkipped  int
	AssetsCopied  int
	AssetsSkipped int
	SitemapPath   string
	FeedPaths     []string
}

// Service renders collections through the active theme into static artifacts.
type Service struct {
	cfg      Config
	deps     Dependencies
	logger   interfaces.Logger
	manifest *buildManifest
	mu       sync.Mutex
}

// NewService wires a build service. Collections, renderer, theme, and writer
// are all required.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	if deps.Collections == nil {
		return nil, fmt.Errorf("site: collections service is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("site: template renderer is required")
	}
	if deps.Theme == nil {
		return nil, fmt.Errorf("site: theme is required")
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("site: artifact writer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}, nil
}

// Build loads every collection, renders all pages, and persists the output
// tree. A single invalid entry aborts the whole build.
func (s *Service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	result := &BuildResult{GeneratedAt: started.UTC()}

	manifest, err := s.loadManifest(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.manifest = manifest

	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.deps.Writer.RemoveAll(ctx, "."); err != nil {
			return nil, fmt.Errorf("site: clean output: %w", err)
		}
		s.manifest = newBuildManifest()
	}

	includeDrafts := opts.IncludeDrafts
	loaded, err := s.deps.Collections.LoadAll(ctx, collections.LoadOptions{
		IncludeDrafts: &includeDrafts,
	})
	if err != nil {
		return nil, err
	}

	var entries []*collections.Entry
	for _, name := range s.deps.Collections.Names() {
		entries = append(entries, loaded[name]...)
	}
	result.Entries = len(entries)

	buildMeta := BuildMetadata{GeneratedAt: result.GeneratedAt, Options: opts}
	siteCtx := s.siteMetadata()

	pages, diagnostics, err := s.renderEntries(ctx, entries, siteCtx, buildMeta)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = diagnostics

	listingPages, err := s.renderListings(ctx, loaded, siteCtx, buildMeta)
	if err != nil {
		return nil, err
	}
	pages = append(pages, listingPages...)
	result.Pages = pages

	if !opts.DryRun {
		written, skipped, err := s.persistPages(ctx, pages)
		if err != nil {
			return nil, err
		}
		result.PagesWritten = written
		result.PagesSkipped = skipped

		if s.cfg.CopyAssets {
			copied, skippedAssets, err := s.copyAssets(ctx)
			if err != nil {
				return nil, err
			}
			result.AssetsCopied = copied
			result.AssetsSkipped = skippedAssets
		}
		if s.cfg.GenerateFeeds {
			feedPaths, err := s.writeFeeds(ctx, entries, siteCtx, result.GeneratedAt)
			if err != nil {
				return nil, err
			}
			result.FeedPaths = feedPaths
		}
		if s.cfg.GenerateSitemap {
			if err := s.writeSitemap(ctx, pages, result.GeneratedAt); err != nil {
				return nil, err
			}
			result.SitemapPath = "sitemap.xml"
		}
		if s.cfg.GenerateRobots {
			if err := s.writeRobots(ctx); err != nil {
				return nil, err
			}
		}
		if err := s.persistManifest(ctx, result.GeneratedAt); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(started)
	s.logger.Info("build complete",
		"entries", result.Entries,
		"pages_written", result.PagesWritten,
		"pages_skipped", result.PagesSkipped,
		"assets_copied", result.AssetsCopied,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// Clean removes the output tree, manifest included.
func (s *Service) Clean(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = newBuildManifest()
	if err := s.deps.Writer.RemoveAll(ctx, "."); err != nil {
		return fmt.Errorf("site: clean output: %w", err)
	}
	s.logger.Info("output cleaned", "dir", s.cfg.OutputDir)
	return nil
}

func (s *Service) siteMetadata() SiteMetadata {
	meta := s.cfg.Site
	meta.BaseURL = baseURLWithFallback(firstNonEmpty(meta.BaseURL, s.cfg.BaseURL))
	return meta
}

func (s *Service) loadManifest(ctx context.Context, opts BuildOptions) (*buildManifest, error) {
	if !s.cfg.Incremental || s.cfg.CleanBuild || opts.DryRun {
		return newBuildManifest(), nil
	}
	data, err := s.deps.Writer.ReadFile(ctx, manifestFileName)
	if err != nil {
		return nil, err
	}
	manifest, err := parseManifest(data)
	if err != nil {
		s.logger.Warn("discarding unreadable build manifest", "error", err)
		return newBuildManifest(), nil
	}
	return manifest, nil
}

func (s *Service) renderEntries(ctx context.Context, entries []*collections.Entry, siteCtx SiteMetadata, buildMeta BuildMetadata) ([]RenderedPage, []RenderDiagnostic, error) {
	if len(entries) == 0 {
		return nil, nil, nil
	}

	workers := s.cfg.Workers
	if workers > len(entries) {
		workers = len(entries)
	}

	jobs := make(chan *collections.Entry)
	outcomes := make(chan renderOutcome, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				outcomes <- s.renderEntry(entry, siteCtx, buildMeta)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case <-ctx.Done():
				return
			case jobs <- entry:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		pages       []RenderedPage
		diagnostics []RenderDiagnostic
		firstErr    error
	)
	for outcome := range outcomes {
		diagnostics = append(diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		pages = append(pages, outcome.page)
	}
	if firstErr != nil {
		return nil, diagnostics, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, diagnostics, err
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Route < pages[j].Route
	})
	return pages, diagnostics, nil
}

func (s *Service) renderEntry(entry *collections.Entry, siteCtx SiteMetadata, buildMeta BuildMetadata) renderOutcome {
	started := time.Now()
	diag := RenderDiagnostic{
		EntryID:  entry.ID,
		Route:    entry.Route,
		Template: templatePost,
	}

	output := buildOutputPath(entry.Route)
	checksum := hex.EncodeToString(entry.Checksum)
	if s.cfg.Incremental && s.manifest.shouldSkipPage(entry.Collection, entry.Slug, checksum, output) {
		diag.Skipped = true
		diag.Duration = time.Since(started)
		cached, _ := s.manifest.lookupPage(entry.Collection, entry.Slug)
		return renderOutcome{
			page: RenderedPage{
				EntryID:      entry.ID,
				Collection:   entry.Collection,
				Slug:         entry.Slug,
				Route:        entry.Route,
				Output:       output,
				Template:     templatePost,
				Hash:         cached.Hash,
				Checksum:     checksum,
				LastModified: entry.LastModified,
			},
			diagnostic: diag,
			skipped:    true,
		}
	}

	html, err := s.deps.Renderer.RenderTemplate(templatePost, map[string]any{
		"Site":  siteCtx,
		"Post":  newPostContext(entry),
		"Build": buildMeta,
		"Theme": s.themeMetadata(),
	})
	diag.Duration = time.Since(started)
	if err != nil {
		diag.Err = err
		return renderOutcome{
			diagnostic: diag,
			err:        fmt.Errorf("site: render %s (%s): %w", entry.Route, entry.FilePath, err),
		}
	}

	return renderOutcome{
		page: RenderedPage{
			EntryID:      entry.ID,
			Collection:   entry.Collection,
			Slug:         entry.Slug,
			Route:        entry.Route,
			Output:       output,
			Template:     templatePost,
			HTML:         html,
			Hash:         checksum,
			Checksum:     checksum,
			LastModified: entry.LastModified,
			Duration:     diag.Duration,
		},
		diagnostic: diag,
	}
}

// renderListings produces the index page plus one page per tag. Listings are
// cheap relative to entries, so they rerender on every build.
func (s *Service) renderListings(ctx context.Context, loaded map[string][]*collections.Entry, siteCtx SiteMetadata, buildMeta BuildMetadata) ([]RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := loaded[collections.PostsCollection]
	var pages []RenderedPage

	indexPage, err := s.renderListing(templateIndex, "/", map[string]any{
		"Site":  siteCtx,
		"Posts": postContexts(posts),
		"Build": buildMeta,
		"Theme": s.themeMetadata(),
	})
	if err != nil {
		return nil, err
	}
	pages = append(pages, indexPage)

	grouped := collections.GroupByTag(posts)
	for _, name := range sortedTagNames(grouped) {
		slug := tagSlug(name)
		if slug == "" {
			continue
		}
		route := tagRoute(slug)
		page, err := s.renderListing(templateTag, route, map[string]any{
			"Site":  siteCtx,
			"Tag":   TagRef{Name: name, Slug: slug, Route: route},
			"Posts": postContexts(grouped[name]),
			"Build": buildMeta,
			"Theme": s.themeMetadata(),
		})
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (s *Service) renderListing(template, route string, data map[string]any) (RenderedPage, error) {
	started := time.Now()
	html, err := s.deps.Renderer.RenderTemplate(template, data)
	if err != nil {
		return RenderedPage{}, fmt.Errorf("site: render listing %s: %w", route, err)
	}
	sum := sha256.Sum256([]byte(html))
	return RenderedPage{
		Collection: "listing",
		Slug:       strings.Trim(route, "/"),
		Route:      route,
		Output:     buildOutputPath(route),
		Template:   template,
		HTML:       html,
		Hash:       hex.EncodeToString(sum[:]),
		Duration:   time.Since(started),
	}, nil
}

func (s *Service) themeMetadata() ThemeMetadata {
	return ThemeMetadata{
		Name:    s.deps.Theme.Name,
		Variant: s.deps.Theme.Variant,
	}
}

func (s *Service) persistPages(ctx context.Context, pages []RenderedPage) (written, skipped int, err error) {
	for _, page := range pages {
		if page.HTML == "" {
			// Carried over from the manifest, already on disk.
			skipped++
			continue
		}
		category := categoryPage
		if page.Template != templatePost {
			category = categoryListing
		}
		if err := s.deps.Writer.WriteFile(ctx, writeFileRequest{
			Path:        page.Output,
			Content:     strings.NewReader(page.HTML),
			Size:        int64(len(page.HTML)),
			Category:    category,
			ContentType: "text/html; charset=utf-8",
			Checksum:    page.Hash,
		}); err != nil {
			return written, skipped, err
		}
		written++

		if page.Template == templatePost {
			s.manifest.setPage(manifestPage{
				Collection:   page.Collection,
				Slug:         page.Slug,
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Hash,
				Checksum:     page.Checksum,
				LastModified: page.LastModified,
				RenderedAt:   time.Now().UTC(),
			})
		}
	}
	return written, skipped, nil
}

func (s *Service) copyAssets(ctx context.Context) (copied, skipped int, err error) {
	assets, err := s.deps.Theme.Assets()
	if err != nil {
		return 0, 0, fmt.Errorf("site: list theme assets: %w", err)
	}
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return copied, skipped, err
		}

		file, err := s.deps.Theme.Open(asset)
		if err != nil {
			return copied, skipped, fmt.Errorf("site: open asset %s: %w", asset, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return copied, skipped, fmt.Errorf("site: read asset %s: %w", asset, err)
		}

		sum := sha256.Sum256(data)
		checksum := hex.EncodeToString(sum[:])
		output := joinOutputPath("assets", strings.TrimPrefix(asset, "assets/"))

		if s.cfg.Incremental && s.manifest.shouldSkipAsset(s.deps.Theme.Name, asset, checksum, output) {
			skipped++
			continue
		}

		if err := s.deps.Writer.WriteFile(ctx, writeFileRequest{
			Path:        output,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(asset),
			Checksum:    checksum,
		}); err != nil {
			return copied, skipped, err
		}
		copied++
		s.manifest.setAsset(manifestAsset{
			Key:      s.manifest.assetKey(s.deps.Theme.Name, asset),
			Theme:    s.deps.Theme.Name,
			Source:   asset,
			Output:   output,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: time.Now().UTC(),
		})
	}
	return copied, skipped, nil
}

func (s *Service) writeFeeds(ctx context.Context, entries []*collections.Entry, siteCtx SiteMetadata, generatedAt time.Time) ([]string, error) {
	items := buildFeedItems(siteCtx.BaseURL, entries, generatedAt)

	rss := buildRSSFeed(siteCtx, items, generatedAt)
	if err := s.deps.Writer.WriteFile(ctx, writeFileRequest{
		Path:        "feed.xml",
		Content:     strings.NewReader(rss),
		Size:        int64(len(rss)),
		Category:    categoryFeed,
		ContentType: "application/rss+xml; charset=utf-8",
		Metadata:    feedMetadata("rss", generatedAt),
	}); err != nil {
		return nil, err
	}

	atom := buildAtomFeed(siteCtx, items, generatedAt)
	if err := s.deps.Writer.WriteFile(ctx, writeFileRequest{
		Path:        "feed.atom.xml",
		Content:     strings.NewReader(atom),
		Size:        int64(len(atom)),
		Category:    categoryFeed,
		ContentType: "application/atom+xml; charset=utf-8",
		Metadata:    feedMetadata("atom", generatedAt),
	}); err != nil {
		return nil, err
	}

	return []string{"feed.xml", "feed.atom.xml"}, nil
}

func (s *Service) writeSitemap(ctx context.Context, pages []RenderedPage, generatedAt time.Time) error {
	sitemap := buildSitemap(s.siteMetadata().BaseURL, pages, generatedAt)
	return s.deps.Writer.WriteFile(ctx, writeFileRequest{
		Path:        "sitemap.xml",
		Content:     strings.NewReader(sitemap),
		Size:        int64(len(sitemap)),
		Category:    categorySitemap,
		ContentType: "application/xml; charset=utf-8",
	})
}

func (s *Service) writeRobots(ctx context.Context) error {
	robots := buildRobots(s.siteMetadata().BaseURL, s.cfg.GenerateSitemap)
	return s.deps.Writer.WriteFile(ctx, writeFileRequest{
		Path:        "robots.txt",
		Content:     strings.NewReader(robots),
		Size:        int64(len(robots)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
	})
}

func (s *Service) persistManifest(ctx context.Context, generatedAt time.Time) error {
	s.manifest.GeneratedAt = generatedAt
	data, err := s.manifest.marshal()
	if err != nil {
		return fmt.Errorf("site: marshal manifest: %w", err)
	}
	return s.deps.Writer.WriteFile(ctx, writeFileRequest{
		Path:        manifestFileName,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
