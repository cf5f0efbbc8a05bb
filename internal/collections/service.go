package collections

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/schema"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const defaultPattern = "**/*.md"

// Config controls collection loading behaviour.
type Config struct {
	Definitions []Definition
	// IncludeDrafts keeps draft entries in load results. Builds leave this
	// off; previews turn it on.
	IncludeDrafts bool
}

// Service loads and validates collection entries from a Markdown source.
type Service struct {
	defs          map[string]Definition
	order         []string
	markdown      interfaces.MarkdownService
	logger        interfaces.Logger
	includeDrafts bool
}

// LoadOptions provide call-specific overrides.
type LoadOptions struct {
	// IncludeDrafts overrides the service-level draft policy when set.
	IncludeDrafts *bool
}

// NewService validates the supplied definitions and returns a collection
// service. Every schema is compiled up front so malformed definitions fail at
// wire time instead of mid-build.
func NewService(cfg Config, markdownSvc interfaces.MarkdownService, logger interfaces.Logger) (*Service, error) {
	if markdownSvc == nil {
		return nil, fmt.Errorf("collections: markdown service is required")
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	defs := make(map[string]Definition, len(cfg.Definitions))
	order := make([]string, 0, len(cfg.Definitions))
	for _, def := range cfg.Definitions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, ErrCollectionNameRequired
		}
		if _, exists := defs[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrCollectionDuplicate, name)
		}
		if err := schema.ValidateSchema(compiledSchema(def)); err != nil {
			return nil, fmt.Errorf("%w: collection %s: %v", ErrSchemaInvalid, name, err)
		}
		if strings.TrimSpace(def.Directory) == "" {
			def.Directory = name
		}
		if strings.TrimSpace(def.Pattern) == "" {
			def.Pattern = defaultPattern
		}
		defs[name] = def
		order = append(order, name)
	}

	return &Service{
		defs:          defs,
		order:         order,
		markdown:      markdownSvc,
		logger:        logger,
		includeDrafts: cfg.IncludeDrafts,
	}, nil
}

// Names lists the configured collection names in definition order.
func (s *Service) Names() []string {
	return append([]string(nil), s.order...)
}

// Definition returns the named collection definition.
func (s *Service) Definition(name string) (Definition, bool) {
	def, ok := s.defs[strings.TrimSpace(name)]
	return def, ok
}

// LoadCollection discovers, validates, and renders every entry in the named
// collection. Documents that fail schema validation abort the load with an
// EntryValidationError naming the file and field.
func (s *Service) LoadCollection(ctx context.Context, name string, opts LoadOptions) ([]*Entry, error) {
	def, ok := s.defs[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionUnknown, name)
	}

	docs, err := s.markdown.LoadDirectory(ctx, def.Directory, interfaces.LoadOptions{
		Pattern: def.Pattern,
	})
	if err != nil {
		return nil, fmt.Errorf("collections: load %s: %w", def.Name, err)
	}

	includeDrafts := s.includeDrafts
	if opts.IncludeDrafts != nil {
		includeDrafts = *opts.IncludeDrafts
	}

	entries := make([]*Entry, 0, len(docs))
	bySlug := make(map[string]*Entry, len(docs))
	for _, doc := range docs {
		entry, err := s.buildEntry(def, doc)
		if err != nil {
			return nil, err
		}
		if existing, ok := bySlug[entry.Slug]; ok {
			return nil, &SlugConflictError{
				Collection:   def.Name,
				Slug:         entry.Slug,
				FilePath:     entry.FilePath,
				ExistingPath: existing.FilePath,
			}
		}
		bySlug[entry.Slug] = entry

		if entry.Draft && !includeDrafts {
			logging.WithEntryContext(s.logger, entry.FilePath, def.Name, entry.Slug).
				Debug("collections.entry.draft_skipped")
			continue
		}
		entries = append(entries, entry)
	}

	sortEntries(entries)

	s.logger.Debug("collections.load.completed",
		"collection", def.Name,
		"entries", len(entries),
		"include_drafts", includeDrafts,
	)
	return entries, nil
}

// LoadAll loads every configured collection keyed by name.
func (s *Service) LoadAll(ctx context.Context, opts LoadOptions) (map[string][]*Entry, error) {
	out := make(map[string][]*Entry, len(s.order))
	for _, name := range s.order {
		entries, err := s.LoadCollection(ctx, name, opts)
		if err != nil {
			return nil, err
		}
		out[name] = entries
	}
	return out, nil
}

func (s *Service) buildEntry(def Definition, doc *interfaces.Document) (*Entry, error) {
	payload := schema.ApplyDefaults(def.Fields, doc.FrontMatter.Raw)

	if err := schema.ValidatePayload(compiledSchema(def), payload); err != nil {
		return nil, &EntryValidationError{
			Collection: def.Name,
			FilePath:   doc.FilePath,
			Issues:     schema.Issues(err),
			Cause:      err,
		}
	}

	entry := &Entry{
		Collection:   def.Name,
		Title:        doc.FrontMatter.Title,
		Description:  doc.FrontMatter.Description,
		Tags:         append([]string(nil), doc.FrontMatter.Tags...),
		Author:       doc.FrontMatter.Author,
		Custom:       doc.FrontMatter.Custom,
		Body:         doc.Body,
		BodyHTML:     doc.BodyHTML,
		FilePath:     doc.FilePath,
		Checksum:     doc.Checksum,
		LastModified: doc.LastModified,
	}

	for _, field := range schema.DateFields(def.Fields) {
		value, ok := payload[field]
		if !ok {
			continue
		}
		parsed, err := schema.ParseDate(value)
		if err != nil {
			return nil, &EntryValidationError{
				Collection: def.Name,
				FilePath:   doc.FilePath,
				Issues: []schema.ValidationIssue{{
					Location: "/" + field,
					Message:  err.Error(),
				}},
				Cause: err,
			}
		}
		if field == "date" {
			entry.Date = parsed
		}
	}

	if draft, ok := payload["draft"].(bool); ok {
		entry.Draft = draft
	}

	slugValue, err := resolveSlug(doc)
	if err != nil {
		return nil, &EntryValidationError{
			Collection: def.Name,
			FilePath:   doc.FilePath,
			Issues: []schema.ValidationIssue{{
				Location: "/slug",
				Message:  err.Error(),
			}},
			Cause: err,
		}
	}
	entry.Slug = slugValue
	entry.ID = identity.EntryUUID(def.Name, slugValue)
	entry.Route = entryRoute(def.RoutePrefix, slugValue)

	return entry, nil
}

func resolveSlug(doc *interfaces.Document) (string, error) {
	candidate := strings.TrimSpace(doc.FrontMatter.Slug)
	if candidate == "" {
		base := filepath.Base(doc.FilePath)
		candidate = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if candidate == "" {
		return "", ErrSlugRequired
	}
	normalized, err := NormalizeSlug(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, candidate)
	}
	if normalized == "" || !IsValidSlug(normalized) {
		return "", fmt.Errorf("%w: %q", ErrSlugInvalid, candidate)
	}
	return normalized, nil
}

func entryRoute(prefix, slug string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "/" + slug
	}
	return "/" + path.Join(prefix, slug)
}

func compiledSchema(def Definition) map[string]any {
	if def.Schema != nil {
		return def.Schema
	}
	return schema.Normalize(def.Fields)
}

// sortEntries orders newest first with slug as a stable tiebreak.
func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Slug < entries[j].Slug
		}
		return entries[i].Date.After(entries[j].Date)
	})
}

// GroupByTag buckets entries under each of their tags. Tag keys keep the
// authored casing of their first appearance; matching is case-insensitive.
func GroupByTag(entries []*Entry) map[string][]*Entry {
	grouped := map[string][]*Entry{}
	canonical := map[string]string{}
	for _, entry := range entries {
		for _, tag := range entry.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			name, ok := canonical[key]
			if !ok {
				canonical[key] = tag
				name = tag
			}
			grouped[name] = append(grouped[name], entry)
		}
	}
	return grouped
}
