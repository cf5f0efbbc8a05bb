package site

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/collections"
)

// SiteMetadata exposes site-wide information to templates and feed builders.
type SiteMetadata struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Metadata    map[string]any
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// ThemeMetadata surfaces the active theme to templates.
type ThemeMetadata struct {
	Name    string
	Variant string
}

// TagRef is a resolved tag reference with its listing route.
type TagRef struct {
	Name  string
	Slug  string
	Route string
}

// PostContext is the per-entry data contract handed to templates.
type PostContext struct {
	ID          uuid.UUID
	Collection  string
	Slug        string
	Title       string
	Description string
	Date        time.Time
	Author      string
	Tags        []TagRef
	Custom      map[string]any
	Route       string
	// Content carries the rendered HTML body; templates emit it with |safe.
	Content      string
	LastModified time.Time
}

func newPostContext(entry *collections.Entry) PostContext {
	return PostContext{
		ID:           entry.ID,
		Collection:   entry.Collection,
		Slug:         entry.Slug,
		Title:        entry.Title,
		Description:  entry.Description,
		Date:         entry.Date,
		Author:       entry.Author,
		Tags:         tagRefs(entry.Tags),
		Custom:       entry.Custom,
		Route:        entry.Route,
		Content:      string(entry.BodyHTML),
		LastModified: entry.LastModified,
	}
}

func tagRefs(tags []string) []TagRef {
	refs := make([]TagRef, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		slug := tagSlug(tag)
		refs = append(refs, TagRef{
			Name:  tag,
			Slug:  slug,
			Route: tagRoute(slug),
		})
	}
	return refs
}

func tagRoute(slug string) string {
	return "/" + path.Join("tags", slug) + "/"
}

// tagSlug lowercases and dash-joins a tag for use in routes. Tags are
// author-facing labels, not validated slugs, so this stays permissive.
func tagSlug(tag string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(tag)), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
	return strings.Join(fields, "-")
}

func postContexts(entries []*collections.Entry) []PostContext {
	out := make([]PostContext, 0, len(entries))
	for _, entry := range entries {
		out = append(out, newPostContext(entry))
	}
	return out
}

func sortedTagNames(grouped map[string][]*collections.Entry) []string {
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderedPage captures the rendered HTML output for a page.
type RenderedPage struct {
	EntryID      uuid.UUID
	Collection   string
	Slug         string
	Route        string
	Output       string
	Template     string
	HTML         string
	Hash         string
	Checksum     string
	LastModified time.Time
	Duration     time.Duration
}

// RenderDiagnostic records rendering timing and errors for individual pages.
type RenderDiagnostic struct {
	EntryID  uuid.UUID
	Route    string
	Template string
	Duration time.Duration
	Skipped  bool
	Err      error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}
