package sitecmd

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-blog/internal/collections"
	"github.com/goliatone/go-blog/internal/site"
)

const (
	buildSiteMessageType = "blog.site.build"
	cleanSiteMessageType = "blog.site.clean"
	newPostMessageType   = "blog.content.new_post"
)

// ResultCallback receives the build result. Optional, invoked synchronously
// from the handler.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a site command execution.
type ResultEnvelope struct {
	Result   *site.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand runs a full static build.
type BuildSiteCommand struct {
	IncludeDrafts  bool           `json:"include_drafts,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// CleanSiteCommand removes the output directory, build manifest included.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// NewPostCommand scaffolds a Markdown post with valid front matter.
type NewPostCommand struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Author      string    `json:"author,omitempty"`
	Draft       bool      `json:"draft,omitempty"`
	Date        time.Time `json:"date,omitempty"`
	// Overwrite replaces an existing file instead of failing.
	Overwrite bool `json:"overwrite,omitempty"`
}

// Type implements command.Message.
func (NewPostCommand) Type() string { return newPostMessageType }

// Validate ensures the scaffold produces a document that passes the posts
// collection schema.
func (m NewPostCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required.Error("title is required")),
		validation.Field(&m.Description, validation.Required.Error("description is required")),
		validation.Field(&m.Slug, validation.By(validateOptionalSlug)),
		validation.Field(&m.Tags, validation.By(validateTags)),
	)
}

func validateOptionalSlug(value any) error {
	raw, _ := value.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !collections.IsValidSlug(raw) {
		return validation.NewError("blog.content.new_post.slug_invalid", "slug must be lowercase letters, digits, and dashes")
	}
	return nil
}

func validateTags(value any) error {
	tags, _ := value.([]string)
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return validation.NewError("blog.content.new_post.tag_invalid", "tags must not contain empty values")
		}
	}
	return nil
}
