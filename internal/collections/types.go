package collections

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/schema"
)

// Definition declares a named collection of Markdown documents and the
// front-matter contract its entries must satisfy.
type Definition struct {
	// Name identifies the collection ("posts").
	Name string
	// Directory is the path holding the collection's documents, relative to
	// the configured content root. Defaults to the collection name.
	Directory string
	// Pattern limits discovery to matching files (defaults to "**/*.md").
	Pattern string
	// Fields declares the front-matter schema. Ignored when Schema is set.
	Fields []schema.FieldSpec
	// Schema optionally supplies a pre-built JSON Schema object.
	Schema map[string]any
	// RoutePrefix is prepended to entry routes ("" mounts entries at the root).
	RoutePrefix string
}

// Entry is a validated collection document ready for rendering.
type Entry struct {
	ID          uuid.UUID
	Collection  string
	Slug        string
	Title       string
	Description string
	Date        time.Time
	Draft       bool
	Tags        []string
	Author      string
	Custom      map[string]any
	Body        []byte
	BodyHTML    []byte
	// Route is the site-relative path the entry publishes at ("/my-post").
	Route        string
	FilePath     string
	Checksum     []byte
	LastModified time.Time
}

// PostsCollection is the name of the built-in blog collection.
const PostsCollection = "posts"

// Posts returns the built-in posts collection: Markdown documents carrying a
// required title and description, a required parseable date, and an optional
// draft flag that defaults to false.
func Posts() Definition {
	return Definition{
		Name:      PostsCollection,
		Directory: "posts",
		Fields: []schema.FieldSpec{
			{Name: "title", Type: "string", Required: true},
			{Name: "description", Type: "string", Required: true},
			{Name: "date", Type: "date", Required: true},
			{Name: "draft", Type: "boolean", Default: false},
			{Name: "slug", Type: "string"},
			{Name: "tags", Type: "array"},
			{Name: "author", Type: "string"},
		},
	}
}
