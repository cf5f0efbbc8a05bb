package collections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-blog/internal/schema"
)

var (
	ErrCollectionUnknown      = errors.New("collections: collection does not exist")
	ErrCollectionNameRequired = errors.New("collections: collection name is required")
	ErrCollectionDuplicate    = errors.New("collections: collection already defined")
	ErrSchemaInvalid          = errors.New("collections: schema is invalid")
	ErrEntryInvalid           = errors.New("collections: entry failed schema validation")
	ErrSlugRequired           = errors.New("collections: slug is required")
	ErrSlugInvalid            = errors.New("collections: slug contains invalid characters")
	ErrSlugConflict           = errors.New("collections: slug conflict")
)

// EntryValidationError reports a document rejected by its collection schema.
type EntryValidationError struct {
	Collection string
	FilePath   string
	Issues     []schema.ValidationIssue
	Cause      error
}

func (e *EntryValidationError) Error() string {
	if e == nil {
		return ErrEntryInvalid.Error()
	}
	detail := ""
	if len(e.Issues) > 0 {
		parts := make([]string, 0, len(e.Issues))
		for _, issue := range e.Issues {
			location := strings.TrimSpace(issue.Location)
			if location == "" {
				location = "#"
			} else if !strings.HasPrefix(location, "#") {
				location = "#" + location
			}
			if issue.Message == "" {
				parts = append(parts, location)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
		}
		detail = strings.Join(parts, "; ")
	} else if e.Cause != nil {
		detail = e.Cause.Error()
	}
	if detail == "" {
		return fmt.Sprintf("%s: collection=%s file=%s", ErrEntryInvalid.Error(), e.Collection, e.FilePath)
	}
	return fmt.Sprintf("%s: collection=%s file=%s: %s", ErrEntryInvalid.Error(), e.Collection, e.FilePath, detail)
}

func (e *EntryValidationError) Unwrap() error {
	return ErrEntryInvalid
}

// SlugConflictError reports two documents resolving to the same slug.
type SlugConflictError struct {
	Collection   string
	Slug         string
	FilePath     string
	ExistingPath string
}

func (e *SlugConflictError) Error() string {
	if e == nil {
		return ErrSlugConflict.Error()
	}
	return fmt.Sprintf("%s: collection=%s slug=%s file=%s conflicts with %s",
		ErrSlugConflict.Error(), e.Collection, e.Slug, e.FilePath, e.ExistingPath)
}

func (e *SlugConflictError) Unwrap() error {
	return ErrSlugConflict
}
