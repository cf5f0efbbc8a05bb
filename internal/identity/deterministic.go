package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// EntryUUID returns a stable identifier for a collection entry.
func EntryUUID(collection, slug string) uuid.UUID {
	return UUID("go-blog:entry:" + strings.ToLower(strings.TrimSpace(collection)) + ":" + strings.ToLower(strings.TrimSpace(slug)))
}

// CollectionUUID returns a stable identifier for a collection definition.
func CollectionUUID(name string) uuid.UUID {
	return UUID("go-blog:collection:" + strings.ToLower(strings.TrimSpace(name)))
}

// ThemeUUID returns a stable identifier for a theme path.
func ThemeUUID(themePath string) uuid.UUID {
	return UUID("go-blog:theme:" + strings.TrimSpace(themePath))
}
