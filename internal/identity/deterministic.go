package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid. Keys
// must be prefixed by entity type to avoid cross-entity collisions.
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

// DocumentRowUUID identifies the storage row of one locale instance. Every
// locale of a document shares documentID while owning a distinct row.
func DocumentRowUUID(collection, documentID, locale string) uuid.UUID {
	return UUID("autotranslate:document:" +
		strings.ToLower(strings.TrimSpace(collection)) + ":" +
		strings.TrimSpace(documentID) + ":" +
		strings.ToLower(strings.TrimSpace(locale)))
}
