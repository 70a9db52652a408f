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

func PageUUID(slug string) uuid.UUID {
	return UUID("go-publish:page:" + strings.ToLower(strings.TrimSpace(slug)))
}

func GlobalBlockUUID(key, section string) uuid.UUID {
	return UUID("go-publish:global_block:" + strings.ToLower(strings.TrimSpace(section)) + ":" + strings.ToLower(strings.TrimSpace(key)))
}

func DraftUUID(entityType, entityID string) uuid.UUID {
	return UUID("go-publish:draft:" + strings.TrimSpace(entityType) + ":" + strings.TrimSpace(entityID))
}

func JobUUID(key string) uuid.UUID {
	return UUID("go-publish:job:" + strings.TrimSpace(key))
}
