package gnc

import (
	"strings"

	"github.com/google/uuid"
)

// GuidRegistry hands out unique 32-character hex guids and records every guid
// seen for one document. It is scoped to a File rather than global, so
// concurrent loads of distinct files stay independent and tests stay
// deterministic.
type GuidRegistry struct {
	used map[string]struct{}
}

// NewGuidRegistry creates an empty registry.
func NewGuidRegistry() *GuidRegistry {
	return &GuidRegistry{used: make(map[string]struct{})}
}

// New generates a guid that has not been seen by this registry.
func (r *GuidRegistry) New() string {
	for {
		guid := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", ""))
		if _, taken := r.used[guid]; !taken {
			r.used[guid] = struct{}{}
			return guid
		}
	}
}

// Claim records a guid read from a source file so it is never handed out
// again. Codecs call this for every entity they parse; the parsed entity
// keeps the exact guid from the source.
func (r *GuidRegistry) Claim(guid string) {
	if guid == "" {
		return
	}
	r.used[guid] = struct{}{}
}

// Known reports whether the guid has been generated or claimed.
func (r *GuidRegistry) Known(guid string) bool {
	_, ok := r.used[guid]
	return ok
}
