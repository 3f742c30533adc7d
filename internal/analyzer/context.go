package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Context is the structured profile of one conversion input. It is produced
// fresh per request and immutable after creation; it is never persisted on
// its own, only folded into a stored conversion case.
type Context struct {
	Complexity          int      `json:"complexity"`
	HasCustomCommands   bool     `json:"has_custom_commands"`
	HasAPICalls         bool     `json:"has_api_calls"`
	HasFormInteractions bool     `json:"has_form_interactions"`
	TestCount           int      `json:"test_count"`
	PriorAttempts       []string `json:"prior_attempts,omitempty"`
}

// Map returns the context as a key/value view, used for persistence and for
// matching pattern conditions.
func (c Context) Map() map[string]any {
	m := map[string]any{
		"complexity":            c.Complexity,
		"has_custom_commands":   c.HasCustomCommands,
		"has_api_calls":         c.HasAPICalls,
		"has_form_interactions": c.HasFormInteractions,
		"test_count":            c.TestCount,
	}
	if len(c.PriorAttempts) > 0 {
		m["prior_attempts"] = c.PriorAttempts
	}
	return m
}

// Bucket returns a stable hash of the sorted profile key/value pairs, used
// to group performance statistics. Prior attempts are transient per-request
// state and do not participate in the bucket.
func (c Context) Bucket() string {
	m := map[string]any{
		"complexity":            c.Complexity,
		"has_custom_commands":   c.HasCustomCommands,
		"has_api_calls":         c.HasAPICalls,
		"has_form_interactions": c.HasFormInteractions,
		"test_count":            c.TestCount,
	}
	// encoding/json sorts map keys, so the serialization is canonical.
	data, _ := json.Marshal(m)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
