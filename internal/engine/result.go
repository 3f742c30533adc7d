package engine

import (
	"strings"

	"github.com/ziadkadry99/testmorph/internal/strategy"
)

// Result is the outcome of one conversion attempt. Convert always
// returns a well-formed Result: Success=false is the only failure
// signal, with the cause listed in Issues and mirrored into Code as a
// comment so batch output stays inspectable.
type Result struct {
	Success       bool              `json:"success"`
	Code          string            `json:"code"`
	Confidence    float64           `json:"confidence"`
	Strategy      strategy.Strategy `json:"strategy"`
	Issues        []string          `json:"issues,omitempty"`
	InputHash     string            `json:"input_hash"`
	ExecutionTime float64           `json:"execution_time"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
}

// fenceTags lists the code fence openers the oracle wraps answers in,
// most specific first so the language tag is consumed with the fence.
var fenceTags = []string{"```typescript", "```javascript", "```ts", "```js", "```"}

// normalizeOutput strips the Markdown code fence around an oracle
// reply, if any, and trims surrounding whitespace.
func normalizeOutput(raw string) string {
	out := strings.TrimSpace(raw)
	for _, tag := range fenceTags {
		i := strings.Index(out, tag)
		if i < 0 {
			continue
		}
		out = out[i+len(tag):]
		if j := strings.Index(out, "```"); j >= 0 {
			out = out[:j]
		}
		return strings.TrimSpace(out)
	}
	return out
}
