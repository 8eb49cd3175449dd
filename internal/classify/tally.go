package classify

import (
	"github.com/studiowebux/perfscope/internal/types"
)

// Tally counts opaque resources per domain for one collection pass.
// Buckets are created on the first opaque resource of a domain and keep
// their first-seen order.
type Tally struct {
	buckets map[string]*types.CrossOriginBucket
	order   []string
}

// NewTally creates an empty tally
func NewTally() *Tally {
	return &Tally{buckets: make(map[string]*types.CrossOriginBucket)}
}

// Add counts e when it is opaque. It reports whether e was counted.
func (t *Tally) Add(e types.ResourceEntry) bool {
	if !e.Opaque {
		return false
	}

	b, ok := t.buckets[e.Domain]
	if !ok {
		b = &types.CrossOriginBucket{
			Domain:         e.Domain,
			Types:          make(map[string]int),
			InitiatorTypes: make(map[string]int),
		}
		t.buckets[e.Domain] = b
		t.order = append(t.order, e.Domain)
	}

	b.Count++
	b.Types[string(e.Type)]++
	if e.InitiatorType != "" {
		b.InitiatorTypes[e.InitiatorType]++
	}
	return true
}

// Buckets returns copies of the buckets in first-seen order
func (t *Tally) Buckets() []types.CrossOriginBucket {
	out := make([]types.CrossOriginBucket, 0, len(t.order))
	for _, d := range t.order {
		out = append(out, *t.buckets[d])
	}
	return out
}

// Count returns the opaque count for a domain
func (t *Tally) Count(domain string) int {
	if b, ok := t.buckets[domain]; ok {
		return b.Count
	}
	return 0
}
