package classify

import (
	"net/url"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/types"
)

var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
		".svg": true, ".ico": true, ".avif": true, ".bmp": true,
	}
	fontExtensions = map[string]bool{
		".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	}
)

// Classifier turns raw resource timing records into ResourceEntry values
type Classifier struct {
	policy OpaquePolicy
	logger *log.Logger
}

// New creates a classifier using the given opaque policy.
// A nil policy selects Strict; a nil logger discards output.
func New(policy OpaquePolicy, logger *log.Logger) *Classifier {
	if policy == nil {
		policy = Strict
	}
	return &Classifier{policy: policy, logger: logger}
}

// NewFromName creates a classifier from a policy name (see ParseOpaquePolicy)
func NewFromName(name string, logger *log.Logger) (*Classifier, error) {
	policy, err := ParseOpaquePolicy(name)
	if err != nil {
		return nil, err
	}
	return New(policy, logger), nil
}

// Classify maps one raw record to a ResourceEntry. It never fails.
// Duration is kept as reported; inverted timestamps are left for validation to drop.
func (c *Classifier) Classify(r types.RawResource) types.ResourceEntry {
	duration := r.ResponseEnd - r.StartTime
	cached := IsCached(r.TransferSize, r.StartTime, r.ResponseEnd)

	entry := types.ResourceEntry{
		URL:             r.Name,
		Domain:          Domain(r.Name),
		StartTime:       r.StartTime,
		Duration:        duration,
		TransferSize:    r.TransferSize,
		EncodedBodySize: r.EncodedBodySize,
		DecodedBodySize: r.DecodedBodySize,
		Type:            InferType(r.Name, r.InitiatorType),
		InitiatorType:   r.InitiatorType,
		Cached:          cached,
		Opaque:          c.policy(r.TransferSize, cached),
	}

	return entry
}

// ClassifyAll classifies every record in order
func (c *Classifier) ClassifyAll(raw []types.RawResource) []types.ResourceEntry {
	entries := make([]types.ResourceEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, c.Classify(r))
	}
	return entries
}

// Ambiguous returns the URLs of entries with a zero, non-cached transfer size
// that the policy did not mark opaque, logging each at warn.
// Some browsers report opaque loads this way; pass validated entries only.
func (c *Classifier) Ambiguous(entries []types.ResourceEntry) []string {
	var urls []string
	for _, e := range entries {
		if e.Opaque || e.Cached || e.TransferSize == nil || *e.TransferSize != 0 {
			continue
		}
		urls = append(urls, e.URL)
		if c.logger != nil {
			c.logger.Warn("zero transfer size without cache hit", "url", e.URL, "duration", e.Duration)
		}
	}
	return urls
}

// IsCached reports a cache hit: zero bytes transferred but the response took time
func IsCached(transferSize *int64, startTime, responseEnd float64) bool {
	return transferSize != nil && *transferSize == 0 && responseEnd > startTime
}

// Domain returns the hostname of rawURL, or rawURL itself when it has none
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

// InferType derives the content category of a resource.
// Static asset extensions win over the initiator; html/json extensions only
// apply when the initiator says nothing useful.
func InferType(rawURL, initiatorType string) types.ResourceType {
	ext := extension(rawURL)

	switch {
	case ext == ".js" || ext == ".mjs":
		return types.TypeJS
	case ext == ".css":
		return types.TypeCSS
	case imageExtensions[ext]:
		return types.TypeImage
	case fontExtensions[ext]:
		return types.TypeFont
	}

	switch initiatorType {
	case "script":
		return types.TypeJS
	case "style":
		return types.TypeCSS
	case types.InitiatorXHR, types.InitiatorFetch:
		return types.TypeXHR
	}

	switch ext {
	case ".html", ".htm":
		return types.TypeHTML
	case ".json":
		return types.TypeJSON
	}

	return types.TypeOther
}

func extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}
