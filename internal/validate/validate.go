package validate

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/types"
)

// Options controls which resources are accepted
type Options struct {
	// RequireTransferSize drops resources whose transferSize is absent.
	// Off by default: an absent transferSize is how opaque loads are reported.
	RequireTransferSize bool

	Logger *log.Logger
}

// Resource reports whether e can be aggregated
func Resource(e types.ResourceEntry, opts Options) bool {
	if e.URL == "" || e.Domain == "" || e.Type == "" {
		return false
	}
	if !nonNegative(e.Duration) || !nonNegative(e.StartTime) {
		return false
	}
	if e.DecodedBodySize < 0 {
		return false
	}
	if e.TransferSize == nil {
		return !opts.RequireTransferSize
	}
	return *e.TransferSize >= 0
}

// Resources returns the valid entries in order and the number dropped.
// Dropping is expected for partial entries and is not an error.
func Resources(entries []types.ResourceEntry, opts Options) ([]types.ResourceEntry, int) {
	valid := make([]types.ResourceEntry, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		if !Resource(e, opts) {
			dropped++
			if opts.Logger != nil {
				opts.Logger.Debug("dropping resource", "url", e.URL, "domain", e.Domain)
			}
			continue
		}
		valid = append(valid, e)
	}
	return valid, dropped
}

// Bucket reports whether a cross-origin bucket can be aggregated.
// Sub-maps are optional.
func Bucket(b types.CrossOriginBucket) bool {
	return b.Domain != "" && b.Count >= 0
}

// Buckets returns the valid buckets in order
func Buckets(buckets []types.CrossOriginBucket, opts Options) []types.CrossOriginBucket {
	valid := make([]types.CrossOriginBucket, 0, len(buckets))
	for _, b := range buckets {
		if !Bucket(b) {
			if opts.Logger != nil {
				opts.Logger.Debug("dropping cross-origin bucket", "domain", b.Domain, "count", b.Count)
			}
			continue
		}
		valid = append(valid, b)
	}
	return valid
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
