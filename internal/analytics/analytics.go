package analytics

import (
	"sort"

	"github.com/studiowebux/perfscope/internal/types"
)

// Summary holds the global totals of one pass
type Summary struct {
	Domains         int     `json:"domains" yaml:"domains"`
	Requests        int     `json:"requests" yaml:"requests"`
	TotalDuration   float64 `json:"totalDuration" yaml:"totalDuration"`
	AvgDuration     float64 `json:"avgDuration" yaml:"avgDuration"`
	TransferSize    int64   `json:"transferSize" yaml:"transferSize"`       // compressed/transfer size, absent counted as 0
	DecodedSize     int64   `json:"decodedSize" yaml:"decodedSize"`         // actual size
	NetworkTransfer int64   `json:"networkTransfer" yaml:"networkTransfer"` // transferSize > 0 only
	CachedCount     int     `json:"cachedCount" yaml:"cachedCount"`
	OpaqueCount     int     `json:"opaqueCount" yaml:"opaqueCount"`
}

// DomainDetail is the per-domain rollup
type DomainDetail struct {
	Domain        string  `json:"domain" yaml:"domain"`
	Count         int     `json:"count" yaml:"count"`
	TotalDuration float64 `json:"totalDuration" yaml:"totalDuration"`
	AvgDuration   float64 `json:"avgDuration" yaml:"avgDuration"`
	MinDuration   float64 `json:"minDuration" yaml:"minDuration"`
	MaxDuration   float64 `json:"maxDuration" yaml:"maxDuration"`
	TransferSize  int64   `json:"transferSize" yaml:"transferSize"`
	CachedCount   int     `json:"cachedCount" yaml:"cachedCount"`
}

// CacheRate returns the share of cached requests in percent
func (d DomainDetail) CacheRate() float64 {
	if d.Count == 0 {
		return 0
	}
	return float64(d.CachedCount) / float64(d.Count) * 100
}

// Breakdowns holds the cross-tab counts. They are never truncated.
type Breakdowns struct {
	ByInitiator       map[string]int `json:"byInitiator" yaml:"byInitiator"`
	ByType            map[string]int `json:"byType" yaml:"byType"`
	ByInitiatorDomain map[string]int `json:"byInitiatorDomain" yaml:"byInitiatorDomain"` // initiatorType@domain
	ByTypeDomain      map[string]int `json:"byTypeDomain" yaml:"byTypeDomain"`           // type@domain
}

// Result is the complete aggregation of one pass
type Result struct {
	Summary        Summary        `json:"summary" yaml:"summary"`
	Domains        []DomainDetail `json:"domains" yaml:"domains"`
	Classification Classification `json:"classification" yaml:"classification"`
	Breakdowns     Breakdowns     `json:"breakdowns" yaml:"breakdowns"`
}

// Aggregate computes totals, per-domain details, domain classification and
// breakdowns. Inputs must already be validated. It is a pure function.
func Aggregate(entries []types.ResourceEntry, buckets []types.CrossOriginBucket, pageDomain string) Result {
	return Result{
		Summary:        Summarize(entries, buckets),
		Domains:        DomainDetails(entries),
		Classification: ClassifyDomains(entries, pageDomain),
		Breakdowns:     Breakdown(entries),
	}
}

// Summarize computes the global totals
func Summarize(entries []types.ResourceEntry, buckets []types.CrossOriginBucket) Summary {
	var s Summary
	domains := make(map[string]struct{})

	for _, e := range entries {
		domains[e.Domain] = struct{}{}
		s.Requests++
		s.TotalDuration += e.Duration
		s.TransferSize += e.Transferred()
		s.DecodedSize += e.DecodedBodySize
		if e.TransferSize != nil && *e.TransferSize > 0 {
			s.NetworkTransfer += *e.TransferSize
		}
		if e.Cached {
			s.CachedCount++
		}
	}

	s.Domains = len(domains)
	if s.Requests > 0 {
		s.AvgDuration = s.TotalDuration / float64(s.Requests)
	}
	for _, b := range buckets {
		s.OpaqueCount += b.Count
	}
	return s
}

// DomainDetails groups entries by domain, then derives the per-group stats.
// Sorted by average duration descending, then domain.
func DomainDetails(entries []types.ResourceEntry) []DomainDetail {
	type group struct {
		stats    *durationStats
		transfer int64
		cached   int
	}

	groups := make(map[string]*group)
	for _, e := range entries {
		g, ok := groups[e.Domain]
		if !ok {
			g = &group{stats: newDurationStats()}
			groups[e.Domain] = g
		}
		g.stats.add(e.Duration)
		g.transfer += e.Transferred()
		if e.Cached {
			g.cached++
		}
	}

	details := make([]DomainDetail, 0, len(groups))
	for domain, g := range groups {
		details = append(details, DomainDetail{
			Domain:        domain,
			Count:         g.stats.count,
			TotalDuration: g.stats.total,
			AvgDuration:   g.stats.avg(),
			MinDuration:   g.stats.lo(),
			MaxDuration:   g.stats.hi(),
			TransferSize:  g.transfer,
			CachedCount:   g.cached,
		})
	}

	sort.Slice(details, func(i, j int) bool {
		if details[i].AvgDuration != details[j].AvgDuration {
			return details[i].AvgDuration > details[j].AvgDuration
		}
		return details[i].Domain < details[j].Domain
	})

	return details
}

// Breakdown counts entries by initiator, type and their domain composites
func Breakdown(entries []types.ResourceEntry) Breakdowns {
	b := Breakdowns{
		ByInitiator:       make(map[string]int),
		ByType:            make(map[string]int),
		ByInitiatorDomain: make(map[string]int),
		ByTypeDomain:      make(map[string]int),
	}

	for _, e := range entries {
		initiator := e.InitiatorType
		if initiator == "" {
			initiator = "other"
		}
		b.ByInitiator[initiator]++
		b.ByType[string(e.Type)]++
		b.ByInitiatorDomain[initiator+"@"+e.Domain]++
		b.ByTypeDomain[string(e.Type)+"@"+e.Domain]++
	}
	return b
}

// Count is one key of a breakdown with its occurrence count
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// TopN returns the n most frequent keys, ties broken by key.
// n <= 0 returns every key.
func TopN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
