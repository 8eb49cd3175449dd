package analytics

import (
	"sort"
	"strings"

	"github.com/studiowebux/perfscope/internal/types"
)

// Relation of a resource domain to the page domain
type Relation string

const (
	SameDomain     Relation = "same-domain"
	SameRootDomain Relation = "same-root-domain"
	CrossDomain    Relation = "cross-domain"
)

// Classification lists the distinct resource domains per relation, sorted
type Classification struct {
	SameDomain     []string `json:"sameDomain" yaml:"sameDomain"`
	SameRootDomain []string `json:"sameRootDomain" yaml:"sameRootDomain"`
	CrossDomain    []string `json:"crossDomain" yaml:"crossDomain"`
}

// RootDomain returns the last two labels of a hostname, or the whole string
// when it has fewer. Multi-part public suffixes (co.uk) are not recognised:
// example.co.uk and other.co.uk share the root co.uk.
func RootDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Relate classifies domain relative to pageDomain
func Relate(domain, pageDomain string) Relation {
	switch {
	case domain == pageDomain:
		return SameDomain
	case RootDomain(domain) == RootDomain(pageDomain):
		return SameRootDomain
	default:
		return CrossDomain
	}
}

// ClassifyDomains sorts the distinct domains of entries into the three relations
func ClassifyDomains(entries []types.ResourceEntry, pageDomain string) Classification {
	c := Classification{
		SameDomain:     []string{},
		SameRootDomain: []string{},
		CrossDomain:    []string{},
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Domain] {
			continue
		}
		seen[e.Domain] = true

		switch Relate(e.Domain, pageDomain) {
		case SameDomain:
			c.SameDomain = append(c.SameDomain, e.Domain)
		case SameRootDomain:
			c.SameRootDomain = append(c.SameRootDomain, e.Domain)
		default:
			c.CrossDomain = append(c.CrossDomain, e.Domain)
		}
	}

	sort.Strings(c.SameDomain)
	sort.Strings(c.SameRootDomain)
	sort.Strings(c.CrossDomain)
	return c
}

// DistinctDomains returns the sorted distinct domains of entries
func DistinctDomains(entries []types.ResourceEntry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.Domain] {
			seen[e.Domain] = true
			out = append(out, e.Domain)
		}
	}
	sort.Strings(out)
	return out
}
