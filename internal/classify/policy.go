package classify

import (
	"fmt"
	"strings"
)

// OpaquePolicy decides whether a resource's sizes were withheld by the browser.
// transferSize is nil when the browser did not report it.
type OpaquePolicy func(transferSize *int64, cached bool) bool

// Policy names accepted by ParseOpaquePolicy
const (
	PolicyStrict       = "strict"
	PolicyZeroUncached = "zero-uncached"
	PolicyFalsy        = "falsy"
)

// Strict treats only an absent transferSize as opaque
func Strict(transferSize *int64, cached bool) bool {
	return transferSize == nil
}

// ZeroUncached also treats a zero transferSize that is not a cache hit as opaque
func ZeroUncached(transferSize *int64, cached bool) bool {
	return transferSize == nil || (*transferSize == 0 && !cached)
}

// Falsy treats any absent or zero transferSize as opaque, cache hits included
func Falsy(transferSize *int64, cached bool) bool {
	return transferSize == nil || *transferSize == 0
}

// ParseOpaquePolicy returns the policy registered under name.
// An empty name selects Strict.
func ParseOpaquePolicy(name string) (OpaquePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStrict:
		return Strict, nil
	case PolicyZeroUncached:
		return ZeroUncached, nil
	case PolicyFalsy:
		return Falsy, nil
	default:
		return nil, fmt.Errorf("unknown opaque policy %q", name)
	}
}
