package timing

import "github.com/studiowebux/perfscope/internal/config"

// Status is the traffic-light rating of a metric
type Status string

const (
	StatusGood   Status = "good"
	StatusMedium Status = "medium"
	StatusBad    Status = "bad"
)

// Rate rates a value against a threshold pair.
// A non-positive value means the metric is unknown and rates medium.
func Rate(value float64, t config.Threshold) Status {
	switch {
	case value <= 0:
		return StatusMedium
	case value <= t.Good:
		return StatusGood
	case value <= t.Medium:
		return StatusMedium
	default:
		return StatusBad
	}
}

// Ratings holds the status of the three rated metrics
type Ratings struct {
	TTFB Status `json:"ttfb" yaml:"ttfb"`
	FCP  Status `json:"fcp" yaml:"fcp"`
	LCP  Status `json:"lcp" yaml:"lcp"`
}

// RateAll rates TTFB, FCP and LCP (reported as fmp)
func RateAll(r Result, t config.Thresholds) Ratings {
	return Ratings{
		TTFB: Rate(r.Metrics.TTFB, t.TTFB),
		FCP:  Rate(r.Metrics.FCP, t.FCP),
		LCP:  Rate(r.Metrics.FMP, t.LCP),
	}
}
