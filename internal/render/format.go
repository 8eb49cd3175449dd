package render

import (
	"encoding/json"
	"fmt"

	"github.com/studiowebux/perfscope/internal/timing"
	"github.com/studiowebux/perfscope/internal/types"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatDuration formats milliseconds to a human-readable string
func FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000.0)
}

// FormatSize formats a byte count to a human-readable string
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}

// Marshal encodes v as indented JSON or YAML
func Marshal(v any, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected text, json or yaml)", format)
	}
}

// Bar is a waterfall stage positioned on the timeline
type Bar struct {
	types.WaterfallStage
	Offset float64 `json:"offset"`
}

// Layout positions the stages on a shared timeline. Sequential stages follow
// each other; a parallel stage starts with the sequential stage before it and
// does not move the timeline; Total spans from the origin.
func Layout(stages []types.WaterfallStage) []Bar {
	bars := make([]Bar, 0, len(stages))
	var cursor, lastStart float64

	for _, s := range stages {
		var offset float64
		switch {
		case s.Name == timing.TotalStage:
			offset = 0
		case s.Parallel:
			offset = lastStart
		default:
			offset = cursor
			lastStart = cursor
			cursor += s.Value
		}
		bars = append(bars, Bar{WaterfallStage: s, Offset: offset})
	}
	return bars
}

// Span returns the end of the furthest bar
func Span(bars []Bar) float64 {
	var end float64
	for _, b := range bars {
		if e := b.Offset + b.Value; e > end {
			end = e
		}
	}
	return end
}
