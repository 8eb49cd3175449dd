package timing

import (
	"github.com/studiowebux/perfscope/internal/types"
)

// StageCount is the fixed length of the waterfall
const StageCount = 14

// stageDef describes one waterfall stage: how to compute it and how to show it
type stageDef struct {
	name     string
	color    string
	formula  string
	parallel bool
	value    func(n *types.NavigationTiming) float64
}

var stageDefs = [StageCount]stageDef{
	{"unLoad", "#ccc", "unloadEventEnd - unloadEventStart", false,
		func(n *types.NavigationTiming) float64 { return n.UnloadEventEnd - n.UnloadEventStart }},
	{"Redirect", "#ccc", "redirectEnd - redirectStart", false,
		func(n *types.NavigationTiming) float64 { return n.RedirectEnd - n.RedirectStart }},
	{"AppCache", "#FBE192", "domainLookupStart - fetchStart", false,
		func(n *types.NavigationTiming) float64 { return n.DomainLookupStart - n.FetchStart }},
	{"DNS", "#9561F9", "domainLookupEnd - domainLookupStart", false,
		func(n *types.NavigationTiming) float64 { return n.DomainLookupEnd - n.DomainLookupStart }},
	{"TCP", "#2ACCA9", "connectEnd - connectStart", false,
		func(n *types.NavigationTiming) float64 { return n.ConnectEnd - n.ConnectStart }},
	{"SSL", "#FBAA6E", "connectEnd - secureConnectionStart", true,
		func(n *types.NavigationTiming) float64 { return n.ConnectEnd - n.SecureConnectionStart }},
	{"TTFB", "#FACC55", "responseStart - requestStart", false,
		func(n *types.NavigationTiming) float64 { return n.ResponseStart - n.RequestStart }},
	{"Transfer", "#F59363", "responseEnd - responseStart", false,
		func(n *types.NavigationTiming) float64 { return n.ResponseEnd - n.ResponseStart }},
	{"Interactive DOM", "#EF5E79", "domContentLoadedEventStart - responseEnd", false,
		func(n *types.NavigationTiming) float64 { return n.DOMContentLoadedEventStart - n.ResponseEnd }},
	{"Remaining DOM", "#ccc", "domInteractive - domLoading", false,
		func(n *types.NavigationTiming) float64 { return n.DOMInteractive - domLoading(n) }},
	{"DCL", "#9F92D6", "domContentLoadedEventEnd - domContentLoadedEventStart", false,
		func(n *types.NavigationTiming) float64 {
			return n.DOMContentLoadedEventEnd - n.DOMContentLoadedEventStart
		}},
	{"Resource Load", "#42CE68", "loadEventStart - domContentLoadedEventEnd", false,
		func(n *types.NavigationTiming) float64 { return n.LoadEventStart - n.DOMContentLoadedEventEnd }},
	{"onLoad", "#6AA7F3", "loadEventEnd - loadEventStart", false,
		func(n *types.NavigationTiming) float64 { return n.LoadEventEnd - n.LoadEventStart }},
	{"Total", "#DCE0E5", "loadEventEnd - fetchStart", false,
		func(n *types.NavigationTiming) float64 { return n.LoadEventEnd - n.FetchStart }},
}

// TotalStage is the name of the last stage, drawn from the timeline origin
const TotalStage = "Total"

// domLoading falls back to responseEnd when the browser only exposes Level 2 timing
func domLoading(n *types.NavigationTiming) float64 {
	if n.DOMLoading > 0 {
		return n.DOMLoading
	}
	return n.ResponseEnd
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Result is the output of Normalize
type Result struct {
	Metrics   types.Metrics
	Waterfall []types.WaterfallStage
	Synthetic bool // Waterfall was generated because no navigation record was available
}

// Normalize derives scalar metrics and the 14-stage waterfall from a navigation record.
// A nil navigation record never fails: the waterfall is replaced by one built from
// fallback and metrics are derived from paint/LCP entries only.
func Normalize(nav *types.NavigationTiming, paint []types.PaintEntry, lcp []types.LCPEntry, fallback func() []types.WaterfallStage) Result {
	var res Result

	if nav != nil {
		res.Metrics = types.Metrics{
			TTFB:             nav.ResponseStart - nav.DomainLookupStart,
			FirstRender:      nav.ResponseEnd - nav.FetchStart,
			FirstInteractive: nav.DOMInteractive - nav.FetchStart,
			DOMReady:         nav.DOMContentLoadedEventEnd - nav.FetchStart,
			PageLoad:         nav.LoadEventStart - nav.FetchStart,
		}
		res.Waterfall = Waterfall(nav)
	} else {
		if fallback == nil {
			fallback = ZeroWaterfall
		}
		res.Waterfall = fallback()
		res.Synthetic = true
	}

	res.Metrics.FirstPaint = res.Metrics.FirstRender
	res.Metrics.FCP = res.Metrics.FirstRender
	res.Metrics.FMP = res.Metrics.FirstRender

	for _, p := range paint {
		if p.StartTime <= 0 {
			continue
		}
		switch p.Name {
		case types.PaintFirstPaint:
			res.Metrics.FirstPaint = p.StartTime
		case types.PaintFirstContentfulPaint:
			res.Metrics.FCP = p.StartTime
		}
	}

	// LCP candidates keep arriving during page life; the last one wins
	if len(lcp) > 0 {
		last := lcp[len(lcp)-1]
		v := last.StartTime
		if v == 0 {
			v = last.RenderTime
		}
		res.Metrics.FMP = v
	}

	return res
}

// Waterfall builds the fixed 14-stage sequence from a navigation record.
// Every value is clamped to 0 when timestamps are inverted.
func Waterfall(nav *types.NavigationTiming) []types.WaterfallStage {
	stages := make([]types.WaterfallStage, 0, StageCount)
	for _, def := range stageDefs {
		stages = append(stages, types.WaterfallStage{
			Name:     def.name,
			Value:    clamp(def.value(nav)),
			Color:    def.color,
			Formula:  def.formula,
			Parallel: def.parallel,
		})
	}
	return stages
}

// FromValues builds a waterfall with the fixed names, colors and formulas and the
// given values. Missing trailing values are 0; negative values are clamped.
func FromValues(values []float64) []types.WaterfallStage {
	stages := make([]types.WaterfallStage, 0, StageCount)
	for i, def := range stageDefs {
		var v float64
		if i < len(values) {
			v = clamp(values[i])
		}
		stages = append(stages, types.WaterfallStage{
			Name:     def.name,
			Value:    v,
			Color:    def.color,
			Formula:  def.formula,
			Parallel: def.parallel,
		})
	}
	return stages
}

// ZeroWaterfall returns the fixed stage list with every value at 0
func ZeroWaterfall() []types.WaterfallStage {
	return FromValues(nil)
}

// StageNames returns the stage names in order
func StageNames() []string {
	names := make([]string, 0, StageCount)
	for _, def := range stageDefs {
		names = append(names, def.name)
	}
	return names
}
