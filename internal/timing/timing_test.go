package timing

import (
	"testing"

	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/types"
)

func scenarioNav() *types.NavigationTiming {
	return &types.NavigationTiming{
		FetchStart:               0,
		DomainLookupStart:        10,
		ResponseStart:            50,
		ResponseEnd:              120,
		DOMInteractive:           200,
		DOMContentLoadedEventEnd: 250,
		LoadEventStart:           300,
	}
}

func TestNormalize_EndToEndScenario(t *testing.T) {
	res := Normalize(scenarioNav(), nil, nil, nil)

	m := res.Metrics
	if m.TTFB != 40 {
		t.Errorf("Expected ttfb 40, got %v", m.TTFB)
	}
	if m.FirstRender != 120 {
		t.Errorf("Expected firstRender 120, got %v", m.FirstRender)
	}
	if m.FirstInteractive != 200 {
		t.Errorf("Expected firstInteractive 200, got %v", m.FirstInteractive)
	}
	if m.DOMReady != 250 {
		t.Errorf("Expected domReady 250, got %v", m.DOMReady)
	}
	if m.PageLoad != 300 {
		t.Errorf("Expected pageLoad 300, got %v", m.PageLoad)
	}
	if m.FirstPaint != 120 || m.FCP != 120 || m.FMP != 120 {
		t.Errorf("Expected firstPaint=fcp=fmp=120, got %v/%v/%v", m.FirstPaint, m.FCP, m.FMP)
	}
	if res.Synthetic {
		t.Error("Expected real waterfall")
	}
}

func TestNormalize_PaintOverrides(t *testing.T) {
	paint := []types.PaintEntry{
		{Name: types.PaintFirstPaint, StartTime: 90},
		{Name: types.PaintFirstContentfulPaint, StartTime: 0}, // ignored, not > 0
	}
	res := Normalize(scenarioNav(), paint, nil, nil)

	if res.Metrics.FirstPaint != 90 {
		t.Errorf("Expected firstPaint 90, got %v", res.Metrics.FirstPaint)
	}
	if res.Metrics.FCP != 120 {
		t.Errorf("Expected fcp to keep default 120, got %v", res.Metrics.FCP)
	}
}

func TestNormalize_LastLCPWins(t *testing.T) {
	lcp := []types.LCPEntry{
		{StartTime: 150},
		{StartTime: 400},
		{StartTime: 0, RenderTime: 520},
	}
	res := Normalize(scenarioNav(), nil, lcp, nil)

	if res.Metrics.FMP != 520 {
		t.Errorf("Expected fmp from last candidate renderTime 520, got %v", res.Metrics.FMP)
	}

	res = Normalize(scenarioNav(), nil, lcp[:2], nil)
	if res.Metrics.FMP != 400 {
		t.Errorf("Expected fmp 400, got %v", res.Metrics.FMP)
	}
}

func TestNormalize_MissingNavigationUsesFallback(t *testing.T) {
	called := false
	fallback := func() []types.WaterfallStage {
		called = true
		return FromValues([]float64{1, 2, 3})
	}

	res := Normalize(nil, []types.PaintEntry{{Name: types.PaintFirstContentfulPaint, StartTime: 300}}, nil, fallback)

	if !called {
		t.Fatal("Expected fallback waterfall to be used")
	}
	if !res.Synthetic {
		t.Error("Expected Synthetic flag")
	}
	if len(res.Waterfall) != StageCount {
		t.Fatalf("Expected %d stages, got %d", StageCount, len(res.Waterfall))
	}
	if res.Metrics.FCP != 300 {
		t.Errorf("Expected fcp 300, got %v", res.Metrics.FCP)
	}
	if res.Metrics.TTFB != 0 {
		t.Errorf("Expected ttfb 0, got %v", res.Metrics.TTFB)
	}
}

func TestNormalize_MissingNavigationNilFallback(t *testing.T) {
	res := Normalize(nil, nil, nil, nil)
	if len(res.Waterfall) != StageCount {
		t.Fatalf("Expected %d stages, got %d", StageCount, len(res.Waterfall))
	}
	for _, s := range res.Waterfall {
		if s.Value != 0 {
			t.Errorf("Expected zero value for %s, got %v", s.Name, s.Value)
		}
	}
}

func TestWaterfall_OrderAndFormulas(t *testing.T) {
	expected := []struct {
		name    string
		formula string
	}{
		{"unLoad", "unloadEventEnd - unloadEventStart"},
		{"Redirect", "redirectEnd - redirectStart"},
		{"AppCache", "domainLookupStart - fetchStart"},
		{"DNS", "domainLookupEnd - domainLookupStart"},
		{"TCP", "connectEnd - connectStart"},
		{"SSL", "connectEnd - secureConnectionStart"},
		{"TTFB", "responseStart - requestStart"},
		{"Transfer", "responseEnd - responseStart"},
		{"Interactive DOM", "domContentLoadedEventStart - responseEnd"},
		{"Remaining DOM", "domInteractive - domLoading"},
		{"DCL", "domContentLoadedEventEnd - domContentLoadedEventStart"},
		{"Resource Load", "loadEventStart - domContentLoadedEventEnd"},
		{"onLoad", "loadEventEnd - loadEventStart"},
		{"Total", "loadEventEnd - fetchStart"},
	}

	stages := Waterfall(&types.NavigationTiming{})
	if len(stages) != len(expected) {
		t.Fatalf("Expected %d stages, got %d", len(expected), len(stages))
	}
	for i, e := range expected {
		if stages[i].Name != e.name {
			t.Errorf("Stage %d: expected name %s, got %s", i, e.name, stages[i].Name)
		}
		if stages[i].Formula != e.formula {
			t.Errorf("Stage %s: expected formula %q, got %q", e.name, e.formula, stages[i].Formula)
		}
		if stages[i].Parallel != (e.name == "SSL") {
			t.Errorf("Stage %s: unexpected parallel flag %v", e.name, stages[i].Parallel)
		}
	}
}

func TestWaterfall_Values(t *testing.T) {
	nav := &types.NavigationTiming{
		FetchStart:                 5,
		DomainLookupStart:          8,
		DomainLookupEnd:            20,
		ConnectStart:               20,
		SecureConnectionStart:      30,
		ConnectEnd:                 60,
		RequestStart:               61,
		ResponseStart:              100,
		ResponseEnd:                140,
		DOMLoading:                 145,
		DOMInteractive:             300,
		DOMContentLoadedEventStart: 310,
		DOMContentLoadedEventEnd:   330,
		LoadEventStart:             500,
		LoadEventEnd:               510,
	}

	byName := map[string]float64{}
	for _, s := range Waterfall(nav) {
		byName[s.Name] = s.Value
	}

	checks := map[string]float64{
		"AppCache":        3,
		"DNS":             12,
		"TCP":             40,
		"SSL":             30,
		"TTFB":            39,
		"Transfer":        40,
		"Interactive DOM": 170,
		"Remaining DOM":   155,
		"DCL":             20,
		"Resource Load":   170,
		"onLoad":          10,
		"Total":           505,
	}
	for name, want := range checks {
		if byName[name] != want {
			t.Errorf("Expected %s = %v, got %v", name, want, byName[name])
		}
	}
}

func TestWaterfall_ClampsNegative(t *testing.T) {
	nav := &types.NavigationTiming{
		ConnectStart: 50,
		ConnectEnd:   40, // skewed
		// no TLS: secureConnectionStart is 0, connectEnd - 0 is positive
		LoadEventStart: 100,
		LoadEventEnd:   0, // load not finished
	}

	for _, s := range Waterfall(nav) {
		if s.Value < 0 {
			t.Errorf("Stage %s has negative value %v", s.Name, s.Value)
		}
	}
	stages := Waterfall(nav)
	if stages[4].Value != 0 {
		t.Errorf("Expected TCP clamped to 0, got %v", stages[4].Value)
	}
	if stages[12].Value != 0 {
		t.Errorf("Expected onLoad clamped to 0, got %v", stages[12].Value)
	}
}

func TestWaterfall_DOMLoadingFallback(t *testing.T) {
	nav := &types.NavigationTiming{ResponseEnd: 100, DOMInteractive: 180}
	stages := Waterfall(nav)
	if stages[9].Value != 80 {
		t.Errorf("Expected Remaining DOM 80 using responseEnd, got %v", stages[9].Value)
	}
}

func TestRate(t *testing.T) {
	th := config.Threshold{Good: 200, Medium: 600}
	tests := []struct {
		value float64
		want  Status
	}{
		{0, StatusMedium},
		{-5, StatusMedium},
		{150, StatusGood},
		{200, StatusGood},
		{201, StatusMedium},
		{600, StatusMedium},
		{601, StatusBad},
	}
	for _, tt := range tests {
		if got := Rate(tt.value, th); got != tt.want {
			t.Errorf("Rate(%v): expected %s, got %s", tt.value, tt.want, got)
		}
	}
}

func TestRateAll(t *testing.T) {
	res := Result{Metrics: types.Metrics{TTFB: 100, FCP: 3500, FMP: 3000}}
	r := RateAll(res, config.Default().Thresholds)
	if r.TTFB != StatusGood || r.FCP != StatusBad || r.LCP != StatusMedium {
		t.Errorf("Unexpected ratings: %+v", r)
	}
}
