package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/studiowebux/perfscope/internal/timing"
	"github.com/studiowebux/perfscope/internal/types"
)

var (
	syntheticDomains      = []string{"cdn.example.com", "api.example.com", "static.example.com", "analytics.example.com"}
	syntheticCrossOrigin  = []string{"cdn1.example.com", "api2.example.com", "ads.example.com"}
	syntheticExtensions   = []string{"js", "css", "png", "woff2", "json", "html"}
	syntheticInitiators   = []string{"script", "link", "img", "css", "xmlhttprequest", "fetch"}
	syntheticOpaqueExts   = []string{"js", "png", "gif"}
	syntheticOpaqueInits  = []string{"script", "img", "img"}
	syntheticResourceSize = 50
)

// SyntheticPageURL is the page the generator pretends to inspect
const SyntheticPageURL = "https://www.example.com/"

// SyntheticSource generates plausible timing data.
// A zero seed draws a fresh random seed per Fetch.
type SyntheticSource struct {
	mu   sync.Mutex
	seed uint64
}

// NewSynthetic creates a synthetic source
func NewSynthetic(seed uint64) *SyntheticSource {
	return &SyntheticSource{seed: seed}
}

// Name implements Source
func (s *SyntheticSource) Name() string {
	return "synthetic"
}

// Fetch implements Source. It never fails.
func (s *SyntheticSource) Fetch(ctx context.Context) (*types.Snapshot, error) {
	s.mu.Lock()
	seed := s.seed
	s.mu.Unlock()

	return Generate(newRand(seed)), nil
}

// Waterfall returns a synthetic 14-stage waterfall for the source's seed
func (s *SyntheticSource) Waterfall() []types.WaterfallStage {
	s.mu.Lock()
	seed := s.seed
	s.mu.Unlock()

	return SyntheticWaterfall(newRand(seed))
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns an integer in [lo, hi)
func between(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo)
}

// Generate builds a full snapshot: a navigation record consistent with its own
// stages, paint and LCP entries, 50 same-site resources and a few opaque
// cross-origin ones.
func Generate(r *rand.Rand) *types.Snapshot {
	snap := &types.Snapshot{
		PageURL:    SyntheticPageURL,
		PageDomain: "www.example.com",
		Navigation: syntheticNavigation(r),
		Synthetic:  true,
	}

	firstRender := snap.Navigation.ResponseEnd - snap.Navigation.FetchStart
	snap.Paint = []types.PaintEntry{
		{Name: types.PaintFirstPaint, StartTime: firstRender + float64(between(r, 0, 50))},
		{Name: types.PaintFirstContentfulPaint, StartTime: firstRender + float64(between(r, 50, 150))},
	}
	snap.LCP = []types.LCPEntry{
		{StartTime: firstRender + float64(between(r, 150, 300))},
		{StartTime: firstRender + float64(between(r, 300, 600))},
	}

	for i := 0; i < syntheticResourceSize; i++ {
		domain := syntheticDomains[r.IntN(len(syntheticDomains))]
		ext := syntheticExtensions[r.IntN(len(syntheticExtensions))]
		start := float64(between(r, 0, 1000))
		duration := float64(between(r, 20, 520))

		transfer := int64(between(r, 1000, 101000))
		// Roughly one in eight is served from cache
		if r.IntN(8) == 0 {
			transfer = 0
		}

		snap.Resources = append(snap.Resources, types.RawResource{
			Name:            fmt.Sprintf("https://%s/resource-%d.%s", domain, i, ext),
			StartTime:       start,
			ResponseEnd:     start + duration,
			TransferSize:    &transfer,
			EncodedBodySize: int64(between(r, 500, 50500)),
			DecodedBodySize: int64(between(r, 2000, 202000)),
			InitiatorType:   syntheticInitiators[r.IntN(len(syntheticInitiators))],
		})
	}

	n := syntheticResourceSize
	for _, domain := range syntheticCrossOrigin {
		count := between(r, 1, 11)
		for j := 0; j < count; j++ {
			k := r.IntN(len(syntheticOpaqueExts))
			start := float64(between(r, 0, 1000))
			snap.Resources = append(snap.Resources, types.RawResource{
				Name:          fmt.Sprintf("https://%s/asset-%d.%s", domain, n, syntheticOpaqueExts[k]),
				StartTime:     start,
				ResponseEnd:   start + float64(between(r, 20, 520)),
				InitiatorType: syntheticOpaqueInits[k],
			})
			n++
		}
	}

	return snap
}

// syntheticNavigation lays random stage durations end to end from fetchStart
func syntheticNavigation(r *rand.Rand) *types.NavigationTiming {
	nav := &types.NavigationTiming{}
	t := float64(between(r, 1, 10))

	nav.FetchStart = t
	t += float64(between(r, 0, 10))
	nav.DomainLookupStart = t
	t += float64(between(r, 5, 60))
	nav.DomainLookupEnd = t
	nav.ConnectStart = t
	nav.SecureConnectionStart = t + float64(between(r, 10, 40))
	t = nav.SecureConnectionStart + float64(between(r, 20, 80))
	nav.ConnectEnd = t
	nav.RequestStart = t + 1
	t = nav.RequestStart + float64(between(r, 30, 300))
	nav.ResponseStart = t
	t += float64(between(r, 10, 150))
	nav.ResponseEnd = t
	nav.DOMLoading = t + float64(between(r, 1, 10))
	nav.DOMInteractive = nav.DOMLoading + float64(between(r, 200, 800))
	nav.DOMContentLoadedEventStart = nav.DOMInteractive + float64(between(r, 0, 20))
	nav.DOMContentLoadedEventEnd = nav.DOMContentLoadedEventStart + float64(between(r, 5, 60))
	nav.LoadEventStart = nav.DOMContentLoadedEventEnd + float64(between(r, 300, 1000))
	nav.LoadEventEnd = nav.LoadEventStart + float64(between(r, 1, 30))

	return nav
}

// SyntheticWaterfall returns random stage values with Total equal to the sum
// of the non-parallel stages
func SyntheticWaterfall(r *rand.Rand) []types.WaterfallStage {
	values := make([]float64, timing.StageCount)
	stages := timing.ZeroWaterfall()

	var total float64
	for i := 0; i < timing.StageCount-1; i++ {
		values[i] = float64(between(r, 0, 300))
		if !stages[i].Parallel {
			total += values[i]
		}
	}
	values[timing.StageCount-1] = total

	return timing.FromValues(values)
}
