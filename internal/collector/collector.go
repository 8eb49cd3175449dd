package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/classify"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/logging"
	"github.com/studiowebux/perfscope/internal/ranking"
	"github.com/studiowebux/perfscope/internal/source"
	"github.com/studiowebux/perfscope/internal/timing"
	"github.com/studiowebux/perfscope/internal/types"
	"github.com/studiowebux/perfscope/internal/validate"
)

// Report is everything one collection pass produces for the render layer
type Report struct {
	Metrics            types.Metrics          `json:"metrics" yaml:"metrics"`
	Ratings            timing.Ratings         `json:"ratings" yaml:"ratings"`
	WaterfallData      []types.WaterfallStage `json:"waterfallData" yaml:"waterfallData"`
	ResourceData       types.ResourceData     `json:"resourceData" yaml:"resourceData"`
	SlowResources      types.SlowResources    `json:"slowResources" yaml:"slowResources"`
	Analysis           analytics.Result       `json:"analysis" yaml:"analysis"`
	Source             string                 `json:"source" yaml:"source"`
	Synthetic          bool                   `json:"synthetic" yaml:"synthetic"`
	SyntheticWaterfall bool                   `json:"syntheticWaterfall,omitempty" yaml:"syntheticWaterfall,omitempty"`
	FallbackReason     string                 `json:"fallbackReason,omitempty" yaml:"fallbackReason,omitempty"`
	DroppedResources   int                    `json:"droppedResources" yaml:"droppedResources"`
	CollectedAt        time.Time              `json:"collectedAt" yaml:"collectedAt"`
}

// Collector runs collection passes
type Collector struct {
	cfg      *config.Config
	logger   *log.Logger
	fallback *source.SyntheticSource
	now      func() time.Time
}

// New creates a collector. A nil config uses the defaults.
func New(cfg *config.Config, logger *log.Logger) *Collector {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Collector{
		cfg:      cfg,
		logger:   logging.OrDiscard(logger),
		fallback: source.NewSynthetic(cfg.Synthetic.Seed),
		now:      time.Now,
	}
}

// Run fetches a snapshot from src and analyzes it.
// When the tab cannot be read the pass falls back once to synthetic data and
// records why; other source errors (unreadable files) are returned.
func (c *Collector) Run(ctx context.Context, src source.Source) (*Report, error) {
	snap, err := src.Fetch(ctx)
	name := src.Name()
	reason := ""

	if err != nil {
		if !Recoverable(err) {
			return nil, fmt.Errorf("failed to collect from %s: %w", name, err)
		}
		c.logger.Warn("falling back to synthetic data", "source", name, "err", err)
		reason = err.Error()
		name = c.fallback.Name()
		snap, err = c.fallback.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("synthetic fallback failed: %w", err)
		}
	}

	report, err := c.Analyze(snap)
	if err != nil {
		return nil, err
	}
	report.Source = name
	report.FallbackReason = reason
	return report, nil
}

// Recoverable reports whether a source error is absorbed by the synthetic fallback
func Recoverable(err error) bool {
	return errors.Is(err, source.ErrTabUnreachable) ||
		errors.Is(err, source.ErrUnsupportedScheme) ||
		errors.Is(err, source.ErrNoNavigation) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Analyze runs the pipeline over an in-memory snapshot:
// classify, validate, tally, normalize, aggregate, rank.
func (c *Collector) Analyze(snap *types.Snapshot) (*Report, error) {
	if snap == nil {
		snap = &types.Snapshot{}
	}

	classifier, err := classify.NewFromName(c.cfg.Classification.OpaquePolicy, c.logger)
	if err != nil {
		return nil, err
	}
	opts := validate.Options{
		RequireTransferSize: c.cfg.Validation.RequireTransferSize,
		Logger:              c.logger,
	}

	entries := classifier.ClassifyAll(snap.Resources)
	valid, dropped := validate.Resources(entries, opts)
	if dropped > 0 {
		c.logger.Debug("dropped invalid resources", "count", dropped)
	}

	tally := classify.NewTally()
	for _, e := range valid {
		tally.Add(e)
	}
	buckets := validate.Buckets(tally.Buckets(), opts)

	norm := timing.Normalize(snap.Navigation, snap.Paint, snap.LCP, c.fallback.Waterfall)
	if norm.Synthetic {
		c.logger.Warn("no navigation record, using a synthetic waterfall")
	}

	pageDomain := snap.PageDomain
	if pageDomain == "" && snap.PageURL != "" {
		pageDomain = classify.Domain(snap.PageURL)
	}

	return &Report{
		Metrics:       norm.Metrics,
		Ratings:       timing.RateAll(norm, c.cfg.Thresholds),
		WaterfallData: norm.Waterfall,
		ResourceData: types.ResourceData{
			Resources:           valid,
			CrossOriginRequests: buckets,
			PageDomain:          pageDomain,
			Ambiguous:           classifier.Ambiguous(valid),
		},
		SlowResources:      ranking.Collect(valid, c.cfg.Slow.ThresholdMs, c.cfg.Slow.TopN),
		Analysis:           analytics.Aggregate(valid, buckets, pageDomain),
		Source:             "snapshot",
		Synthetic:          snap.Synthetic,
		SyntheticWaterfall: norm.Synthetic,
		DroppedResources:   dropped,
		CollectedAt:        c.now(),
	}, nil
}
