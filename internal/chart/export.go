package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ExportAll renders every chart of a report into dir concurrently and returns
// the written paths, sorted. Charts with nothing to plot are skipped.
func ExportAll(ctx context.Context, r *collector.Report, dir, format string, logger *log.Logger) ([]string, error) {
	logger = logging.OrDiscard(logger)
	if _, err := provider(format); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatPNG
	}

	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	jobs := map[string]func(*bytes.Buffer) error{
		"waterfall": func(b *bytes.Buffer) error { return Waterfall(b, format, r.WaterfallData) },
		"domains":   func(b *bytes.Buffer) error { return DomainTimes(b, format, r.Analysis.Domains) },
		"types": func(b *bytes.Buffer) error {
			return Pie(b, format, "Requests by type", r.Analysis.Breakdowns.ByType)
		},
		"initiators": func(b *bytes.Buffer) error {
			return Pie(b, format, "Requests by initiator", r.Analysis.Breakdowns.ByInitiator)
		},
		"cache": func(b *bytes.Buffer) error {
			return Pie(b, format, "Cache usage", CacheShares(r.ResourceData.Resources))
		},
	}

	var (
		mu      sync.Mutex
		written []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for name, draw := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := draw(&buf); err != nil {
				if errors.Is(err, ErrEmptyChart) {
					logger.Debug("skipping empty chart", "chart", name)
					return nil
				}
				return fmt.Errorf("failed to render %s chart: %w", name, err)
			}

			path := filepath.Join(dir, name+"."+format)
			if err := os.WriteFile(path, buf.Bytes(), config.FilePermissions); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(written)
	return written, nil
}
