package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/chart"
	"github.com/studiowebux/perfscope/internal/clipboard"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/render"
	"github.com/studiowebux/perfscope/internal/server"
	"github.com/studiowebux/perfscope/internal/source"
	"github.com/studiowebux/perfscope/internal/tui"
	"github.com/studiowebux/perfscope/internal/version"
	"gopkg.in/yaml.v3"
)

// Stubbed in tests
var (
	copyText = clipboard.Copy
	runTUI   = tui.Run
)

// TUI opens the interactive viewer; r in the viewer collects again
func TUI(ctx context.Context, opts RunOptions) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	report, err := e.collect(ctx, opts)
	if err != nil {
		return err
	}
	s, err := e.newSession(report, opts.Page)
	if err != nil {
		return err
	}

	refreshOpts := opts
	refreshOpts.SavePath = ""
	return runTUI(s, tui.Options{
		Render: render.Options{BreakdownTopN: e.cfg.BreakdownTopN},
		Refresh: func(ctx context.Context) (*collector.Report, error) {
			return e.collect(ctx, refreshOpts)
		},
	})
}

// Chart exports every chart of a pass to dir (the charts directory when empty)
func Chart(ctx context.Context, opts RunOptions, dir, format string) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	report, err := e.collect(ctx, opts)
	if err != nil {
		return err
	}

	if dir == "" {
		dir = config.ChartsDir
	}
	if dir == "" {
		dir = "charts"
	}

	paths, err := chart.ExportAll(ctx, report, dir, format, e.logger)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(e.errOut, "No charts written: nothing to plot")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(e.out, p)
	}
	return nil
}

// CopyDomains copies the distinct domains of a pass, one per line.
// With domain set only that domain is copied, if the report contains it.
func CopyDomains(ctx context.Context, opts RunOptions, domain string) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	report, err := e.collect(ctx, opts)
	if err != nil {
		return err
	}

	domains := analytics.DistinctDomains(report.ResourceData.Resources)
	if domain != "" {
		found := false
		for _, d := range domains {
			if d == domain {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
		}
		domains = []string{domain}
	}
	if len(domains) == 0 {
		fmt.Fprintln(e.errOut, "No domains to copy")
		return nil
	}

	method, err := copyText(strings.Join(domains, "\n"))
	if err != nil {
		return err
	}

	switch method {
	case clipboard.MethodOSC52:
		fmt.Fprintf(e.errOut, "Copied %d domains via terminal escape sequence (no system clipboard)\n", len(domains))
	default:
		fmt.Fprintf(e.errOut, "Copied %d domains to clipboard\n", len(domains))
	}
	return nil
}

// Serve runs the HTTP endpoint until ctx is done
func Serve(ctx context.Context, opts RunOptions, addr string) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}

	srv := server.New(collector.New(e.cfg, e.logger), source.NewSynthetic(e.cfg.Synthetic.Seed), e.logger)
	if err := srv.Start(addr); err != nil {
		return err
	}
	fmt.Fprintf(e.errOut, "Serving on %s (Ctrl+C to stop)\n", srv.GetAddress())

	<-ctx.Done()
	e.logger.Info("shutting down")
	return srv.Stop()
}

// ConfigInit writes the default configuration to path (the global config when empty)
func ConfigInit(path string, force bool, out io.Writer) error {
	if path == "" {
		path = config.ConfigFile
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config written to %s\n", path)
	return nil
}

// ConfigShow prints the effective configuration as YAML
func ConfigShow(opts RunOptions) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(e.cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = e.out.Write(data)
	return err
}

// Version prints the version and, when check is set, whether a newer release exists
func Version(ctx context.Context, check bool, out io.Writer) error {
	fmt.Fprintf(out, "perfscope %s\n", version.Version)
	if !check {
		return nil
	}

	u, err := version.CheckForUpdate(ctx, version.Version)
	if err != nil {
		return err
	}
	if u.Available {
		fmt.Fprintf(out, "A newer version is available: %s (%s)\n", u.Latest, u.URL)
	} else {
		fmt.Fprintln(out, "You are on the latest version")
	}
	return nil
}
