package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/filter"
	"github.com/studiowebux/perfscope/internal/logging"
	"github.com/studiowebux/perfscope/internal/render"
	"github.com/studiowebux/perfscope/internal/session"
	"github.com/studiowebux/perfscope/internal/source"
	"github.com/studiowebux/perfscope/internal/types"
)

// SourceOptions selects where a pass reads its snapshot from.
// With nothing set the live tab is used.
type SourceOptions struct {
	Live      bool
	File      string // snapshot JSON/JSONC/YAML
	HAR       string
	Synthetic bool
	Seed      uint64
}

// RunOptions contains options shared by the analysis commands
type RunOptions struct {
	Source       SourceOptions
	ConfigPath   string // empty resolves local then global config
	OutputFormat string // text, json, yaml; empty picks text on a terminal, json otherwise
	Query        string // JMESPath query or $(shell command)
	SavePath     string // write the fetched snapshot here
	Page         int
	PageSize     int
	LogLevel     string

	Out io.Writer
	Err io.Writer
}

// env is the resolved configuration of one command run
type env struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	errOut io.Writer
}

func newEnv(opts RunOptions) (*env, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.GetConfigFilePath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.PageSize > 0 {
		cfg.Pagination.PageSize = opts.PageSize
	}
	if opts.Source.Seed != 0 {
		cfg.Synthetic.Seed = opts.Source.Seed
	}

	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(errOut, level)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, out: out, errOut: errOut}, nil
}

// buildSource resolves the source flags; at most one may be set
func buildSource(o SourceOptions, cfg *config.Config) (source.Source, error) {
	var selected []string
	if o.Live {
		selected = append(selected, "--live")
	}
	if o.File != "" {
		selected = append(selected, "--file")
	}
	if o.HAR != "" {
		selected = append(selected, "--har")
	}
	if o.Synthetic {
		selected = append(selected, "--synthetic")
	}
	if len(selected) > 1 {
		return nil, fmt.Errorf("only one source may be selected, got %s", strings.Join(selected, ", "))
	}

	switch {
	case o.File != "":
		return source.NewFile(o.File), nil
	case o.HAR != "":
		return source.NewHAR(o.HAR), nil
	case o.Synthetic:
		return source.NewSynthetic(cfg.Synthetic.Seed), nil
	default:
		return source.NewLiveTab(cfg.Source.DevToolsURL, cfg.Source.TabURLFilter, cfg.GetSourceTimeout()), nil
	}
}

// recordingSource keeps the snapshot its source returned
type recordingSource struct {
	source.Source
	snap *types.Snapshot
}

func (r *recordingSource) Fetch(ctx context.Context) (*types.Snapshot, error) {
	snap, err := r.Source.Fetch(ctx)
	if err == nil {
		r.snap = snap
	}
	return snap, err
}

// collect runs one pass and saves the snapshot when asked
func (e *env) collect(ctx context.Context, opts RunOptions) (*collector.Report, error) {
	src, err := buildSource(opts.Source, e.cfg)
	if err != nil {
		return nil, err
	}
	rec := &recordingSource{Source: src}

	report, err := collector.New(e.cfg, e.logger).Run(ctx, rec)
	if err != nil {
		return nil, err
	}
	if report.Synthetic {
		e.logger.Warn("report uses synthetic data", "reason", orNone(report.FallbackReason))
	}

	if opts.SavePath != "" {
		if rec.snap == nil {
			e.logger.Warn("nothing to save, the source returned no snapshot", "path", opts.SavePath)
		} else if err := source.SaveSnapshot(opts.SavePath, rec.snap); err != nil {
			return nil, err
		} else {
			fmt.Fprintf(e.errOut, "Snapshot saved to %s\n", opts.SavePath)
		}
	}
	return report, nil
}

func (e *env) newSession(report *collector.Report, page int) (*session.AnalysisSession, error) {
	s := session.New(report, e.cfg.Pagination.PageSize)
	if page > 1 {
		if err := s.Goto(page); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Analyze runs a collection pass and prints the report
func Analyze(ctx context.Context, opts RunOptions) error {
	e, err := newEnv(opts)
	if err != nil {
		return err
	}
	report, err := e.collect(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Query != "" {
		out, err := filter.Apply(report, opts.Query)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		fmt.Fprintln(e.out, out)
		return nil
	}

	format := opts.OutputFormat
	if format == "" {
		format = render.FormatJSON
		if isTerminal(e.out) {
			format = render.FormatText
		}
	}

	if format == render.FormatText {
		s, err := e.newSession(report, opts.Page)
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, render.Text(s, render.Options{BreakdownTopN: e.cfg.BreakdownTopN}))
		return nil
	}

	out, err := render.Marshal(report, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, out)
	return nil
}

// Domains prints one page of the domain-detail table
func Domains(ctx context.Context, opts RunOptions) error {
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

	switch opts.OutputFormat {
	case render.FormatJSON, render.FormatYAML:
		out, err := render.Marshal(s.Page(), opts.OutputFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, out)
	case "", render.FormatText:
		fmt.Fprint(e.out, render.DomainPage(s))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.OutputFormat)
	}
	return nil
}

// isTerminal reports whether w is a character device
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// ErrDomainNotFound is returned when copying a domain the report does not contain
var ErrDomainNotFound = errors.New("domain not found in report")
