package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/session"
	"github.com/studiowebux/perfscope/internal/timing"
	"github.com/studiowebux/perfscope/internal/types"
)

const waterfallWidth = 40

// Options controls the text report
type Options struct {
	BreakdownTopN int // composite breakdown rows shown; <= 0 shows all
}

// Text renders the full report for the terminal.
// The domain table shows the session's current page.
func Text(s *session.AnalysisSession, opts Options) string {
	r := s.Report()
	if r == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(Header(r))
	sb.WriteString("\n")
	sb.WriteString(Metrics(r))
	sb.WriteString("\n")
	sb.WriteString(Waterfall(r.WaterfallData))
	sb.WriteString("\n")
	sb.WriteString(Summary(r.Analysis.Summary))
	sb.WriteString("\n")
	sb.WriteString(Classification(r.Analysis.Classification, r.ResourceData.PageDomain))
	sb.WriteString("\n")
	sb.WriteString(DomainPage(s))
	sb.WriteString("\n")
	sb.WriteString(CrossOrigin(r.ResourceData.CrossOriginRequests))
	sb.WriteString("\n")
	sb.WriteString(Breakdowns(r.Analysis.Breakdowns, opts.BreakdownTopN))
	sb.WriteString("\n")
	sb.WriteString(SlowResources(r.SlowResources))

	if len(r.ResourceData.Ambiguous) > 0 {
		sb.WriteString("\n")
		sb.WriteString(StyleSection.Render("Zero-byte responses (not cached, not classified opaque)"))
		sb.WriteString("\n")
		for _, u := range r.ResourceData.Ambiguous {
			sb.WriteString(StyleWarning.Render("  ! " + u))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Header renders the provenance line
func Header(r *collector.Report) string {
	var sb strings.Builder
	title := "perfscope"
	if r.ResourceData.PageDomain != "" {
		title += " - " + r.ResourceData.PageDomain
	}
	sb.WriteString(StyleTitle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(StyleSubtle.Render(fmt.Sprintf("source: %s | collected: %s | dropped: %d",
		r.Source, r.CollectedAt.Format("2006-01-02 15:04:05"), r.DroppedResources)))
	sb.WriteString("\n")

	if r.Synthetic {
		msg := "Synthetic data: numbers below are generated, not measured"
		if r.FallbackReason != "" {
			msg += " (" + r.FallbackReason + ")"
		}
		sb.WriteString(StyleWarning.Render(msg))
		sb.WriteString("\n")
	} else if r.SyntheticWaterfall {
		sb.WriteString(StyleWarning.Render("No navigation record: waterfall is synthetic"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Metrics renders the eight scalar metrics, rating TTFB, FCP and LCP
func Metrics(r *collector.Report) string {
	m := r.Metrics
	rows := []struct {
		label  string
		value  float64
		status timing.Status
	}{
		{"TTFB", m.TTFB, r.Ratings.TTFB},
		{"First render", m.FirstRender, ""},
		{"First interactive", m.FirstInteractive, ""},
		{"DOM ready", m.DOMReady, ""},
		{"Page load", m.PageLoad, ""},
		{"First paint", m.FirstPaint, ""},
		{"FCP", m.FCP, r.Ratings.FCP},
		{"LCP", m.FMP, r.Ratings.LCP},
	}

	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Metrics"))
	sb.WriteString("\n")
	for _, row := range rows {
		value := FormatDuration(row.value)
		if row.status != "" {
			value = statusStyle(row.status).Render(fmt.Sprintf("%s (%s)", value, row.status))
		}
		sb.WriteString(fmt.Sprintf("  %-18s %s\n", row.label, value))
	}
	return sb.String()
}

// Waterfall renders the stages as horizontal bars on a shared scale
func Waterfall(stages []types.WaterfallStage) string {
	bars := Layout(stages)
	span := Span(bars)

	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Waterfall"))
	sb.WriteString("\n")

	for _, b := range bars {
		lead, width := 0, 0
		if span > 0 {
			lead = int(math.Round(b.Offset / span * waterfallWidth))
			width = int(math.Round(b.Value / span * waterfallWidth))
		}
		if b.Value > 0 && width == 0 {
			width = 1
		}
		if lead+width > waterfallWidth {
			lead = waterfallWidth - width
		}

		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(strings.Repeat("█", width))
		name := b.Name
		if b.Parallel {
			name += " ∥"
		}
		sb.WriteString(fmt.Sprintf("  %-17s %s%s%s %s\n",
			name,
			strings.Repeat(" ", lead),
			bar,
			strings.Repeat(" ", waterfallWidth-lead-width),
			FormatDuration(b.Value)))
	}
	return sb.String()
}

// Summary renders the global totals
func Summary(s analytics.Summary) string {
	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Resources"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Domains: %d | Requests: %d | Cached: %d | Opaque: %d\n",
		s.Domains, s.Requests, s.CachedCount, s.OpaqueCount))
	sb.WriteString(fmt.Sprintf("  Total time: %s | Average: %s\n",
		FormatDuration(s.TotalDuration), FormatDuration(s.AvgDuration)))
	sb.WriteString(fmt.Sprintf("  Transfer size: %s | Actual size: %s | Network transfer: %s\n",
		FormatSize(s.TransferSize), FormatSize(s.DecodedSize), FormatSize(s.NetworkTransfer)))
	return sb.String()
}

// Classification renders the domain relations to the page
func Classification(c analytics.Classification, pageDomain string) string {
	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Domains relative to " + orDash(pageDomain)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Same domain (%d): %s\n", len(c.SameDomain), joinOrDash(c.SameDomain)))
	sb.WriteString(fmt.Sprintf("  Same root domain (%d): %s\n", len(c.SameRootDomain), joinOrDash(c.SameRootDomain)))
	sb.WriteString(fmt.Sprintf("  Cross domain (%d): %s\n", len(c.CrossDomain), joinOrDash(c.CrossDomain)))
	return sb.String()
}

// DomainPage renders the current page of the domain-detail table
func DomainPage(s *session.AnalysisSession) string {
	c := s.Cursor()
	page := s.Page()

	rows := make([][]string, 0, len(page))
	for _, d := range page {
		rows = append(rows, []string{
			d.Domain,
			fmt.Sprintf("%d", d.Count),
			FormatDuration(d.AvgDuration),
			FormatDuration(d.MinDuration),
			FormatDuration(d.MaxDuration),
			FormatSize(d.TransferSize),
			fmt.Sprintf("%.0f%%", d.CacheRate()),
		})
	}

	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Domain details"))
	sb.WriteString("\n")
	sb.WriteString(newTable([]string{"Domain", "Requests", "Avg", "Min", "Max", "Transfer", "Cache"}, rows))
	sb.WriteString("\n")
	sb.WriteString(StyleSubtle.Render(fmt.Sprintf("Page %d/%d (%d domains)", c.CurrentPage, c.TotalPages, len(s.Domains()))))
	sb.WriteString("\n")
	return sb.String()
}

// CrossOrigin renders the opaque-resource buckets
func CrossOrigin(buckets []types.CrossOriginBucket) string {
	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Cross-origin (opaque) resources"))
	sb.WriteString("\n")
	if len(buckets) == 0 {
		sb.WriteString(StyleSubtle.Render("  none"))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Domain, fmt.Sprintf("%d", b.Count), countsInline(b.Types), countsInline(b.InitiatorTypes)})
	}
	sb.WriteString(newTable([]string{"Domain", "Count", "Types", "Initiators"}, rows))
	sb.WriteString("\n")
	return sb.String()
}

// Breakdowns renders the initiator/type counts. Composite keys are cut to topN.
func Breakdowns(b analytics.Breakdowns, topN int) string {
	var sb strings.Builder
	sb.WriteString(StyleSection.Render("Breakdowns"))
	sb.WriteString("\n")
	sb.WriteString("  By initiator: " + countsInline(b.ByInitiator) + "\n")
	sb.WriteString("  By type: " + countsInline(b.ByType) + "\n")

	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"initiator@domain", b.ByInitiatorDomain},
		{"type@domain", b.ByTypeDomain},
	} {
		top := analytics.TopN(section.counts, topN)
		sb.WriteString(fmt.Sprintf("  Top %s (%d of %d):\n", section.title, len(top), len(section.counts)))
		for _, c := range top {
			sb.WriteString(fmt.Sprintf("    %-48s %d\n", c.Key, c.Count))
		}
	}
	return sb.String()
}

// SlowResources renders both slow rankings
func SlowResources(s types.SlowResources) string {
	var sb strings.Builder
	for _, section := range []struct {
		title   string
		entries []types.ResourceEntry
	}{
		{"Slow static resources", s.SlowStatic},
		{"Slow ajax requests", s.SlowAjax},
	} {
		sb.WriteString(StyleSection.Render(section.title))
		sb.WriteString("\n")
		if len(section.entries) == 0 {
			sb.WriteString(StyleSuccess.Render("  none"))
			sb.WriteString("\n")
			continue
		}
		rows := make([][]string, 0, len(section.entries))
		for _, e := range section.entries {
			rows = append(rows, []string{
				truncate(e.URL, 60),
				string(e.Type),
				e.Protocol(),
				FormatDuration(e.Duration),
				FormatSize(e.Transferred()),
			})
		}
		sb.WriteString(newTable([]string{"URL", "Type", "Protocol", "Duration", "Transfer"}, rows))
		sb.WriteString("\n")
	}
	return sb.String()
}

func newTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleSubtle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	return t.Render()
}

func countsInline(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(counts))
	for _, c := range analytics.TopN(counts, 0) {
		parts = append(parts, fmt.Sprintf("%s:%d", c.Key, c.Count))
	}
	return strings.Join(parts, " ")
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate cuts s to n terminal cells, never inside a multibyte character
func truncate(s string, n int) string {
	return ansi.Truncate(s, n, "...")
}
