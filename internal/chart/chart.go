package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/render"
	"github.com/studiowebux/perfscope/internal/types"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyChart is returned when there is nothing to plot
var ErrEmptyChart = errors.New("nothing to plot")

// Image formats
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

const (
	defaultWidth  = 1024
	defaultHeight = 512
	maxDomainBars = 10
)

func provider(format string) (gochart.RendererProvider, error) {
	switch strings.ToLower(format) {
	case FormatPNG, "":
		return gochart.PNG, nil
	case FormatSVG:
		return gochart.SVG, nil
	default:
		return nil, fmt.Errorf("unsupported chart format %q (expected png or svg)", format)
	}
}

// hexColor parses #rgb or #rrggbb
func hexColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return drawing.ColorFromHex(hex)
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// Waterfall draws the stages as horizontal bars: an invisible segment for the
// offset followed by the stage in its own color
func Waterfall(w io.Writer, format string, stages []types.WaterfallStage) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}

	bars := render.Layout(stages)
	if render.Span(bars) <= 0 {
		return ErrEmptyChart
	}

	stacked := make([]gochart.StackedBar, 0, len(bars))
	for _, b := range bars {
		stacked = append(stacked, gochart.StackedBar{
			Name: fmt.Sprintf("%s %s", b.Name, render.FormatDuration(b.Value)),
			Values: []gochart.Value{
				{Value: b.Offset, Style: gochart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent}},
				{Value: b.Value, Style: gochart.Style{FillColor: hexColor(b.Color), StrokeColor: hexColor(b.Color)}},
			},
		})
	}

	c := gochart.StackedBarChart{
		Title:        "Page load waterfall",
		Width:        defaultWidth,
		Height:       defaultHeight,
		Background:   background(),
		IsHorizontal: true,
		BarSpacing:   4,
		Bars:         stacked,
	}
	return c.Render(rp, w)
}

// DomainTimes draws min, avg and max duration per domain as stacked ranges,
// for the slowest domains
func DomainTimes(w io.Writer, format string, domains []analytics.DomainDetail) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		return ErrEmptyChart
	}
	if len(domains) > maxDomainBars {
		domains = domains[:maxDomainBars]
	}

	colorMin := hexColor("#42CE68")
	colorAvg := hexColor("#FACC55")
	colorMax := hexColor("#EF5E79")

	stacked := make([]gochart.StackedBar, 0, len(domains))
	for _, d := range domains {
		stacked = append(stacked, gochart.StackedBar{
			Name: d.Domain,
			Values: []gochart.Value{
				{Label: "min", Value: d.MinDuration, Style: gochart.Style{FillColor: colorMin, StrokeColor: colorMin}},
				{Label: "avg", Value: d.AvgDuration - d.MinDuration, Style: gochart.Style{FillColor: colorAvg, StrokeColor: colorAvg}},
				{Label: "max", Value: d.MaxDuration - d.AvgDuration, Style: gochart.Style{FillColor: colorMax, StrokeColor: colorMax}},
			},
		})
	}

	c := gochart.StackedBarChart{
		Title:      "Domain request time (min / avg / max, ms)",
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: background(),
		BarSpacing: 8,
		Bars:       stacked,
	}
	return c.Render(rp, w)
}

// Pie draws a share chart of counts, largest first
func Pie(w io.Writer, format, title string, counts map[string]int) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}

	top := analytics.TopN(counts, 0)
	values := make([]gochart.Value, 0, len(top))
	for _, c := range top {
		if c.Count <= 0 {
			continue
		}
		values = append(values, gochart.Value{Value: float64(c.Count), Label: fmt.Sprintf("%s (%d)", c.Key, c.Count)})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}

	c := gochart.PieChart{
		Title:      title,
		Width:      defaultHeight,
		Height:     defaultHeight,
		Background: background(),
		Values:     values,
	}
	return c.Render(rp, w)
}

// CacheShares splits the requests into disjoint opaque, cached and network
// shares. An entry that is both opaque and cached counts as opaque.
func CacheShares(entries []types.ResourceEntry) map[string]int {
	shares := map[string]int{"cached": 0, "network": 0, "opaque": 0}
	for _, e := range entries {
		switch {
		case e.Opaque:
			shares["opaque"]++
		case e.Cached:
			shares["cached"]++
		default:
			shares["network"]++
		}
	}
	return shares
}
