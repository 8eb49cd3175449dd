package chart

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/source"
	"github.com/studiowebux/perfscope/internal/timing"
	"github.com/studiowebux/perfscope/internal/types"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestWaterfall_PNG(t *testing.T) {
	stages := timing.FromValues([]float64{0, 0, 5, 10, 30, 20, 40, 10, 100, 50, 20, 200, 10, 475})

	var buf bytes.Buffer
	if err := Waterfall(&buf, FormatPNG, stages); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("Expected PNG output")
	}
}

func TestWaterfall_Empty(t *testing.T) {
	err := Waterfall(&bytes.Buffer{}, FormatPNG, timing.ZeroWaterfall())
	if !errors.Is(err, ErrEmptyChart) {
		t.Errorf("Expected ErrEmptyChart, got %v", err)
	}
}

func TestPie_SVG(t *testing.T) {
	var buf bytes.Buffer
	err := Pie(&buf, FormatSVG, "Requests by type", map[string]int{"js": 3, "css": 1})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("Expected SVG output")
	}
}

func TestPie_Empty(t *testing.T) {
	err := Pie(&bytes.Buffer{}, FormatPNG, "empty", map[string]int{"js": 0})
	if !errors.Is(err, ErrEmptyChart) {
		t.Errorf("Expected ErrEmptyChart, got %v", err)
	}
}

func TestDomainTimes_Empty(t *testing.T) {
	if err := DomainTimes(&bytes.Buffer{}, FormatPNG, nil); !errors.Is(err, ErrEmptyChart) {
		t.Errorf("Expected ErrEmptyChart, got %v", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if err := Pie(&bytes.Buffer{}, "gif", "x", map[string]int{"a": 1}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestCacheShares(t *testing.T) {
	entries := []types.ResourceEntry{
		{URL: "a", Cached: true},
		{URL: "b", Cached: true, Opaque: true}, // falsy policy marks cached zero-byte entries opaque
		{URL: "c", Opaque: true},
		{URL: "d"},
		{URL: "e"},
	}

	s := CacheShares(entries)
	if s["cached"] != 1 || s["opaque"] != 2 || s["network"] != 2 {
		t.Errorf("Unexpected shares: %v", s)
	}
	if s["cached"]+s["opaque"]+s["network"] != len(entries) {
		t.Errorf("Expected shares to cover every entry once, got %v", s)
	}
}

func TestExportAll(t *testing.T) {
	cfg := config.Default()
	snap, _ := source.NewSynthetic(5).Fetch(context.Background())
	report, err := collector.New(cfg, nil).Analyze(snap)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := ExportAll(context.Background(), report, dir, FormatPNG, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(paths) != 5 {
		t.Fatalf("Expected 5 charts, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("Expected non-empty file %s (%v)", p, err)
		}
	}
}
