package session

import (
	"fmt"
	"testing"

	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/collector"
)

func reportWithDomains(n int) *collector.Report {
	r := &collector.Report{}
	for i := 0; i < n; i++ {
		r.Analysis.Domains = append(r.Analysis.Domains, analytics.DomainDetail{Domain: fmt.Sprintf("d%02d.test", i)})
	}
	return r
}

func TestNewCursor(t *testing.T) {
	tests := []struct {
		total, pageSize, wantPages int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		c := NewCursor(tt.total, tt.pageSize)
		if c.TotalPages != tt.wantPages {
			t.Errorf("NewCursor(%d, %d): expected %d pages, got %d", tt.total, tt.pageSize, tt.wantPages, c.TotalPages)
		}
		if c.CurrentPage != 1 {
			t.Errorf("Expected page 1, got %d", c.CurrentPage)
		}
	}
}

func TestSession_Paging(t *testing.T) {
	s := New(reportWithDomains(25), 10)

	if got := len(s.Page()); got != 10 {
		t.Errorf("Expected 10 rows on page 1, got %d", got)
	}
	if s.Prev() {
		t.Error("Expected Prev to fail on page 1")
	}

	s.Next()
	s.Next()
	page := s.Page()
	if len(page) != 5 {
		t.Errorf("Expected 5 rows on last page, got %d", len(page))
	}
	if page[0].Domain != "d20.test" {
		t.Errorf("Expected d20.test first on page 3, got %s", page[0].Domain)
	}
	if s.Next() {
		t.Error("Expected Next to fail on the last page")
	}

	if err := s.Goto(4); err == nil {
		t.Error("Expected out of range error")
	}
	if err := s.Goto(2); err != nil || s.Cursor().CurrentPage != 2 {
		t.Errorf("Expected page 2, got %d (%v)", s.Cursor().CurrentPage, err)
	}
}

func TestSession_ReplaceRewinds(t *testing.T) {
	s := New(reportWithDomains(25), 10)
	s.Goto(3)

	s.Replace(reportWithDomains(4))

	c := s.Cursor()
	if c.CurrentPage != 1 || c.TotalPages != 1 || c.PageSize != 10 {
		t.Errorf("Expected a fresh cursor, got %+v", c)
	}
	if len(s.Page()) != 4 {
		t.Errorf("Expected 4 rows, got %d", len(s.Page()))
	}
}

func TestSession_Empty(t *testing.T) {
	s := New(nil, 10)
	if len(s.Page()) != 0 {
		t.Error("Expected empty page")
	}
	if s.Next() {
		t.Error("Expected no next page")
	}
}
