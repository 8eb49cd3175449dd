package session

import (
	"fmt"

	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/collector"
)

// DefaultPageSize is the number of domains shown per page
const DefaultPageSize = 10

// Cursor is a page position over the domain-detail table
type Cursor struct {
	CurrentPage int `json:"currentPage" yaml:"currentPage"` // 1-based
	PageSize    int `json:"pageSize" yaml:"pageSize"`
	TotalPages  int `json:"totalPages" yaml:"totalPages"`
}

// NewCursor returns a cursor on page 1 over total rows.
// There is always at least one page, even when empty.
func NewCursor(total, pageSize int) Cursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return Cursor{CurrentPage: 1, PageSize: pageSize, TotalPages: pages}
}

// Bounds returns the [start, end) row range of the current page
func (c Cursor) Bounds(total int) (int, int) {
	start := (c.CurrentPage - 1) * c.PageSize
	if start > total {
		start = total
	}
	end := start + c.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// AnalysisSession holds the result of one collection pass together with the
// pagination state of its domain table. A new pass replaces it entirely.
type AnalysisSession struct {
	report *collector.Report
	cursor Cursor
}

// New creates a session over report
func New(report *collector.Report, pageSize int) *AnalysisSession {
	s := &AnalysisSession{}
	s.reset(report, pageSize)
	return s
}

// Replace swaps in the result of a new pass and rewinds to page 1
func (s *AnalysisSession) Replace(report *collector.Report) {
	s.reset(report, s.cursor.PageSize)
}

func (s *AnalysisSession) reset(report *collector.Report, pageSize int) {
	s.report = report
	s.cursor = NewCursor(len(s.Domains()), pageSize)
}

// Report returns the underlying report
func (s *AnalysisSession) Report() *collector.Report {
	return s.report
}

// Cursor returns the current pagination state
func (s *AnalysisSession) Cursor() Cursor {
	return s.cursor
}

// Domains returns every domain detail in display order
func (s *AnalysisSession) Domains() []analytics.DomainDetail {
	if s.report == nil {
		return nil
	}
	return s.report.Analysis.Domains
}

// Page returns the domain details of the current page
func (s *AnalysisSession) Page() []analytics.DomainDetail {
	domains := s.Domains()
	start, end := s.cursor.Bounds(len(domains))
	return domains[start:end]
}

// Next moves to the next page. It reports whether the page changed.
func (s *AnalysisSession) Next() bool {
	if s.cursor.CurrentPage >= s.cursor.TotalPages {
		return false
	}
	s.cursor.CurrentPage++
	return true
}

// Prev moves to the previous page. It reports whether the page changed.
func (s *AnalysisSession) Prev() bool {
	if s.cursor.CurrentPage <= 1 {
		return false
	}
	s.cursor.CurrentPage--
	return true
}

// Goto jumps to a 1-based page
func (s *AnalysisSession) Goto(page int) error {
	if page < 1 || page > s.cursor.TotalPages {
		return fmt.Errorf("page %d out of range (1-%d)", page, s.cursor.TotalPages)
	}
	s.cursor.CurrentPage = page
	return nil
}
