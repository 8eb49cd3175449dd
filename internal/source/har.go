package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/studiowebux/perfscope/internal/types"
)

// HARFile represents the HAR file structure
type HARFile struct {
	Log HARLog `json:"log"`
}

// HARLog represents the log section of HAR
type HARLog struct {
	Version string     `json:"version"`
	Pages   []HARPage  `json:"pages"`
	Entries []HAREntry `json:"entries"`
}

// HARPage represents one page of the log
type HARPage struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	StartedDateTime string          `json:"startedDateTime"`
	PageTimings     *HARPageTimings `json:"pageTimings,omitempty"`
}

// HARPageTimings holds page-level event times relative to page start, -1 when unknown
type HARPageTimings struct {
	OnContentLoad float64 `json:"onContentLoad"`
	OnLoad        float64 `json:"onLoad"`
}

// HAREntry represents a single request/response with its timings
type HAREntry struct {
	PageRef         string      `json:"pageref"`
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
	Timings         HARTimings  `json:"timings"`
	ResourceType    string      `json:"_resourceType,omitempty"` // Chrome extension field
}

// HARRequest represents the request part of an entry
type HARRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// HARResponse represents the response part of an entry
type HARResponse struct {
	Status       int        `json:"status"`
	HeadersSize  int64      `json:"headersSize"`
	BodySize     int64      `json:"bodySize"`
	Content      HARContent `json:"content"`
	TransferSize *int64     `json:"_transferSize,omitempty"` // Chrome extension field
}

// HARContent represents response content
type HARContent struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// HARTimings holds per-phase durations in ms, -1 when not applicable.
// ssl is included in connect.
type HARTimings struct {
	Blocked float64 `json:"blocked"`
	DNS     float64 `json:"dns"`
	Connect float64 `json:"connect"`
	SSL     float64 `json:"ssl"`
	Send    float64 `json:"send"`
	Wait    float64 `json:"wait"`
	Receive float64 `json:"receive"`
}

// HARSource reads a HAR capture and rebuilds a snapshot from it
type HARSource struct {
	Path string
}

// NewHAR creates a HAR source
func NewHAR(path string) *HARSource {
	return &HARSource{Path: path}
}

// Name implements Source
func (h *HARSource) Name() string {
	return "har:" + filepath.Base(h.Path)
}

// Fetch implements Source
func (h *HARSource) Fetch(ctx context.Context) (*types.Snapshot, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HAR file: %w", err)
	}

	var har HARFile
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("failed to parse HAR file: %w", err)
	}

	return FromHAR(&har)
}

// FromHAR converts the first page of a HAR log into a snapshot.
// The first entry is the document: its timings become the navigation record
// (when page timings exist) and every later entry becomes a resource.
func FromHAR(har *HARFile) (*types.Snapshot, error) {
	entries := har.Log.Entries
	if len(har.Log.Pages) > 0 {
		pageID := har.Log.Pages[0].ID
		var onPage []HAREntry
		for _, e := range entries {
			if e.PageRef == "" || e.PageRef == pageID {
				onPage = append(onPage, e)
			}
		}
		entries = onPage
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries found in HAR file")
	}

	started := make([]time.Time, len(entries))
	for i, e := range entries {
		t, err := time.Parse(time.RFC3339Nano, e.StartedDateTime)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid startedDateTime %q: %w", i, e.StartedDateTime, err)
		}
		started[i] = t
	}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return started[order[a]].Before(started[order[b]])
	})

	doc := entries[order[0]]
	origin := started[order[0]]

	snap := &types.Snapshot{
		PageURL:    doc.Request.URL,
		PageDomain: hostOf(doc.Request.URL),
	}

	var pageTimings *HARPageTimings
	if len(har.Log.Pages) > 0 {
		pageTimings = har.Log.Pages[0].PageTimings
	}
	if pageTimings != nil {
		snap.Navigation = navigationFromHAR(doc.Timings, pageTimings)
	}

	for _, idx := range order[1:] {
		e := entries[idx]
		if !strings.HasPrefix(e.Request.URL, "http://") && !strings.HasPrefix(e.Request.URL, "https://") {
			continue
		}
		start := float64(started[idx].Sub(origin).Microseconds()) / 1000
		snap.Resources = append(snap.Resources, types.RawResource{
			Name:            e.Request.URL,
			StartTime:       start,
			ResponseEnd:     start + nonNeg(e.Time),
			TransferSize:    transferSizeOf(e.Response),
			EncodedBodySize: max(e.Response.BodySize, 0),
			DecodedBodySize: max(e.Response.Content.Size, 0),
			InitiatorType:   initiatorOf(e.ResourceType),
		})
	}

	return snap, nil
}

// navigationFromHAR lays the document's phases end to end from fetchStart = 0
func navigationFromHAR(t HARTimings, pt *HARPageTimings) *types.NavigationTiming {
	nav := &types.NavigationTiming{}

	nav.DomainLookupStart = nonNeg(t.Blocked)
	nav.DomainLookupEnd = nav.DomainLookupStart + nonNeg(t.DNS)
	nav.ConnectStart = nav.DomainLookupEnd
	nav.ConnectEnd = nav.ConnectStart + nonNeg(t.Connect)
	if t.SSL > 0 {
		nav.SecureConnectionStart = nav.ConnectEnd - t.SSL
	}
	nav.RequestStart = nav.ConnectEnd
	nav.ResponseStart = nav.RequestStart + nonNeg(t.Send) + nonNeg(t.Wait)
	nav.ResponseEnd = nav.ResponseStart + nonNeg(t.Receive)

	dcl := nav.ResponseEnd
	if pt.OnContentLoad > 0 {
		dcl = pt.OnContentLoad
	}
	nav.DOMInteractive = dcl
	nav.DOMContentLoadedEventStart = dcl
	nav.DOMContentLoadedEventEnd = dcl

	load := dcl
	if pt.OnLoad > 0 {
		load = pt.OnLoad
	}
	nav.LoadEventStart = load
	nav.LoadEventEnd = load

	return nav
}

// transferSizeOf prefers Chrome's _transferSize, then headers + body.
// Unknown sizes stay absent.
func transferSizeOf(r HARResponse) *int64 {
	if r.TransferSize != nil {
		v := *r.TransferSize
		return &v
	}
	if r.BodySize < 0 {
		return nil
	}
	v := r.BodySize
	if r.HeadersSize > 0 {
		v += r.HeadersSize
	}
	return &v
}

// initiatorOf maps a devtools resource type to a resource timing initiatorType
func initiatorOf(resourceType string) string {
	switch strings.ToLower(resourceType) {
	case "script":
		return "script"
	case "stylesheet":
		return "link"
	case "image":
		return "img"
	case "font":
		return "css"
	case "xhr":
		return types.InitiatorXHR
	case "fetch":
		return types.InitiatorFetch
	case "document":
		return "navigation"
	default:
		return "other"
	}
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
