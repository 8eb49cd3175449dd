package types

import "strings"

// NavigationTiming is the navigation timing record reported by the page.
// Field names follow the browser's PerformanceNavigationTiming entry.
// All values are milliseconds relative to the page's time origin.
type NavigationTiming struct {
	FetchStart                 float64 `json:"fetchStart" yaml:"fetchStart"`
	DomainLookupStart          float64 `json:"domainLookupStart" yaml:"domainLookupStart"`
	DomainLookupEnd            float64 `json:"domainLookupEnd" yaml:"domainLookupEnd"`
	ConnectStart               float64 `json:"connectStart" yaml:"connectStart"`
	ConnectEnd                 float64 `json:"connectEnd" yaml:"connectEnd"`
	SecureConnectionStart      float64 `json:"secureConnectionStart" yaml:"secureConnectionStart"`
	RequestStart               float64 `json:"requestStart" yaml:"requestStart"`
	ResponseStart              float64 `json:"responseStart" yaml:"responseStart"`
	ResponseEnd                float64 `json:"responseEnd" yaml:"responseEnd"`
	DOMLoading                 float64 `json:"domLoading,omitempty" yaml:"domLoading,omitempty"` // Level 1 only; 0 when the browser omits it
	DOMInteractive             float64 `json:"domInteractive" yaml:"domInteractive"`
	DOMContentLoadedEventStart float64 `json:"domContentLoadedEventStart" yaml:"domContentLoadedEventStart"`
	DOMContentLoadedEventEnd   float64 `json:"domContentLoadedEventEnd" yaml:"domContentLoadedEventEnd"`
	LoadEventStart             float64 `json:"loadEventStart" yaml:"loadEventStart"`
	LoadEventEnd               float64 `json:"loadEventEnd" yaml:"loadEventEnd"`
	UnloadEventStart           float64 `json:"unloadEventStart" yaml:"unloadEventStart"`
	UnloadEventEnd             float64 `json:"unloadEventEnd" yaml:"unloadEventEnd"`
	RedirectStart              float64 `json:"redirectStart" yaml:"redirectStart"`
	RedirectEnd                float64 `json:"redirectEnd" yaml:"redirectEnd"`
}

// Paint entry names reported by the browser
const (
	PaintFirstPaint           = "first-paint"
	PaintFirstContentfulPaint = "first-contentful-paint"
)

// PaintEntry is a "paint" performance entry
type PaintEntry struct {
	Name      string  `json:"name" yaml:"name"`
	StartTime float64 `json:"startTime" yaml:"startTime"`
}

// LCPEntry is a "largest-contentful-paint" performance entry.
// The browser emits a new candidate each time a larger element renders.
type LCPEntry struct {
	StartTime  float64 `json:"startTime" yaml:"startTime"`
	RenderTime float64 `json:"renderTime,omitempty" yaml:"renderTime,omitempty"`
}

// RawResource is a resource timing record as read from the page.
// TransferSize is nil when the browser withholds it (cross-origin without
// Timing-Allow-Origin).
type RawResource struct {
	Name            string  `json:"name" yaml:"name"`
	StartTime       float64 `json:"startTime" yaml:"startTime"`
	ResponseEnd     float64 `json:"responseEnd" yaml:"responseEnd"`
	TransferSize    *int64  `json:"transferSize" yaml:"transferSize"`
	EncodedBodySize int64   `json:"encodedBodySize" yaml:"encodedBodySize"`
	DecodedBodySize int64   `json:"decodedBodySize" yaml:"decodedBodySize"`
	InitiatorType   string  `json:"initiatorType" yaml:"initiatorType"`
}

// Snapshot is the complete input of one collection pass
type Snapshot struct {
	PageURL    string            `json:"pageUrl,omitempty" yaml:"pageUrl,omitempty"`
	PageDomain string            `json:"pageDomain,omitempty" yaml:"pageDomain,omitempty"`
	Navigation *NavigationTiming `json:"navigation" yaml:"navigation"`
	Paint      []PaintEntry      `json:"paint,omitempty" yaml:"paint,omitempty"`
	LCP        []LCPEntry        `json:"lcp,omitempty" yaml:"lcp,omitempty"`
	Resources  []RawResource     `json:"resources" yaml:"resources"`
	Synthetic  bool              `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

// ResourceType is the content category of a resource
type ResourceType string

const (
	TypeJS    ResourceType = "js"
	TypeCSS   ResourceType = "css"
	TypeImage ResourceType = "image"
	TypeFont  ResourceType = "font"
	TypeXHR   ResourceType = "xhr"
	TypeHTML  ResourceType = "html"
	TypeJSON  ResourceType = "json"
	TypeOther ResourceType = "other"
)

// Initiator types that mark a resource as an ajax request
const (
	InitiatorXHR   = "xmlhttprequest"
	InitiatorFetch = "fetch"
)

// ResourceEntry is a classified resource. It is never mutated after classification.
type ResourceEntry struct {
	URL             string       `json:"url" yaml:"url"`
	Domain          string       `json:"domain" yaml:"domain"`
	StartTime       float64      `json:"startTime" yaml:"startTime"`
	Duration        float64      `json:"duration" yaml:"duration"`
	TransferSize    *int64       `json:"transferSize" yaml:"transferSize"`
	EncodedBodySize int64        `json:"encodedBodySize" yaml:"encodedBodySize"`
	DecodedBodySize int64        `json:"decodedBodySize" yaml:"decodedBodySize"`
	Type            ResourceType `json:"type" yaml:"type"`
	InitiatorType   string       `json:"initiatorType" yaml:"initiatorType"`
	Cached          bool         `json:"cached" yaml:"cached"`
	Opaque          bool         `json:"opaque" yaml:"opaque"`
}

// IsAjax reports whether the resource was requested by XHR or fetch
func (r ResourceEntry) IsAjax() bool {
	return r.InitiatorType == InitiatorXHR || r.InitiatorType == InitiatorFetch
}

// Transferred returns the transfer size, treating an absent value as 0
func (r ResourceEntry) Transferred() int64 {
	if r.TransferSize == nil {
		return 0
	}
	return *r.TransferSize
}

// Protocol returns HTTPS or HTTP depending on the URL scheme
func (r ResourceEntry) Protocol() string {
	if strings.HasPrefix(strings.ToLower(r.URL), "https") {
		return "HTTPS"
	}
	return "HTTP"
}

// CrossOriginBucket counts opaque resources seen for one domain during a pass
type CrossOriginBucket struct {
	Domain         string         `json:"domain" yaml:"domain"`
	Count          int            `json:"count" yaml:"count"`
	Types          map[string]int `json:"types,omitempty" yaml:"types,omitempty"`
	InitiatorTypes map[string]int `json:"initiatorTypes,omitempty" yaml:"initiatorTypes,omitempty"`
}

// WaterfallStage is one named phase of the page-load waterfall
type WaterfallStage struct {
	Name     string  `json:"name" yaml:"name"`
	Value    float64 `json:"value" yaml:"value"`
	Color    string  `json:"color" yaml:"color"`
	Formula  string  `json:"formula" yaml:"formula"`
	Parallel bool    `json:"parallel,omitempty" yaml:"parallel,omitempty"` // Overlaps the previous stage instead of extending the timeline
}

// Metrics holds the scalar page timing metrics in milliseconds
type Metrics struct {
	TTFB             float64 `json:"ttfb" yaml:"ttfb"`
	FirstRender      float64 `json:"firstRender" yaml:"firstRender"`
	FirstInteractive float64 `json:"firstInteractive" yaml:"firstInteractive"`
	DOMReady         float64 `json:"domReady" yaml:"domReady"`
	PageLoad         float64 `json:"pageLoad" yaml:"pageLoad"`
	FirstPaint       float64 `json:"firstPaint" yaml:"firstPaint"`
	FCP              float64 `json:"fcp" yaml:"fcp"`
	FMP              float64 `json:"fmp" yaml:"fmp"`
}

// ResourceData is the classified resource set handed to the render layer
type ResourceData struct {
	Resources           []ResourceEntry     `json:"resources" yaml:"resources"`
	CrossOriginRequests []CrossOriginBucket `json:"crossOriginRequests" yaml:"crossOriginRequests"`
	PageDomain          string              `json:"pageDomain" yaml:"pageDomain"`
	Ambiguous           []string            `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"` // Zero-byte, non-cached URLs left unclassified by the opaque policy
}

// SlowResources holds the two independent slow-resource rankings
type SlowResources struct {
	SlowStatic []ResourceEntry `json:"slowStatic" yaml:"slowStatic"`
	SlowAjax   []ResourceEntry `json:"slowAjax" yaml:"slowAjax"`
}
