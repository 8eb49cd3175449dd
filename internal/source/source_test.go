package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studiowebux/perfscope/internal/types"
)

func TestSynthetic_DeterministicWithSeed(t *testing.T) {
	a, _ := NewSynthetic(42).Fetch(context.Background())
	b, _ := NewSynthetic(42).Fetch(context.Background())

	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical snapshots for the same seed")
	}
	if !a.Synthetic {
		t.Error("Expected Synthetic flag")
	}
	if a.Navigation == nil {
		t.Fatal("Expected a navigation record")
	}
}

func TestSynthetic_Shape(t *testing.T) {
	snap, err := NewSynthetic(7).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(snap.Resources) < syntheticResourceSize+len(syntheticCrossOrigin) {
		t.Errorf("Expected at least %d resources, got %d", syntheticResourceSize+len(syntheticCrossOrigin), len(snap.Resources))
	}

	opaque := map[string]int{}
	for _, r := range snap.Resources {
		if r.ResponseEnd < r.StartTime {
			t.Errorf("Resource %s ends before it starts", r.Name)
		}
		if r.TransferSize == nil {
			opaque[hostOf(r.Name)]++
		}
	}
	for _, d := range syntheticCrossOrigin {
		if opaque[d] < 1 || opaque[d] > 10 {
			t.Errorf("Expected 1-10 opaque resources for %s, got %d", d, opaque[d])
		}
	}

	nav := snap.Navigation
	if !(nav.FetchStart <= nav.DomainLookupStart && nav.ResponseStart < nav.ResponseEnd && nav.LoadEventStart <= nav.LoadEventEnd) {
		t.Errorf("Navigation timestamps out of order: %+v", nav)
	}
}

func TestSyntheticWaterfall_TotalIsSumOfSequentialStages(t *testing.T) {
	stages := NewSynthetic(3).Waterfall()
	if len(stages) != 14 {
		t.Fatalf("Expected 14 stages, got %d", len(stages))
	}

	var sum float64
	for _, s := range stages[:13] {
		if !s.Parallel {
			sum += s.Value
		}
	}
	if stages[13].Value != sum {
		t.Errorf("Expected Total %v, got %v", sum, stages[13].Value)
	}
}

func TestFileSource_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.jsonc")
	content := `{
  // captured from staging
  "pageUrl": "https://shop.example.com/cart",
  "navigation": {"fetchStart": 0, "responseStart": 50, "responseEnd": 120},
  "resources": [
    {"name": "https://cdn.example.com/a.js", "startTime": 1, "responseEnd": 30, "transferSize": 0},
    {"name": "https://ads.test/p.gif", "startTime": 2, "responseEnd": 80}, // opaque
  ],
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewFile(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if snap.PageDomain != "shop.example.com" {
		t.Errorf("Expected page domain derived from url, got %q", snap.PageDomain)
	}
	if len(snap.Resources) != 2 {
		t.Fatalf("Expected 2 resources, got %d", len(snap.Resources))
	}
	if snap.Resources[0].TransferSize == nil || *snap.Resources[0].TransferSize != 0 {
		t.Error("Expected explicit zero transferSize to be kept")
	}
	if snap.Resources[1].TransferSize != nil {
		t.Error("Expected missing transferSize to stay absent")
	}
}

func TestFileSource_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yaml")
	content := `
pageDomain: example.com
resources:
  - name: https://example.com/app.css
    startTime: 5
    responseEnd: 25
    transferSize: 300
    initiatorType: link
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewFile(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snap.Resources) != 1 || *snap.Resources[0].TransferSize != 300 {
		t.Errorf("Unexpected resources: %+v", snap.Resources)
	}
	if snap.Navigation != nil {
		t.Error("Expected nil navigation")
	}
}

func TestFileSource_Missing(t *testing.T) {
	if _, err := NewFile(filepath.Join(t.TempDir(), "none.json")).Fetch(context.Background()); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	snap := Generate(newRand(11))
	if err := SaveSnapshot(path, snap); err != nil {
		t.Fatal(err)
	}
	loaded, err := NewFile(path).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Resources) != len(snap.Resources) {
		t.Errorf("Expected %d resources, got %d", len(snap.Resources), len(loaded.Resources))
	}
}

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "pages": [{"id": "page_1", "startedDateTime": "2026-01-02T10:00:00.000Z",
               "pageTimings": {"onContentLoad": 400, "onLoad": 900}}],
    "entries": [
      {"pageref": "page_1", "startedDateTime": "2026-01-02T10:00:00.100Z", "time": 50,
       "request": {"method": "GET", "url": "https://cdn.example.com/app.js"},
       "response": {"status": 200, "headersSize": 100, "bodySize": 900, "content": {"size": 3000}},
       "timings": {"blocked": 1, "dns": -1, "connect": -1, "ssl": -1, "send": 1, "wait": 40, "receive": 8},
       "_resourceType": "script"},
      {"pageref": "page_1", "startedDateTime": "2026-01-02T10:00:00.000Z", "time": 120,
       "request": {"method": "GET", "url": "https://www.example.com/"},
       "response": {"status": 200, "headersSize": 200, "bodySize": 5000, "content": {"size": 20000}},
       "timings": {"blocked": 2, "dns": 10, "connect": 30, "ssl": 20, "send": 1, "wait": 50, "receive": 27},
       "_resourceType": "document"},
      {"pageref": "page_1", "startedDateTime": "2026-01-02T10:00:00.200Z", "time": 30,
       "request": {"method": "GET", "url": "https://api.example.com/items"},
       "response": {"status": 200, "headersSize": -1, "bodySize": -1, "content": {"size": 10}, "_transferSize": 0},
       "timings": {"blocked": 0, "dns": -1, "connect": -1, "ssl": -1, "send": 0, "wait": 25, "receive": 5},
       "_resourceType": "fetch"},
      {"pageref": "page_1", "startedDateTime": "2026-01-02T10:00:00.300Z", "time": 10,
       "request": {"method": "GET", "url": "data:image/png;base64,AAAA"},
       "response": {"status": 200, "headersSize": -1, "bodySize": -1, "content": {"size": 4}},
       "timings": {"blocked": 0, "dns": -1, "connect": -1, "ssl": -1, "send": 0, "wait": 0, "receive": 0}}
    ]
  }
}`

func TestHARSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.har")
	if err := os.WriteFile(path, []byte(sampleHAR), 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewHAR(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if snap.PageURL != "https://www.example.com/" || snap.PageDomain != "www.example.com" {
		t.Errorf("Expected the earliest entry as document, got %s (%s)", snap.PageURL, snap.PageDomain)
	}

	nav := snap.Navigation
	if nav == nil {
		t.Fatal("Expected navigation from page timings")
	}
	if nav.DomainLookupStart != 2 || nav.DomainLookupEnd != 12 || nav.ConnectEnd != 42 {
		t.Errorf("Unexpected connection phases: %+v", nav)
	}
	if nav.SecureConnectionStart != 22 {
		t.Errorf("Expected secureConnectionStart 22, got %v", nav.SecureConnectionStart)
	}
	if nav.ResponseStart != 93 || nav.ResponseEnd != 120 {
		t.Errorf("Expected response 93-120, got %v-%v", nav.ResponseStart, nav.ResponseEnd)
	}
	if nav.DOMContentLoadedEventEnd != 400 || nav.LoadEventStart != 900 {
		t.Errorf("Expected page timings 400/900, got %v/%v", nav.DOMContentLoadedEventEnd, nav.LoadEventStart)
	}

	// document excluded, data: URL skipped
	if len(snap.Resources) != 2 {
		t.Fatalf("Expected 2 resources, got %d", len(snap.Resources))
	}
	js := snap.Resources[0]
	if js.StartTime != 100 || js.ResponseEnd != 150 {
		t.Errorf("Expected js at 100-150, got %v-%v", js.StartTime, js.ResponseEnd)
	}
	if js.TransferSize == nil || *js.TransferSize != 1000 {
		t.Errorf("Expected transfer size headers+body 1000, got %v", js.TransferSize)
	}
	if js.InitiatorType != "script" {
		t.Errorf("Expected script initiator, got %s", js.InitiatorType)
	}

	api := snap.Resources[1]
	if api.TransferSize == nil || *api.TransferSize != 0 {
		t.Error("Expected _transferSize 0 to win over unknown body size")
	}
	if api.InitiatorType != types.InitiatorFetch {
		t.Errorf("Expected fetch initiator, got %s", api.InitiatorType)
	}
}

func TestFromHAR_NoPageTimings(t *testing.T) {
	har := &HARFile{Log: HARLog{Entries: []HAREntry{
		{StartedDateTime: "2026-01-02T10:00:00Z", Request: HARRequest{URL: "https://example.com/"}},
	}}}
	snap, err := FromHAR(har)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Navigation != nil {
		t.Error("Expected nil navigation without page timings")
	}
}

func TestFromHAR_Empty(t *testing.T) {
	if _, err := FromHAR(&HARFile{}); err == nil {
		t.Error("Expected error for an empty HAR")
	}
}

// fakeBrowser serves /json/list and a single-page DevTools websocket
func fakeBrowser(t *testing.T, pageURL string, reply func(id int64) any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/devtools/page/1"
		json.NewEncoder(w).Encode([]Target{
			{ID: "bg", Type: "background_page", URL: "chrome-extension://x", WebSocketDebuggerURL: wsURL},
			{ID: "1", Type: "page", URL: pageURL, WebSocketDebuggerURL: wsURL},
		})
	})
	mux.HandleFunc("/devtools/page/1", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req cdpRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Method != "Runtime.evaluate" {
			t.Errorf("Expected Runtime.evaluate, got %s", req.Method)
		}
		// An unrelated event first
		conn.WriteJSON(map[string]any{"method": "Runtime.consoleAPICalled", "params": map[string]any{}})
		conn.WriteJSON(reply(req.ID))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func evaluateReply(value string) func(id int64) any {
	return func(id int64) any {
		return map[string]any{
			"id": id,
			"result": map[string]any{
				"result": map[string]any{"type": "string", "value": value},
			},
		}
	}
}

func TestLiveTabSource_Fetch(t *testing.T) {
	payload := `{"pageUrl":"https://www.example.com/","navigation":{"fetchStart":0,"responseStart":50,"responseEnd":120},` +
		`"paint":[{"name":"first-contentful-paint","startTime":300}],` +
		`"resources":[{"name":"https://cdn.example.com/a.js","startTime":1,"responseEnd":40,"transferSize":1200,"initiatorType":"script"}]}`

	srv := fakeBrowser(t, "https://www.example.com/", evaluateReply(payload))

	snap, err := NewLiveTab(srv.URL, "", time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if snap.PageDomain != "www.example.com" {
		t.Errorf("Expected page domain www.example.com, got %q", snap.PageDomain)
	}
	if snap.Navigation == nil || snap.Navigation.ResponseEnd != 120 {
		t.Errorf("Unexpected navigation: %+v", snap.Navigation)
	}
	if len(snap.Resources) != 1 || *snap.Resources[0].TransferSize != 1200 {
		t.Errorf("Unexpected resources: %+v", snap.Resources)
	}
}

func TestLiveTabSource_UnsupportedScheme(t *testing.T) {
	srv := fakeBrowser(t, "chrome://newtab/", evaluateReply("{}"))

	_, err := NewLiveTab(srv.URL, "", time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestLiveTabSource_NullResult(t *testing.T) {
	srv := fakeBrowser(t, "https://www.example.com/", evaluateReply("null"))

	_, err := NewLiveTab(srv.URL, "", time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrNoNavigation) {
		t.Errorf("Expected ErrNoNavigation, got %v", err)
	}
}

func TestCollectScript_WaitsForBufferedLCP(t *testing.T) {
	for _, want := range []string{
		"getEntriesByType('largest-contentful-paint')",
		"buffered: true",
		"setTimeout(() => { observer.disconnect(); resolve([]); }, lcpWaitMs)",
	} {
		if !strings.Contains(collectScript, want) {
			t.Errorf("Expected collect script to contain %q", want)
		}
	}
	if strings.Contains(collectScript, "}, 0)") {
		t.Error("Expected LCP wait not to resolve on a zero timeout")
	}
}

func TestLiveTabSource_UndecodableResult(t *testing.T) {
	for _, value := range []string{`"loading"`, "not json", "[1,2]"} {
		srv := fakeBrowser(t, "https://www.example.com/", evaluateReply(value))

		_, err := NewLiveTab(srv.URL, "", time.Second).Fetch(context.Background())
		if !errors.Is(err, ErrNoNavigation) {
			t.Errorf("Expected ErrNoNavigation for %q, got %v", value, err)
		}
	}
}

func TestLiveTabSource_NoMatchingTab(t *testing.T) {
	srv := fakeBrowser(t, "https://www.example.com/", evaluateReply("{}"))

	_, err := NewLiveTab(srv.URL, "other-site", time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrTabUnreachable) {
		t.Errorf("Expected ErrTabUnreachable, got %v", err)
	}
}

func TestLiveTabSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewLiveTab(srv.URL, "", 200*time.Millisecond).Fetch(context.Background())
	if !errors.Is(err, ErrTabUnreachable) {
		t.Errorf("Expected ErrTabUnreachable, got %v", err)
	}
}
