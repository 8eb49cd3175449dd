// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//	POST /api/analyze   snapshot (JSON/JSONC) or HAR (?format=har) -> report
//	GET  /api/synthetic synthetic report
//	GET  /api/logs      recently handled requests
//	GET  /healthz       liveness
//
// Report routes accept ?q=<jmespath> to return a query result instead of the
// full report.
package server
