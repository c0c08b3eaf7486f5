package server

import (
	"time"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
)

const (
	// ShutdownTimeout bounds graceful shutdown of in-flight requests
	ShutdownTimeout = 15 * time.Second
	// ReadHeaderTimeout guards against slow clients
	ReadHeaderTimeout = 10 * time.Second
	// RequestIDHeader carries the per-request id in responses
	RequestIDHeader = "X-Request-ID"
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateStarting ServerState = iota // Reference not yet loaded
	ServerStateRunning                     // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Text   string               `json:"text"`
	Config am.AnalysisOverrides `json:"config"`
	// Pathways adds Reactome counts when the server has a pathway index
	Pathways bool `json:"pathways"`
}

// PathwayCounts holds both pathway summaries of one outcome
type PathwayCounts struct {
	Kinase []pathway.Count `json:"kinase"`
	Input  []pathway.Count `json:"input"`
}

// AnalyzeResponse wraps the outcome with request metadata
type AnalyzeResponse struct {
	RequestID string `json:"request_id"`
	*enrich.Outcome
	Pathways *PathwayCounts `json:"pathways,omitempty"`
}

// ReferenceResponse describes the datasets currently served
type ReferenceResponse struct {
	Reference reference.Summary `json:"reference"`
	Pathways  int               `json:"pathway_rows"`
	Reloads   int64             `json:"reloads"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	State     string `json:"state"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Reference int    `json:"reference_edges"`
}
