package internal

import "time"

// Processing paths recorded for an operation.
const (
	PathGenerative = "generative"
	PathFallback   = "fallback"
	PathFailed     = "failed"
	PathLocal      = "local"
)

// OperationRecord is the journal entry for one call. It carries metadata
// only, never the processed text.
type OperationRecord struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	Path        string    `json:"path"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	FailureKind string    `json:"failure_kind,omitempty"`
	InputRunes  int       `json:"input_runes"`
	LatencyMs   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
