package tools

import (
	"time"

	"github.com/usagelens/usagelens/internal/analytics"
)

// MetricResult is the uniform success envelope. Data is always
// present, possibly empty; an absence of matching rows is not an
// error.
type MetricResult struct {
	Tool        string         `json:"tool"`
	Description string         `json:"description"`
	Parameters  Args           `json:"parameters"`
	ComputedAt  time.Time      `json:"computed_at"`
	QueryTimeMS int64          `json:"query_time_ms"`
	Data        any            `json:"data"`
	Summary     map[string]any `json:"summary,omitempty"`
}

// ErrorResult is the uniform failure envelope.
type ErrorResult struct {
	Tool    string `json:"tool"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewErrorResult classifies err into the failure envelope.
// Unclassified errors surface as StorageUnavailable, the only
// transient category.
func NewErrorResult(tool string, err error) ErrorResult {
	code := analytics.CodeOf(err)
	if code == "" {
		code = analytics.CodeStorageUnavailable
	}
	return ErrorResult{Tool: tool, Error: code, Message: err.Error()}
}
