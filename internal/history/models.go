package history

import "time"

// Status values for a recorded run.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one alignment generation attempt.
type Run struct {
	ID           int64         `json:"id"`
	Key          string        `json:"key"`
	Book         string        `json:"book"`
	Chapter      int           `json:"chapter"`
	Status       string        `json:"status"`
	Words        int           `json:"words"`
	Fragments    int           `json:"fragments"`
	Overrun      int           `json:"overrun"`
	Underrun     int           `json:"underrun"`
	Mismatched   int           `json:"mismatched"`
	Clamped      int           `json:"clamped"`
	AudioSeconds float64       `json:"audio_seconds"`
	ContentHash  string        `json:"content_hash,omitempty"`
	Error        string        `json:"error,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
	RequestID    string        `json:"request_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Succeeded reports whether the run produced a cached map.
func (r Run) Succeeded() bool {
	return r.Status == StatusSucceeded
}
