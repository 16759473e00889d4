package agent

import (
	"encoding/json"
	"time"
)

// Run states, recorded on trace entries as the pipeline moves through its
// stages.
const (
	StateStarted   = "STARTED"
	StateLoading   = "LOADING"
	StateFiltered  = "FILTERED"
	StateInferring = "INFERRING"
	StateStoring   = "STORING"
	StateErrored   = "ERRORED"
	StateFinished  = "FINISHED"
)

// TraceEntry is one timestamped action or observation of a run.
type TraceEntry struct {
	Timestamp float64                `json:"timestamp"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
}

// Trace is the append-only log of one run. It lives for the duration of the
// invocation and is emitted once at the end, never persisted.
type Trace struct {
	entries []TraceEntry
	now     func() time.Time
}

func NewTrace() *Trace {
	return &Trace{now: time.Now}
}

func (t *Trace) Append(message string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	t.entries = append(t.entries, TraceEntry{
		Timestamp: float64(t.now().UnixNano()) / float64(time.Second),
		Message:   message,
		Data:      data,
	})
}

func (t *Trace) Entries() []TraceEntry {
	return t.entries
}

func (t *Trace) JSON() string {
	body, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(body)
}
