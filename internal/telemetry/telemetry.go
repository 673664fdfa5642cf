// Package telemetry provides a JSONL event stream of prioritization runs.
// Every analysis, served suggestion and task file reload is recorded as a
// structured JSON event so runs can be audited after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Event kinds identify the type of telemetry event.
const (
	KindAnalysisDone  = "analysis_done"
	KindSuggestServed = "suggest_served"
	KindBatchReloaded = "batch_reloaded"
)

// Event represents a single telemetry record. Each event carries a
// timestamp, a kind tag, the run it belongs to and optional structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Source    string    `json:"source,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Summary is the payload of analysis_done and suggest_served events.
type Summary struct {
	Strategy string `json:"strategy"`
	Tasks    int    `json:"tasks"`
	Cycles   int    `json:"cycles"`
	Errors   int    `json:"errors"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file afero.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates an Emitter appending to path on the OS filesystem.
func NewEmitter(path string) (*Emitter, error) {
	return NewEmitterFs(afero.NewOsFs(), path)
}

// NewEmitterFs creates an Emitter that writes JSONL events to path on fs.
// The file is created if it does not exist, or appended to if it does.
func NewEmitterFs(fs afero.Fs, path string) (*Emitter, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event. A zero Timestamp is filled with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
