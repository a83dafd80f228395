// Package progress defines the event structures emitted by the batch workers.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart Stage = "RUN_START"
	StageRunDone  Stage = "RUN_DONE"
	StageRunError Stage = "RUN_ERROR"
	StageURLDone  Stage = "URL_DONE"
	StageURLWarn  Stage = "URL_WARN"
)

// Event captures a single milestone of a normalization run.
type Event struct {
	// RunID uniquely identifies a batch run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or URL milestone occurred.
	Stage Stage
	// Source labels the tracker family (github, gitlab, ...) for URL events.
	Source string
	// URL is the input URL for URL events; it should not contain credentials.
	URL string
	// Dur captures processing latency for URL and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. warning text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageURLDone:
		if e.URL == "" {
			return errors.New("url done requires url")
		}
	case StageURLWarn:
		if e.URL == "" {
			return errors.New("url warn requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
