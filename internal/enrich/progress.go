package enrich

import (
	"time"

	"github.com/sells-group/lead-enrich/internal/model"
)

// EventType names a progress milestone.
type EventType string

const (
	EventStageStarted  EventType = "stage_started"
	EventStageFinished EventType = "stage_finished"
	EventCacheHit      EventType = "cache_hit"
	EventCompleted     EventType = "completed"
)

// Event is one milestone of a request. Subject is the domain or email being
// enriched.
type Event struct {
	Type    EventType          `json:"type"`
	Subject string             `json:"subject"`
	Stage   string             `json:"stage,omitempty"`
	Outcome model.StageOutcome `json:"outcome,omitempty"`
	Leads   int                `json:"leads,omitempty"`
	Success bool               `json:"success,omitempty"`
	At      time.Time          `json:"at"`
}

// emit delivers ev if the receiver is ready; otherwise it is dropped.
func (e *Enricher) emit(ev Event) {
	if e.opts.Progress == nil {
		return
	}
	ev.At = time.Now()
	select {
	case e.opts.Progress <- ev:
	default:
	}
}
