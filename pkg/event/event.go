package event

import (
	"sort"

	"github.com/google/uuid"
)

// Type discriminates the three kinds of timeline events.
type Type string

const (
	TypeTask      Type = "task"
	TypeInterrupt Type = "interrupt"
	TypeBreak     Type = "break"
)

// Urgency grades an interrupt.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// PlanningSnapshot captures a task's planned duration and due date at the
// moment an event for it is started. Reports read the snapshot rather than
// the live task, so later plan edits do not rewrite history.
type PlanningSnapshot struct {
	PlannedDurationMinutes int   `json:"plannedDurationMinutes,omitempty"`
	DueAt                  int64 `json:"dueAt,omitempty"`
}

// Meta carries cross-cutting annotations on an event.
type Meta struct {
	MyTaskID          string            `json:"myTaskId,omitempty"`
	PlanningSnapshot  *PlanningSnapshot `json:"planningSnapshot,omitempty"`
	IsUnknownActivity bool              `json:"isUnknownActivity,omitempty"`
	SplitRefID        string            `json:"splitRefId,omitempty"`
}

// Event is one span on the timeline. Start and End are epoch milliseconds;
// End is nil while the event is still running. Events are treated as
// immutable by convention: mutations replace the record wholesale.
type Event struct {
	ID    string `json:"id"`
	Type  Type   `json:"type"`
	Label string `json:"label,omitempty"`
	Start int64  `json:"start"`
	End   *int64 `json:"end,omitempty"`

	// Task fields.
	CategoryID string `json:"categoryId,omitempty"`

	// Interrupt fields.
	Who           string  `json:"who,omitempty"`
	InterruptType string  `json:"interruptType,omitempty"`
	Urgency       Urgency `json:"urgency,omitempty"`

	// Break fields.
	BreakType            string `json:"breakType,omitempty"`
	BreakDurationMinutes int    `json:"breakDurationMinutes,omitempty"`

	Meta *Meta `json:"meta,omitempty"`
}

// NewID returns an opaque unique event id.
func NewID() string {
	return uuid.NewString()
}

// Open reports whether the event is still running.
func (e Event) Open() bool {
	return e.End == nil
}

// EndOr returns the event's end, or fallback while the event is open.
func (e Event) EndOr(fallback int64) int64 {
	if e.End == nil {
		return fallback
	}
	return *e.End
}

// Duration returns the elapsed milliseconds, using now for an open event.
func (e Event) Duration(now int64) int64 {
	return e.EndOr(now) - e.Start
}

// IsGap reports whether the event is a synthetic unknown-activity filler.
func (e Event) IsGap() bool {
	return e.Meta != nil && e.Meta.IsUnknownActivity
}

// MyTaskID returns the linked task id, if any.
func (e Event) MyTaskID() string {
	if e.Meta == nil {
		return ""
	}
	return e.Meta.MyTaskID
}

// CloneMeta returns a deep copy of the event's meta so a derived event does
// not share pointers with its source.
func (e Event) CloneMeta() *Meta {
	if e.Meta == nil {
		return nil
	}
	m := *e.Meta
	if e.Meta.PlanningSnapshot != nil {
		snap := *e.Meta.PlanningSnapshot
		m.PlanningSnapshot = &snap
	}
	return &m
}

// ClearFieldsFor strips fields that do not belong to the given type. Used
// when a time-range edit changes an event's type so task fields do not leak
// onto an interrupt and vice versa.
func (e *Event) ClearFieldsFor(t Type) {
	if t != TypeTask {
		e.CategoryID = ""
	}
	if t != TypeInterrupt {
		e.Who = ""
		e.InterruptType = ""
		e.Urgency = ""
	}
	if t != TypeBreak {
		e.BreakType = ""
		e.BreakDurationMinutes = 0
	}
	e.Type = t
}

// Sort orders events chronologically by start, falling back to id so the
// order is stable when two events share a boundary timestamp.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start == events[j].Start {
			return events[i].ID < events[j].ID
		}
		return events[i].Start < events[j].Start
	})
}

// OpenIndex returns the index of the open event, or -1. The timeline
// maintains at most one open event; callers may rely on the first hit.
func OpenIndex(events []Event) int {
	for i := range events {
		if events[i].Open() {
			return i
		}
	}
	return -1
}

// EndPtr is a convenience for building closed events literally.
func EndPtr(ms int64) *int64 {
	return &ms
}
