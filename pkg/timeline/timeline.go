// Package timeline implements the event timeline state machine: the ordered
// list of non-overlapping events, the currently open event, and the
// single-slot resume target used to return to a task after an interrupt or
// break.
package timeline

import (
	"strings"

	"github.com/yakan-007/interruptlog/pkg/event"
)

// Snapshot is the durable shape of the timeline aggregate.
type Snapshot struct {
	Events                        []event.Event `json:"events"`
	CurrentEventID                string        `json:"currentEventId,omitempty"`
	PreviousTaskIDBeforeInterrupt string        `json:"previousTaskIdBeforeInterrupt,omitempty"`
}

// ResumeTarget is the one-slot memory of which task event to reopen after an
// interrupt or break ends. Nesting deeper than one level is deliberately not
// representable: interrupting an interrupt keeps the original target.
type ResumeTarget struct {
	EventID string
}

// Set reports whether a target is held.
func (r ResumeTarget) Set() bool {
	return r.EventID != ""
}

// Sink receives timeline state after every successful mutation. Implementors
// are expected to persist fire-and-forget; a mutation never waits on a sink.
type Sink interface {
	SaveTimeline(snap Snapshot)
	SaveContacts(values []string)
	SaveSubjects(values []string)
}

type nopSink struct{}

func (nopSink) SaveTimeline(Snapshot) {}
func (nopSink) SaveContacts([]string) {}
func (nopSink) SaveSubjects([]string) {}

// DirectoryCap bounds the autocomplete directories.
const DirectoryCap = 10

// Directory is a capped, case-insensitively de-duplicated, most-recent-first
// list of strings backing the interrupt contact and subject autocomplete.
type Directory struct {
	cap    int
	values []string
}

func NewDirectory(size int) *Directory {
	if size <= 0 {
		size = DirectoryCap
	}
	return &Directory{cap: size}
}

// Add records v at the front, dropping any case-insensitive duplicate and
// trimming to capacity. Blank values are ignored. Reports whether the
// directory changed.
func (d *Directory) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	next := make([]string, 0, len(d.values)+1)
	next = append(next, v)
	for _, existing := range d.values {
		if strings.EqualFold(existing, v) {
			continue
		}
		next = append(next, existing)
	}
	if len(next) > d.cap {
		next = next[:d.cap]
	}
	if len(next) == len(d.values) && next[0] == d.values[0] {
		// Same head and size can still mean a reorder; compare fully.
		same := true
		for i := range next {
			if next[i] != d.values[i] {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}
	d.values = next
	return true
}

// Values returns a copy, most recent first.
func (d *Directory) Values() []string {
	out := make([]string, len(d.values))
	copy(out, d.values)
	return out
}

// Load installs persisted values, re-applying the dedup and cap rules so a
// hand-edited or legacy file cannot overflow the directory.
func (d *Directory) Load(values []string) {
	d.values = nil
	for i := len(values) - 1; i >= 0; i-- {
		d.Add(values[i])
	}
}
