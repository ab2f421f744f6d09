package timeline

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yakan-007/interruptlog/pkg/event"
)

var (
	ErrEventNotFound = errors.New("timeline: event not found")
	ErrInvalidRange  = errors.New("timeline: start must be before end")
	ErrFutureEnd     = errors.New("timeline: end time is in the future")
	ErrOverlap       = errors.New("timeline: range overlaps a neighboring event")
	ErrOpenConflict  = errors.New("timeline: another event is already open")
)

// Store is the event timeline state machine. All mutations are synchronous;
// persistence happens through the Sink and never blocks a transition. The
// store maintains two invariants after every mutation: at most one event is
// open (and its id equals the current id), and events are non-overlapping
// and ordered by start.
type Store struct {
	mu sync.Mutex

	// Now is the clock; tests override it for deterministic timestamps.
	Now func() time.Time

	events   []event.Event
	current  string
	resume   ResumeTarget
	contacts *Directory
	subjects *Directory
	sink     Sink
}

// New returns an empty timeline. A nil sink disables persistence.
func New(sink Sink) *Store {
	if sink == nil {
		sink = nopSink{}
	}
	return &Store{
		Now:      time.Now,
		contacts: NewDirectory(DirectoryCap),
		subjects: NewDirectory(DirectoryCap),
		sink:     sink,
	}
}

// Load installs hydrated state. The orchestrator has already repaired any
// stale open event, but Load still derives the cursor defensively so a
// corrupt snapshot cannot break the single-open invariant.
func (s *Store) Load(snap Snapshot, contacts, subjects []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]event.Event(nil), snap.Events...)
	event.Sort(s.events)
	s.current = ""
	if i := event.OpenIndex(s.events); i >= 0 {
		s.current = s.events[i].ID
	}
	s.resume = ResumeTarget{}
	if snap.PreviousTaskIDBeforeInterrupt != "" {
		s.resume = ResumeTarget{EventID: snap.PreviousTaskIDBeforeInterrupt}
	}
	s.contacts.Load(contacts)
	s.subjects.Load(subjects)
}

// Snapshot returns a copy of the durable state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Events returns a copy of the ordered event list.
func (s *Store) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

// CurrentEventID returns the id of the open event, or "".
func (s *Store) CurrentEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ResumeTargetID returns the id held in the resume slot, or "".
func (s *Store) ResumeTargetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume.EventID
}

// Contacts returns the interrupt contact directory, most recent first.
func (s *Store) Contacts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contacts.Values()
}

// Subjects returns the interrupt subject directory, most recent first.
func (s *Store) Subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subjects.Values()
}

// StartTask describes a task start. CategoryID and Planning are resolved by
// the caller (category inheritance lives with the task service).
type StartTask struct {
	Label    string
	TaskID   string
	Category string
	Planning *event.PlanningSnapshot
}

// StartTask closes any open event, clears the resume slot, and opens a new
// task event. Returns the new event.
func (s *Store) StartTask(p StartTask) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	s.closeOpenLocked(now)
	s.resume = ResumeTarget{}

	e := event.Event{
		ID:         event.NewID(),
		Type:       event.TypeTask,
		Label:      p.Label,
		Start:      now,
		CategoryID: p.Category,
	}
	if p.TaskID != "" || p.Planning != nil {
		e.Meta = &event.Meta{MyTaskID: p.TaskID, PlanningSnapshot: p.Planning}
	}
	s.events = append(s.events, e)
	event.Sort(s.events)
	s.current = e.ID
	s.persistLocked()
	return e
}

// StopCurrentEvent closes the open event and clears the cursor and resume
// slot. With nothing open it still clears both ids.
func (s *Store) StopCurrentEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeOpenLocked(s.nowMS())
	s.resume = ResumeTarget{}
	s.persistLocked()
}

// StartInterrupt describes an interrupt start.
type StartInterrupt struct {
	Label         string
	Who           string
	InterruptType string
	Urgency       event.Urgency
}

// StartInterrupt remembers the open task (if the open event is a task) in
// the resume slot, closes it, and opens a new interrupt event. Interrupting
// an interrupt or break leaves an existing resume target untouched.
func (s *Store) StartInterrupt(p StartInterrupt) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	s.captureResumeLocked()
	s.closeOpenLocked(now)

	e := event.Event{
		ID:            event.NewID(),
		Type:          event.TypeInterrupt,
		Label:         p.Label,
		Start:         now,
		Who:           p.Who,
		InterruptType: p.InterruptType,
		Urgency:       p.Urgency,
	}
	s.events = append(s.events, e)
	event.Sort(s.events)
	s.current = e.ID
	if s.contacts.Add(p.Who) {
		s.sink.SaveContacts(s.contacts.Values())
	}
	if s.subjects.Add(p.Label) {
		s.sink.SaveSubjects(s.subjects.Values())
	}
	s.persistLocked()
	return e
}

// InterruptDetails updates annotation fields on the open interrupt.
type InterruptDetails struct {
	Label         *string
	Who           *string
	InterruptType *string
	Urgency       *event.Urgency
}

// UpdateInterruptDetails edits the open interrupt in place. With no active
// interrupt it warns and leaves state untouched.
func (s *Store) UpdateInterruptDetails(p InterruptDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(s.current)
	if i < 0 || s.events[i].Type != event.TypeInterrupt {
		warnf("no active interrupt to update")
		return
	}
	if p.Label != nil {
		s.events[i].Label = *p.Label
		if s.subjects.Add(*p.Label) {
			s.sink.SaveSubjects(s.subjects.Values())
		}
	}
	if p.Who != nil {
		s.events[i].Who = *p.Who
		if s.contacts.Add(*p.Who) {
			s.sink.SaveContacts(s.contacts.Values())
		}
	}
	if p.InterruptType != nil {
		s.events[i].InterruptType = *p.InterruptType
	}
	if p.Urgency != nil {
		s.events[i].Urgency = *p.Urgency
	}
	s.persistLocked()
}

// StartBreak describes a break start.
type StartBreak struct {
	Label           string
	BreakType       string
	DurationMinutes int
}

// StartBreak behaves like StartInterrupt with break semantics: pausing
// during a task remembers it, pausing during anything else does not
// overwrite the slot.
func (s *Store) StartBreak(p StartBreak) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	s.captureResumeLocked()
	s.closeOpenLocked(now)

	e := event.Event{
		ID:                   event.NewID(),
		Type:                 event.TypeBreak,
		Label:                p.Label,
		Start:                now,
		BreakType:            p.BreakType,
		BreakDurationMinutes: p.DurationMinutes,
	}
	s.events = append(s.events, e)
	event.Sort(s.events)
	s.current = e.ID
	s.persistLocked()
	return e
}

// StopInterruptAndResumePreviousTask closes the open interrupt and, when a
// resume target is held and its task event is still present, opens a new
// task event carrying the same label, category, and meta. The new event is
// a second timeline segment for the same logical task; reports re-merge the
// segments by task link.
func (s *Store) StopInterruptAndResumePreviousTask() {
	s.stopAndResume(event.TypeInterrupt)
}

// StopBreakAndResumePreviousTask is the break counterpart of
// StopInterruptAndResumePreviousTask.
func (s *Store) StopBreakAndResumePreviousTask() {
	s.stopAndResume(event.TypeBreak)
}

func (s *Store) stopAndResume(kind event.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	i := s.indexOfLocked(s.current)
	if i < 0 {
		warnf("no active %s to stop", kind)
		s.current = ""
		s.persistLocked()
		return
	}
	if s.events[i].Type != kind {
		// A different kind of event is running; closing it here would be
		// wrong and clearing the cursor would orphan it. Leave both alone.
		warnf("no active %s to stop", kind)
		return
	}
	s.closeOpenLocked(now)
	s.resumeLocked(now)
	event.Sort(s.events)
	s.persistLocked()
}

// CancelCurrentInterruptAndResumeTask deletes the open interrupt instead of
// closing it. Nonzero elapsed time becomes a synthetic unknown-activity task
// event over the same span so the timeline keeps accounting for it.
func (s *Store) CancelCurrentInterruptAndResumeTask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	i := s.indexOfLocked(s.current)
	if i < 0 || s.events[i].Type != event.TypeInterrupt {
		warnf("no active interrupt to cancel")
		return
	}
	canceled := s.events[i]
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.current = ""

	if now > canceled.Start {
		end := now
		s.events = append(s.events, event.Event{
			ID:    event.NewID(),
			Type:  event.TypeTask,
			Label: UnknownActivityLabel,
			Start: canceled.Start,
			End:   &end,
			Meta:  &event.Meta{IsUnknownActivity: true},
		})
	}
	s.resumeLocked(now)
	event.Sort(s.events)
	s.persistLocked()
}

// AddEvent inserts a manually constructed event, validating it against its
// chronological neighbors. An open event may only be added when nothing else
// is open, and no part of the span may lie in the future.
func (s *Store) AddEvent(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	if e.ID == "" {
		e.ID = event.NewID()
	}
	if e.End != nil && *e.End <= e.Start {
		return ErrInvalidRange
	}
	if e.EndOr(now) > now || e.Start > now {
		return ErrFutureEnd
	}
	if e.Open() && s.current != "" {
		return ErrOpenConflict
	}
	if err := s.checkFitLocked(e, ""); err != nil {
		return err
	}
	s.events = append(s.events, e)
	event.Sort(s.events)
	if e.Open() {
		s.current = e.ID
	}
	s.persistLocked()
	return nil
}

// UpdateEvent replaces the annotation fields of an existing event. The time
// range is owned by the range editor and is preserved from the stored
// record, as is the open/closed status.
func (s *Store) UpdateEvent(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(e.ID)
	if i < 0 {
		return ErrEventNotFound
	}
	e.Start = s.events[i].Start
	e.End = s.events[i].End
	s.events[i] = e
	s.persistLocked()
	return nil
}

// SetEvents replaces the whole timeline, used by import paths. The single
// open-event invariant is enforced by force-closing all but the latest open
// event.
func (s *Store) SetEvents(events []event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	s.events = append([]event.Event(nil), events...)
	event.Sort(s.events)

	openIdx := -1
	for i := range s.events {
		if !s.events[i].Open() {
			continue
		}
		if openIdx >= 0 {
			warnf("multiple open events in imported timeline; closing %s", s.events[openIdx].ID)
			end := now
			if end < s.events[openIdx].Start {
				end = s.events[openIdx].Start
			}
			s.events[openIdx].End = &end
		}
		openIdx = i
	}
	s.current = ""
	if openIdx >= 0 {
		s.current = s.events[openIdx].ID
	}
	if s.resume.Set() && s.indexOfLocked(s.resume.EventID) < 0 {
		s.resume = ResumeTarget{}
	}
	s.persistLocked()
}

// ClearCategory removes references to a deleted category from all events.
// Returns the number of events touched.
func (s *Store) ClearCategory(categoryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := 0
	for i := range s.events {
		if s.events[i].CategoryID == categoryID {
			s.events[i].CategoryID = ""
			cleared++
		}
	}
	if cleared > 0 {
		s.persistLocked()
	}
	return cleared
}

// ForceCloseOpen terminates any open event at the given time, used by the
// hydration repair path. Clears the cursor.
func (s *Store) ForceCloseOpen(at int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeOpenLocked(at)
	s.persistLocked()
}

func (s *Store) nowMS() int64 {
	return s.Now().UnixMilli()
}

func (s *Store) indexOfLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

// captureResumeLocked records the open event in the resume slot, but only
// when the open event is a task. One level deep by design.
func (s *Store) captureResumeLocked() {
	i := s.indexOfLocked(s.current)
	if i >= 0 && s.events[i].Type == event.TypeTask {
		s.resume = ResumeTarget{EventID: s.current}
	}
}

func (s *Store) closeOpenLocked(at int64) {
	i := s.indexOfLocked(s.current)
	if i >= 0 && s.events[i].Open() {
		end := at
		if end < s.events[i].Start {
			end = s.events[i].Start
		}
		s.events[i].End = &end
	}
	s.current = ""
}

// resumeLocked opens a fresh task event cloned from the resume target, then
// clears the slot. A missing target degrades to "nothing running" with a
// warning.
func (s *Store) resumeLocked(at int64) {
	if !s.resume.Set() {
		return
	}
	i := s.indexOfLocked(s.resume.EventID)
	s.resume = ResumeTarget{}
	if i < 0 {
		warnf("resume target no longer exists; staying stopped")
		return
	}
	src := s.events[i]
	e := event.Event{
		ID:         event.NewID(),
		Type:       event.TypeTask,
		Label:      src.Label,
		Start:      at,
		CategoryID: src.CategoryID,
		Meta:       src.CloneMeta(),
	}
	s.events = append(s.events, e)
	s.current = e.ID
}

// checkFitLocked validates that e does not overlap its chronological
// neighbors. excludeID skips the stored copy of an event being edited.
func (s *Store) checkFitLocked(e event.Event, excludeID string) error {
	end := e.EndOr(s.nowMS())
	for i := range s.events {
		other := &s.events[i]
		if other.ID == excludeID || other.ID == e.ID {
			continue
		}
		otherEnd := other.EndOr(end)
		if e.Start < otherEnd && other.Start < end {
			return ErrOverlap
		}
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Events:                        append([]event.Event(nil), s.events...),
		CurrentEventID:                s.current,
		PreviousTaskIDBeforeInterrupt: s.resume.EventID,
	}
}

func (s *Store) persistLocked() {
	s.sink.SaveTimeline(s.snapshotLocked())
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "timeline: "+format+"\n", args...)
}
