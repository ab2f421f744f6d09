package timeline

import (
	"github.com/yakan-007/interruptlog/pkg/event"
)

// UnknownActivityLabel names synthetic gap events unless the caller
// provides a label.
const UnknownActivityLabel = "unknown activity"

// GapMin is the minimum shrink, in milliseconds, for which a trailing-edge
// edit synthesizes a gap event. Smaller shrinks simply discard the time.
const GapMin = int64(60_000)

// RangeEdit is a proposed retroactive change to one event's span. Pointer
// fields distinguish "leave unchanged" from "set to zero value". CreateGap
// nil means gaps are synthesized; only an explicit false opts out.
type RangeEdit struct {
	EventID  string
	NewStart int64
	NewEnd   int64

	GapLabel  string
	CreateGap *bool

	NewType       event.Type // "" keeps the current type
	NewLabel      *string
	NewCategoryID *string
	InterruptType *string
	MyTaskID      *string
}

// UpdateEventTimeRange validates the proposed span against the event's
// chronological neighbors and rebuilds the event. All validation happens
// before any state changes; a rejected edit leaves the timeline untouched.
//
// When the edit shrinks the event's end by at least GapMin and the caller
// has not opted out, a gap event covering the freed span is inserted after
// the edited event so the time stays visible on the timeline.
func (s *Store) UpdateEventTimeRange(edit RangeEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyRangeEditLocked(edit)
}

// UpdateEventEndTime is the trailing-edge-only entry point: the start stays
// as stored and only the end moves. Same validation and gap rules.
func (s *Store) UpdateEventEndTime(eventID string, newEnd int64, gapLabel string, createGap *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(eventID)
	if i < 0 {
		return ErrEventNotFound
	}
	return s.applyRangeEditLocked(RangeEdit{
		EventID:   eventID,
		NewStart:  s.events[i].Start,
		NewEnd:    newEnd,
		GapLabel:  gapLabel,
		CreateGap: createGap,
	})
}

func (s *Store) applyRangeEditLocked(edit RangeEdit) error {
	now := s.nowMS()
	idx := s.indexOfLocked(edit.EventID)
	if idx < 0 {
		return ErrEventNotFound
	}
	if edit.NewStart >= edit.NewEnd {
		return ErrInvalidRange
	}
	if edit.NewEnd > now {
		return ErrFutureEnd
	}
	prev, next := s.neighborsLocked(idx)
	if prev != nil && prev.End != nil && edit.NewStart < *prev.End {
		return ErrOverlap
	}
	if next != nil && edit.NewEnd > next.Start {
		return ErrOverlap
	}

	updated := s.events[idx]
	origEnd := updated.End

	if edit.NewType != "" && edit.NewType != updated.Type {
		updated.ClearFieldsFor(edit.NewType)
	}
	if edit.NewLabel != nil {
		updated.Label = *edit.NewLabel
	}
	if edit.NewCategoryID != nil {
		updated.CategoryID = *edit.NewCategoryID
	}
	if edit.InterruptType != nil {
		updated.InterruptType = *edit.InterruptType
	}
	if edit.MyTaskID != nil {
		meta := updated.CloneMeta()
		if meta == nil {
			meta = &event.Meta{}
		}
		meta.MyTaskID = *edit.MyTaskID
		updated.Meta = meta
	}
	if claimsGap(edit) && updated.IsGap() {
		meta := updated.CloneMeta()
		meta.IsUnknownActivity = false
		updated.Meta = meta
	}
	updated.Start = edit.NewStart
	end := edit.NewEnd
	updated.End = &end

	s.events[idx] = updated
	if s.current == updated.ID {
		// The open event was edited into a closed one.
		s.current = ""
	}

	if origEnd != nil && *origEnd-edit.NewEnd >= GapMin && (edit.CreateGap == nil || *edit.CreateGap) {
		label := edit.GapLabel
		if label == "" {
			label = UnknownActivityLabel
		}
		gapEnd := *origEnd
		s.events = append(s.events, event.Event{
			ID:    event.NewID(),
			Type:  event.TypeTask,
			Label: label,
			Start: edit.NewEnd,
			End:   &gapEnd,
			Meta:  &event.Meta{IsUnknownActivity: true},
		})
	}

	event.Sort(s.events)
	s.persistLocked()
	return nil
}

// claimsGap reports whether the edit supplies a label, category, or task
// link — any of which "claims" an unknown-activity gap.
func claimsGap(edit RangeEdit) bool {
	if edit.NewLabel != nil && *edit.NewLabel != "" && *edit.NewLabel != UnknownActivityLabel {
		return true
	}
	if edit.NewCategoryID != nil && *edit.NewCategoryID != "" {
		return true
	}
	if edit.MyTaskID != nil && *edit.MyTaskID != "" {
		return true
	}
	return false
}

// neighborsLocked returns the chronological neighbors of the event at idx,
// by position in the start-ordered list rather than by slice adjacency at
// insertion time.
func (s *Store) neighborsLocked(idx int) (prev, next *event.Event) {
	if idx > 0 {
		prev = &s.events[idx-1]
	}
	if idx+1 < len(s.events) {
		next = &s.events[idx+1]
	}
	return prev, next
}
