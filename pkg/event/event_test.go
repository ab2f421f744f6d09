package event

import "testing"

func TestSortIsChronologicalAndStable(t *testing.T) {
	events := []Event{
		{ID: "c", Start: 200},
		{ID: "b", Start: 100},
		{ID: "a", Start: 100},
	}
	Sort(events)

	wantIDs := []string{"a", "b", "c"}
	for i, id := range wantIDs {
		if events[i].ID != id {
			t.Fatalf("unexpected order at %d: %+v", i, events)
		}
	}
}

func TestOpenIndex(t *testing.T) {
	end := int64(50)
	events := []Event{
		{ID: "closed", Start: 0, End: &end},
		{ID: "open", Start: 60},
	}
	if got := OpenIndex(events); got != 1 {
		t.Fatalf("OpenIndex = %d, want 1", got)
	}
	events[1].End = &end
	if got := OpenIndex(events); got != -1 {
		t.Fatalf("OpenIndex = %d, want -1", got)
	}
}

func TestClearFieldsFor(t *testing.T) {
	e := Event{
		Type:                 TypeInterrupt,
		CategoryID:           "cat",
		Who:                  "alice",
		InterruptType:        "call",
		Urgency:              UrgencyHigh,
		BreakType:            "coffee",
		BreakDurationMinutes: 5,
	}
	e.ClearFieldsFor(TypeTask)

	if e.Type != TypeTask {
		t.Fatalf("type not applied: %+v", e)
	}
	if e.Who != "" || e.InterruptType != "" || e.Urgency != "" {
		t.Fatalf("interrupt fields must be cleared: %+v", e)
	}
	if e.BreakType != "" || e.BreakDurationMinutes != 0 {
		t.Fatalf("break fields must be cleared: %+v", e)
	}
	if e.CategoryID != "cat" {
		t.Fatalf("task fields must survive a change to task: %+v", e)
	}
}

func TestCloneMetaIsDeep(t *testing.T) {
	src := Event{Meta: &Meta{
		MyTaskID:         "t1",
		PlanningSnapshot: &PlanningSnapshot{PlannedDurationMinutes: 30},
	}}

	clone := src.CloneMeta()
	clone.MyTaskID = "t2"
	clone.PlanningSnapshot.PlannedDurationMinutes = 99

	if src.Meta.MyTaskID != "t1" {
		t.Fatalf("clone must not alias the source meta")
	}
	if src.Meta.PlanningSnapshot.PlannedDurationMinutes != 30 {
		t.Fatalf("clone must not alias the planning snapshot")
	}
}

func TestDuration(t *testing.T) {
	open := Event{Start: 100}
	if got := open.Duration(600); got != 500 {
		t.Fatalf("open duration = %d, want 500", got)
	}
	closed := Event{Start: 100, End: EndPtr(300)}
	if got := closed.Duration(9_999); got != 200 {
		t.Fatalf("closed duration = %d, want 200", got)
	}
}
