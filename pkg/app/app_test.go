package app

import (
	"context"
	"testing"

	"github.com/yakan-007/interruptlog/pkg/settings"
	"github.com/yakan-007/interruptlog/pkg/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	g, err := store.Open(store.FixedConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := New(g)
	t.Cleanup(s.Close)
	if err := s.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return s
}

func TestHydrateEmptyStore(t *testing.T) {
	s := newTestService(t)

	if !s.IsHydrated() {
		t.Fatalf("service must report hydrated")
	}
	if len(s.Timeline.Events()) != 0 {
		t.Fatalf("expected empty timeline")
	}
	if got := s.Settings(); got != settings.Default() {
		t.Fatalf("expected default settings, got %+v", got)
	}
}

func TestStartTaskInheritsFromLinkedTask(t *testing.T) {
	s := newTestService(t)

	cat, _ := s.Tasks.AddCategory("deep work", "#123")
	tk, _ := s.Tasks.AddMyTask("write report", cat.ID, nil)

	e := s.StartTask("", tk.ID)
	if e.Label != "write report" {
		t.Fatalf("label must default to the task name, got %q", e.Label)
	}
	if e.CategoryID != cat.ID {
		t.Fatalf("category must be inherited, got %q", e.CategoryID)
	}
	if e.MyTaskID() != tk.ID {
		t.Fatalf("event must link back to the task")
	}
}

func TestStartTaskWithCategoriesDisabled(t *testing.T) {
	s := newTestService(t)

	cat, _ := s.Tasks.AddCategory("x", "#123")
	tk, _ := s.Tasks.AddMyTask("no inherit", cat.ID, nil)
	s.Tasks.SetCategoriesEnabled(false)

	e := s.StartTask("", tk.ID)
	if e.CategoryID != "" {
		t.Fatalf("disabled category feature must not inherit, got %q", e.CategoryID)
	}
}

func TestStartTaskReactivatesCompletedTask(t *testing.T) {
	s := newTestService(t)

	tk, _ := s.Tasks.AddMyTask("done once", "", nil)
	s.Tasks.SetMyTaskCompletion(tk.ID, true)

	s.StartTask("", tk.ID)

	active := s.Tasks.Tasks()
	if len(active) != 1 || active[0].ID != tk.ID {
		t.Fatalf("completed task must return to the active list, got %+v", active)
	}
	if active[0].IsCompleted {
		t.Fatalf("completion flag must be cleared")
	}
}

func TestStartTaskUnknownIDDegrades(t *testing.T) {
	s := newTestService(t)

	e := s.StartTask("ad hoc", "no-such-task")
	if e.Label != "ad hoc" {
		t.Fatalf("unexpected label %q", e.Label)
	}
	if e.MyTaskID() != "" {
		t.Fatalf("unknown task id must not be linked")
	}
	if s.Timeline.CurrentEventID() != e.ID {
		t.Fatalf("event must still start")
	}
}

func TestAddMyTaskAutoStart(t *testing.T) {
	s := newTestService(t)

	next := s.Settings()
	next.AutoStartNewTask = true
	s.UpdateSettings(next)

	tk, err := s.AddMyTask("instant", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := s.Timeline.Events()
	if len(events) != 1 || events[0].MyTaskID() != tk.ID {
		t.Fatalf("auto-start must open an event for the new task, got %+v", events)
	}
}

func TestRemoveCategoryCascades(t *testing.T) {
	s := newTestService(t)

	cat, _ := s.Tasks.AddCategory("meetings", "#abc")
	t1, _ := s.Tasks.AddMyTask("standup", cat.ID, nil)
	s.Tasks.AddMyTask("retro", cat.ID, nil)

	// Five timeline events carry the category: the start/stop cycle leaves
	// direct references on each event record.
	for i := 0; i < 5; i++ {
		s.StartTask("", t1.ID)
		s.Timeline.StopCurrentEvent()
	}

	cleared, err := s.RemoveCategory(cat.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 7 {
		t.Fatalf("expected 2 tasks + 5 events cleared, got %d", cleared)
	}
	for _, e := range s.Timeline.Events() {
		if e.CategoryID != "" {
			t.Fatalf("event reference not cleared: %+v", e)
		}
	}
}

func TestStatePersistsAcrossServices(t *testing.T) {
	dir := t.TempDir()
	g, err := store.Open(store.FixedConfig(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := New(g)
	if err := first.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	tk, _ := first.Tasks.AddMyTask("survives restart", "", nil)
	e := first.StartTask("", tk.ID)
	first.AddInterruptLabel("phone")
	first.Close()

	second := New(g)
	defer second.Close()
	if err := second.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	active := second.Tasks.Tasks()
	if len(active) != 1 || active[0].Name != "survives restart" {
		t.Fatalf("task must survive a restart, got %+v", active)
	}
	events := second.Timeline.Events()
	if len(events) != 1 || events[0].ID != e.ID {
		t.Fatalf("event must survive a restart, got %+v", events)
	}
	// The event left open by the first session is closed on the next boot.
	if events[0].Open() || second.Timeline.CurrentEventID() != "" {
		t.Fatalf("stale open event must be repaired at boot")
	}
	if labels := second.InterruptLabels(); len(labels) != 1 || labels[0] != "phone" {
		t.Fatalf("interrupt labels must survive, got %v", labels)
	}
}

func TestUpdateSettingsAppliesPlacement(t *testing.T) {
	s := newTestService(t)

	next := s.Settings()
	next.NewTaskPlacement = settings.PlaceTop
	s.UpdateSettings(next)

	s.Tasks.AddMyTask("first", "", nil)
	top, _ := s.Tasks.AddMyTask("second", "", nil)
	if got := s.Tasks.Tasks()[0]; got.ID != top.ID {
		t.Fatalf("top placement must apply, got %+v", got)
	}
}

func TestAddInterruptLabelDeduplicates(t *testing.T) {
	s := newTestService(t)

	s.AddInterruptLabel("meeting")
	s.AddInterruptLabel("meeting")
	s.AddInterruptLabel("")
	if got := s.InterruptLabels(); len(got) != 1 {
		t.Fatalf("expected one label, got %v", got)
	}
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	dir := t.TempDir()
	g, _ := store.Open(store.FixedConfig(dir))

	s := New(g)
	if err := s.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	s.Tasks.AddMyTask("a", "", nil)
	s.Tasks.AddMyTask("b", "", nil)
	s.Tasks.ReorderMyTasks([]string{s.Tasks.Tasks()[1].ID})
	s.Close()

	var out []struct {
		ID string `json:"id"`
	}
	found, err := g.Get(context.Background(), store.KeyMyTasks, &out)
	if err != nil || !found {
		t.Fatalf("tasks must be on disk after close: found=%v err=%v", found, err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 persisted tasks, got %v", out)
	}
}
