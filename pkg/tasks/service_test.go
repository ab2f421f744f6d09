package tasks

import (
	"testing"
	"time"

	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/settings"
	"github.com/yakan-007/interruptlog/pkg/task"
)

type clock struct {
	ms int64
}

func (c *clock) now() time.Time {
	return time.UnixMilli(c.ms)
}

func newTestService(startMS int64) (*Service, *clock) {
	c := &clock{ms: startMS}
	s := New(nil)
	s.Now = c.now
	return s, c
}

func TestAddTaskWritesCreatedCheckpoint(t *testing.T) {
	s, c := newTestService(1_000)

	cat, _ := s.AddCategory("deep work", "#111")
	tk, err := s.AddMyTask("write report", cat.ID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := s.Ledger()[tk.ID]
	if rec == nil {
		t.Fatalf("expected ledger entry for %s", tk.ID)
	}
	if rec.Created.At == nil || *rec.Created.At != 1_000 {
		t.Fatalf("created checkpoint not written: %+v", rec.Created)
	}
	if rec.Created.CategoryName != "deep work" {
		t.Fatalf("category name not frozen: %+v", rec.Created)
	}

	// Edits refresh only the latest mirror; createdAt never moves.
	c.ms = 9_000
	name := "write the report"
	if err := s.UpdateMyTask(tk.ID, &name, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec = s.Ledger()[tk.ID]
	if *rec.Created.At != 1_000 {
		t.Fatalf("createdAt changed on edit: %+v", rec.Created)
	}
	if rec.LatestName != "write the report" {
		t.Fatalf("latest mirror not refreshed: %+v", rec)
	}
}

func TestCompleteArchivesAndStampsCheckpoint(t *testing.T) {
	s, c := newTestService(0)

	tk, _ := s.AddMyTask("a", "", nil)
	s.AddMyTask("b", "", nil)

	c.ms = 10_000
	if err := s.SetMyTaskCompletion(tk.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Tasks()) != 1 {
		t.Fatalf("completed task must leave the active list")
	}
	archived := s.Archived()
	if len(archived) != 1 || archived[0].ID != tk.ID {
		t.Fatalf("expected task in archive, got %+v", archived)
	}
	if archived[0].ArchivedAt != 10_000 || !archived[0].IsCompleted {
		t.Fatalf("archive stamp wrong: %+v", archived[0])
	}
	rec := s.Ledger()[tk.ID]
	if rec.Completed.At == nil || *rec.Completed.At != 10_000 {
		t.Fatalf("completed checkpoint not written: %+v", rec.Completed)
	}

	// Remaining active list keeps dense zero-based order.
	if got := s.Tasks()[0].Order; got != 0 {
		t.Fatalf("expected dense renumbering, got order %d", got)
	}
}

func TestUncompleteRestoresAndClearsCheckpoint(t *testing.T) {
	s, c := newTestService(0)

	first, _ := s.AddMyTask("first", "", nil)
	s.AddMyTask("second", "", nil)
	c.ms = 10_000
	s.SetMyTaskCompletion(first.ID, true)

	c.ms = 20_000
	if err := s.SetMyTaskCompletion(first.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := s.Tasks()
	if len(active) != 2 {
		t.Fatalf("expected restored task in active list")
	}
	restored := active[1]
	if restored.ID != first.ID || restored.Order != 1 {
		t.Fatalf("restored task must append at the end: %+v", restored)
	}
	if restored.IsCompleted || restored.CompletedAt != nil {
		t.Fatalf("completion state not cleared: %+v", restored)
	}
	if len(s.Archived()) != 0 {
		t.Fatalf("archive must be empty after restore")
	}
	if rec := s.Ledger()[first.ID]; rec.Completed.At != nil {
		t.Fatalf("completed checkpoint must be cleared: %+v", rec.Completed)
	}
}

func TestRecompletionWritesFreshCheckpoint(t *testing.T) {
	s, c := newTestService(0)

	tk, _ := s.AddMyTask("cycle", "", nil)
	c.ms = 10_000
	s.SetMyTaskCompletion(tk.ID, true)
	c.ms = 20_000
	s.SetMyTaskCompletion(tk.ID, false)
	c.ms = 30_000
	s.SetMyTaskCompletion(tk.ID, true)

	rec := s.Ledger()[tk.ID]
	if rec.Completed.At == nil || *rec.Completed.At != 30_000 {
		t.Fatalf("re-completion must stamp a fresh checkpoint: %+v", rec.Completed)
	}
}

func TestRemoveActiveTaskMarksCanceled(t *testing.T) {
	s, c := newTestService(0)

	cat, _ := s.AddCategory("ops", "#222")
	tk, _ := s.AddMyTask("doomed", cat.ID, nil)
	c.ms = 5_000
	if err := s.RemoveMyTask(tk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Tasks()) != 0 {
		t.Fatalf("task must be gone from the active list")
	}
	rec := s.Ledger()[tk.ID]
	if rec == nil {
		t.Fatalf("ledger entry must survive deletion")
	}
	if rec.Canceled.At == nil || *rec.Canceled.At != 5_000 {
		t.Fatalf("canceled checkpoint not written: %+v", rec.Canceled)
	}
	if rec.Canceled.CategoryName != "ops" {
		t.Fatalf("category name not frozen on cancel: %+v", rec.Canceled)
	}
}

func TestDeleteArchivedTaskKeepsLedger(t *testing.T) {
	s, _ := newTestService(0)

	tk, _ := s.AddMyTask("done and gone", "", nil)
	s.SetMyTaskCompletion(tk.ID, true)
	if err := s.DeleteArchivedTask(tk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Archived()) != 0 {
		t.Fatalf("archive must be empty")
	}
	if s.Ledger()[tk.ID] == nil {
		t.Fatalf("ledger entry must survive archive deletion")
	}
}

func TestReorderKeepsDenseOrder(t *testing.T) {
	s, _ := newTestService(0)

	a, _ := s.AddMyTask("a", "", nil)
	b, _ := s.AddMyTask("b", "", nil)
	cTask, _ := s.AddMyTask("c", "", nil)

	s.ReorderMyTasks([]string{cTask.ID, a.ID, b.ID})

	got := s.Tasks()
	wantIDs := []string{cTask.ID, a.ID, b.ID}
	for i, tk := range got {
		if tk.ID != wantIDs[i] {
			t.Fatalf("unexpected order at %d: %+v", i, got)
		}
		if tk.Order != i {
			t.Fatalf("order must be dense, got %d at %d", tk.Order, i)
		}
	}

	// A partial id list keeps unlisted tasks behind the listed ones.
	s.ReorderMyTasks([]string{b.ID})
	got = s.Tasks()
	if got[0].ID != b.ID || len(got) != 3 {
		t.Fatalf("partial reorder wrong: %+v", got)
	}
}

func TestPlacementTop(t *testing.T) {
	s, _ := newTestService(0)
	s.Placement = settings.PlaceTop

	s.AddMyTask("first", "", nil)
	second, _ := s.AddMyTask("second", "", nil)

	got := s.Tasks()
	if got[0].ID != second.ID || got[0].Order != 0 {
		t.Fatalf("top placement must prepend: %+v", got)
	}
}

func TestRemoveCategoryClearsReferencesButKeepsNames(t *testing.T) {
	s, _ := newTestService(0)

	cat, _ := s.AddCategory("meetings", "#333")
	t1, _ := s.AddMyTask("standup", cat.ID, nil)
	t2, _ := s.AddMyTask("retro", cat.ID, nil)
	s.SetMyTaskCompletion(t2.ID, true)

	cleared, err := s.RemoveCategory(cat.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 task references cleared, got %d", cleared)
	}
	if got := s.Tasks()[0].CategoryID; got != "" {
		t.Fatalf("active task reference not cleared: %q", got)
	}
	if got := s.Archived()[0].CategoryID; got != "" {
		t.Fatalf("archived task reference not cleared: %q", got)
	}
	for _, id := range []string{t1.ID, t2.ID} {
		rec := s.Ledger()[id]
		if rec.Created.CategoryName != "meetings" {
			t.Fatalf("ledger must keep the frozen category name: %+v", rec.Created)
		}
		if rec.LatestCategoryID != "" {
			t.Fatalf("dangling category id must be dropped from the mirror: %+v", rec)
		}
	}
}

func TestResolveTaskGatesCategoryOnFeatureFlag(t *testing.T) {
	s, _ := newTestService(0)

	cat, _ := s.AddCategory("focus", "#444")
	minutes := 90
	tk, _ := s.AddMyTask("plan", cat.ID, &task.Planning{PlannedDurationMinutes: &minutes})

	info, ok := s.ResolveTask(tk.ID)
	if !ok {
		t.Fatalf("expected task to resolve")
	}
	if info.CategoryID != cat.ID {
		t.Fatalf("expected inherited category, got %q", info.CategoryID)
	}
	if info.Planning == nil || info.Planning.PlannedDurationMinutes != 90 {
		t.Fatalf("planning snapshot wrong: %+v", info.Planning)
	}

	s.SetCategoriesEnabled(false)
	info, _ = s.ResolveTask(tk.ID)
	if info.CategoryID != "" {
		t.Fatalf("disabled category feature must not inherit, got %q", info.CategoryID)
	}
}

func TestCategoryOfInheritsFromTask(t *testing.T) {
	s, _ := newTestService(0)

	cat, _ := s.AddCategory("a", "#555")
	tk, _ := s.AddMyTask("linked", cat.ID, nil)

	e := event.Event{
		ID:    event.NewID(),
		Type:  event.TypeTask,
		Label: "linked",
		Start: 0,
		End:   event.EndPtr(1_000),
		Meta:  &event.Meta{MyTaskID: tk.ID},
	}
	if got := s.CategoryOf(e); got != cat.ID {
		t.Fatalf("expected inherited category %s, got %q", cat.ID, got)
	}

	// An explicit reference on the event wins over inheritance.
	e.CategoryID = "explicit"
	if got := s.CategoryOf(e); got != "explicit" {
		t.Fatalf("explicit category must win, got %q", got)
	}
}
