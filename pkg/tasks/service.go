// Package tasks owns the active task list, the archive, the category set,
// and the lifecycle ledger that feeds historical reports.
package tasks

import (
	"errors"
	"sync"
	"time"

	"github.com/yakan-007/interruptlog/pkg/settings"
	"github.com/yakan-007/interruptlog/pkg/task"
)

var (
	ErrTaskNotFound     = errors.New("tasks: task not found")
	ErrCategoryNotFound = errors.New("tasks: category not found")
	ErrNameRequired     = errors.New("tasks: name required")
)

// CategoriesAggregate is the durable shape of the category set, including
// the feature flag that gates category inheritance.
type CategoriesAggregate struct {
	Categories []task.Category `json:"categories"`
	Enabled    bool            `json:"enabled"`
}

// Snapshot bundles the durable task aggregates for hydration.
type Snapshot struct {
	Tasks      []task.MyTask
	Archived   []task.ArchivedTask
	Ledger     task.Ledger
	Categories CategoriesAggregate
}

// Sink receives task state after successful mutations. SaveTasksDebounced
// is the coalesced path used during interactive reordering; everything else
// persists per mutation.
type Sink interface {
	SaveTasks(tasks []task.MyTask)
	SaveTasksDebounced(tasks []task.MyTask)
	SaveArchive(archived []task.ArchivedTask)
	SaveLedger(ledger task.Ledger)
	SaveCategories(agg CategoriesAggregate)
}

type nopSink struct{}

func (nopSink) SaveTasks([]task.MyTask) {}
func (nopSink) SaveTasksDebounced([]task.MyTask) {}
func (nopSink) SaveArchive([]task.ArchivedTask) {}
func (nopSink) SaveLedger(task.Ledger) {}
func (nopSink) SaveCategories(CategoriesAggregate) {}

// Service is the task store. Mutations are synchronous; persistence goes
// through the Sink fire-and-forget.
type Service struct {
	mu sync.Mutex

	// Now is the clock; tests override it.
	Now func() time.Time

	// Placement controls where new tasks land in the active list.
	Placement settings.Placement

	tasks      []task.MyTask
	archived   []task.ArchivedTask
	ledger     task.Ledger
	categories []task.Category
	enabled    bool
	sink       Sink
}

// New returns an empty task service. A nil sink disables persistence.
func New(sink Sink) *Service {
	if sink == nil {
		sink = nopSink{}
	}
	return &Service{
		Now:       time.Now,
		Placement: settings.PlaceBottom,
		ledger:    task.Ledger{},
		enabled:   true,
		sink:      sink,
	}
}

// Load installs hydrated state.
func (s *Service) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]task.MyTask(nil), snap.Tasks...)
	s.archived = append([]task.ArchivedTask(nil), snap.Archived...)
	s.ledger = snap.Ledger
	if s.ledger == nil {
		s.ledger = task.Ledger{}
	}
	s.categories = append([]task.Category(nil), snap.Categories.Categories...)
	s.enabled = snap.Categories.Enabled
	s.renumberLocked()
}

// Tasks returns the active list ordered by Order.
func (s *Service) Tasks() []task.MyTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.MyTask(nil), s.tasks...)
}

// Archived returns the archive.
func (s *Service) Archived() []task.ArchivedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.ArchivedTask(nil), s.archived...)
}

// Ledger returns the lifecycle records keyed by task id. The returned map
// is a shallow copy; records themselves are shared and must be treated as
// read-only by callers.
func (s *Service) Ledger() task.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := task.Ledger{}
	for id, rec := range s.ledger {
		out[id] = rec
	}
	return out
}

// Categories returns the category set ordered by Order.
func (s *Service) Categories() []task.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Category(nil), s.categories...)
}

// CategoriesEnabled reports the category feature flag.
func (s *Service) CategoriesEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetCategoriesEnabled flips the category feature flag.
func (s *Service) SetCategoriesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.sink.SaveCategories(s.categoriesAggregateLocked())
}

// AddMyTask creates a task, placing it per the placement preference, and
// writes the created checkpoint to the ledger.
func (s *Service) AddMyTask(name, categoryID string, planning *task.Planning) (task.MyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return task.MyTask{}, ErrNameRequired
	}
	now := s.nowMS()
	t := task.MyTask{
		ID:         task.NewID(),
		Name:       name,
		CategoryID: categoryID,
		Planning:   task.ClonePlanning(planning),
		CreatedAt:  now,
	}
	if s.Placement == settings.PlaceTop {
		s.tasks = append([]task.MyTask{t}, s.tasks...)
	} else {
		s.tasks = append(s.tasks, t)
	}
	s.renumberLocked()
	s.ledger.MarkCreated(t, s.categoryNameLocked(t.CategoryID), now)
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return t, nil
}

// RemoveMyTask deletes an active task. Deletion while active counts as a
// cancellation: the canceled checkpoint is written and the ledger entry
// remains forever even though the task disappears.
func (s *Service) RemoveMyTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := s.tasks[i]
	now := s.nowMS()
	s.ledger.MarkCanceled(t, s.categoryNameLocked(t.CategoryID), now)
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.renumberLocked()
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return nil
}

// UpdateMyTask edits name and/or category. Nil fields are left unchanged.
// Edits refresh the ledger's latest mirror and never touch checkpoints.
func (s *Service) UpdateMyTask(id string, name, categoryID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	if name != nil {
		if *name == "" {
			return ErrNameRequired
		}
		s.tasks[i].Name = *name
	}
	if categoryID != nil {
		s.tasks[i].CategoryID = *categoryID
	}
	s.ledger.RefreshLatest(s.tasks[i], s.categoryNameLocked(s.tasks[i].CategoryID))
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return nil
}

// UpdateMyTaskPlanning replaces the planning block.
func (s *Service) UpdateMyTaskPlanning(id string, planning *task.Planning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	s.tasks[i].Planning = task.ClonePlanning(planning)
	s.ledger.RefreshLatest(s.tasks[i], s.categoryNameLocked(s.tasks[i].CategoryID))
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return nil
}

// SetMyTaskCompletion completes or un-completes a task. Completion writes
// the completed checkpoint and moves the task into the archive;
// un-completion clears the checkpoint and restores the task to the end of
// the active list.
func (s *Service) SetMyTaskCompletion(id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if completed {
		return s.completeLocked(id)
	}
	return s.uncompleteLocked(id)
}

// ToggleMyTaskCompletion flips completion: active tasks complete, archived
// tasks return to the active list.
func (s *Service) ToggleMyTaskCompletion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) >= 0 {
		return s.completeLocked(id)
	}
	return s.uncompleteLocked(id)
}

func (s *Service) completeLocked(id string) error {
	i := s.indexLocked(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := s.tasks[i]
	now := s.nowMS()
	t.IsCompleted = true
	t.CompletedAt = &now
	s.ledger.MarkCompleted(t, s.categoryNameLocked(t.CategoryID), now)
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.renumberLocked()
	s.archived = append(s.archived, task.ArchivedTask{MyTask: t, ArchivedAt: now})
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveArchive(s.archivedCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return nil
}

func (s *Service) uncompleteLocked(id string) error {
	for i := range s.archived {
		if s.archived[i].ID != id {
			continue
		}
		t := s.archived[i].MyTask
		t.IsCompleted = false
		t.CompletedAt = nil
		s.archived = append(s.archived[:i], s.archived[i+1:]...)
		s.tasks = append(s.tasks, t)
		s.renumberLocked()
		s.ledger.ClearCompleted(id)
		s.ledger.RefreshLatest(t, s.categoryNameLocked(t.CategoryID))
		s.sink.SaveTasks(s.tasksCopyLocked())
		s.sink.SaveArchive(s.archivedCopyLocked())
		s.sink.SaveLedger(s.ledger)
		return nil
	}
	// Already-active tasks with a stale completed flag are repaired too.
	if i := s.indexLocked(id); i >= 0 && s.tasks[i].IsCompleted {
		s.tasks[i].IsCompleted = false
		s.tasks[i].CompletedAt = nil
		s.ledger.ClearCompleted(id)
		s.sink.SaveTasks(s.tasksCopyLocked())
		s.sink.SaveLedger(s.ledger)
		return nil
	}
	return ErrTaskNotFound
}

// ReorderMyTasks reassigns dense order following ids; active tasks missing
// from ids keep their relative order after the listed ones. This is the one
// debounced write path: interactive dragging calls it per frame.
func (s *Service) ReorderMyTasks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(ids))
	next := make([]task.MyTask, 0, len(s.tasks))
	for _, id := range ids {
		if i := s.indexLocked(id); i >= 0 && !seen[id] {
			next = append(next, s.tasks[i])
			seen[id] = true
		}
	}
	for _, t := range s.tasks {
		if !seen[t.ID] {
			next = append(next, t)
		}
	}
	s.tasks = next
	s.renumberLocked()
	s.sink.SaveTasksDebounced(s.tasksCopyLocked())
}

// RestoreArchivedTask moves an archived task back to the active list.
func (s *Service) RestoreArchivedTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uncompleteLocked(id)
}

// DeleteArchivedTask removes an archived task permanently. Its ledger entry
// stays; the ledger is the source of truth for reports after deletion.
func (s *Service) DeleteArchivedTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.archived {
		if s.archived[i].ID == id {
			s.archived = append(s.archived[:i], s.archived[i+1:]...)
			s.sink.SaveArchive(s.archivedCopyLocked())
			return nil
		}
	}
	return ErrTaskNotFound
}

func (s *Service) nowMS() int64 {
	return s.Now().UnixMilli()
}

func (s *Service) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// renumberLocked keeps Order dense and zero-based in slice order.
func (s *Service) renumberLocked() {
	for i := range s.tasks {
		s.tasks[i].Order = i
	}
}

func (s *Service) tasksCopyLocked() []task.MyTask {
	return append([]task.MyTask(nil), s.tasks...)
}

func (s *Service) archivedCopyLocked() []task.ArchivedTask {
	return append([]task.ArchivedTask(nil), s.archived...)
}

func (s *Service) categoriesAggregateLocked() CategoriesAggregate {
	return CategoriesAggregate{
		Categories: append([]task.Category(nil), s.categories...),
		Enabled:    s.enabled,
	}
}
