// Package app wires the timeline store, task service, and persistence
// gateway into one explicitly constructed service. UI layers hold a
// reference to a Service; nothing in this module is reachable through
// package-level state.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/hydrate"
	"github.com/yakan-007/interruptlog/pkg/settings"
	"github.com/yakan-007/interruptlog/pkg/store"
	"github.com/yakan-007/interruptlog/pkg/task"
	"github.com/yakan-007/interruptlog/pkg/tasks"
	"github.com/yakan-007/interruptlog/pkg/timeline"
)

// Service is the action surface consumed by UI and report layers. All
// mutations are synchronous against in-memory state; persistence is
// fire-and-forget through the writer.
type Service struct {
	Timeline *timeline.Store
	Tasks    *tasks.Service

	mu              sync.Mutex
	settings        settings.Settings
	interruptLabels []string
	hydrated        bool

	gateway      store.Gateway
	writer       *store.Writer
	debounce     *store.Debouncer
	orchestrator *hydrate.Orchestrator
}

// New builds a Service over the gateway. Call Hydrate before use and Close
// on shutdown so pending writes reach disk.
func New(g store.Gateway) *Service {
	s := &Service{
		settings: settings.Default(),
		gateway:  g,
		writer:   store.NewWriter(g, nil),
		debounce: store.NewDebouncer(store.ReorderDebounce),
	}
	s.Timeline = timeline.New(s)
	s.Tasks = tasks.New(s)
	s.orchestrator = hydrate.New(g)
	return s
}

// Hydrate loads durable state into the stores. Safe to call once at boot;
// a concurrent second call is rejected by the orchestrator's phase guard.
func (s *Service) Hydrate(ctx context.Context) error {
	state, err := s.orchestrator.Hydrate(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = state.Settings
	s.interruptLabels = state.InterruptLabels
	s.hydrated = true
	s.mu.Unlock()

	s.Tasks.Placement = state.Settings.NewTaskPlacement
	s.Tasks.Load(state.Tasks)
	s.Timeline.Load(state.Timeline, state.Contacts, state.Subjects)

	// Migration and repair results go back to disk so the next boot loads
	// them clean.
	for _, key := range state.Dirty {
		switch key {
		case store.KeyEvents:
			s.writer.Enqueue(store.KeyEvents, s.Timeline.Snapshot())
		case store.KeyMyTasks:
			s.writer.Enqueue(store.KeyMyTasks, s.Tasks.Tasks())
		case store.KeyArchivedTasks:
			s.writer.Enqueue(store.KeyArchivedTasks, s.Tasks.Archived())
		case store.KeyTaskLedger:
			s.writer.Enqueue(store.KeyTaskLedger, s.Tasks.Ledger())
		}
	}
	return nil
}

// IsHydrated reports whether boot-time loading has finished. It is true
// even after a failed load; the service then runs on defaults.
func (s *Service) IsHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Close flushes the debounced write path and drains the writer.
func (s *Service) Close() {
	s.debounce.Flush()
	s.writer.Close()
}

// WatchStore streams change notifications for the durable aggregates. Used
// by follow-style views to refresh when another process writes.
func (s *Service) WatchStore(ctx context.Context) (<-chan store.ChangeEvent, error) {
	return s.gateway.Watch(ctx)
}

// ReloadTimeline re-reads the timeline aggregate from disk and installs it,
// returning the fresh snapshot. Open events and dangling cursors written by
// another process are left as-is; repair only happens at boot.
func (s *Service) ReloadTimeline(ctx context.Context) (timeline.Snapshot, error) {
	var snap timeline.Snapshot
	if _, err := s.gateway.Get(ctx, store.KeyEvents, &snap); err != nil {
		return timeline.Snapshot{}, err
	}
	s.Timeline.Load(snap, s.Timeline.Contacts(), s.Timeline.Subjects())
	return s.Timeline.Snapshot(), nil
}

// StartTask starts a task event, resolving category inheritance and the
// planning snapshot from the linked task. Starting a completed task
// reactivates it. An unknown task id degrades to a plain labeled event.
func (s *Service) StartTask(label, taskID string) event.Event {
	p := timeline.StartTask{Label: label, TaskID: taskID}
	if taskID != "" {
		info, ok := s.Tasks.ResolveTask(taskID)
		if !ok {
			fmt.Fprintf(os.Stderr, "app: start task: unknown task %s\n", taskID)
			p.TaskID = ""
		} else {
			if p.Label == "" {
				p.Label = info.Name
			}
			p.Category = info.CategoryID
			p.Planning = info.Planning
			if info.IsCompleted {
				if err := s.Tasks.SetMyTaskCompletion(taskID, false); err != nil {
					fmt.Fprintf(os.Stderr, "app: reactivate task %s: %v\n", taskID, err)
				}
			}
		}
	}
	return s.Timeline.StartTask(p)
}

// AddMyTask creates a task and, when the auto-start preference is on,
// immediately starts an event for it.
func (s *Service) AddMyTask(name, categoryID string, planning *task.Planning) (task.MyTask, error) {
	t, err := s.Tasks.AddMyTask(name, categoryID, planning)
	if err != nil {
		return task.MyTask{}, err
	}
	if s.Settings().AutoStartNewTask {
		s.StartTask("", t.ID)
	}
	return t, nil
}

// RemoveCategory deletes a category and cascades the clear across tasks and
// events. Ledger entries keep the frozen category name. Returns the total
// number of references cleared.
func (s *Service) RemoveCategory(id string) (int, error) {
	cleared, err := s.Tasks.RemoveCategory(id)
	if err != nil {
		return 0, err
	}
	cleared += s.Timeline.ClearCategory(id)
	return cleared, nil
}

// Settings returns the current preferences.
func (s *Service) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the preferences and persists them.
func (s *Service) UpdateSettings(next settings.Settings) {
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	s.Tasks.Placement = next.NewTaskPlacement
	s.writer.Enqueue(store.KeySettings, next)
}

// InterruptLabels returns the configurable interrupt category labels.
func (s *Service) InterruptLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.interruptLabels...)
}

// AddInterruptLabel appends a label to the interrupt category set.
func (s *Service) AddInterruptLabel(label string) {
	if label == "" {
		return
	}
	s.mu.Lock()
	for _, existing := range s.interruptLabels {
		if existing == label {
			s.mu.Unlock()
			return
		}
	}
	s.interruptLabels = append(s.interruptLabels, label)
	labels := append([]string(nil), s.interruptLabels...)
	s.mu.Unlock()
	s.writer.Enqueue(store.KeyInterruptLabels, labels)
}

// SaveTimeline implements timeline.Sink.
func (s *Service) SaveTimeline(snap timeline.Snapshot) {
	s.writer.Enqueue(store.KeyEvents, snap)
}

// SaveContacts implements timeline.Sink.
func (s *Service) SaveContacts(values []string) {
	s.writer.Enqueue(store.KeyContacts, values)
}

// SaveSubjects implements timeline.Sink.
func (s *Service) SaveSubjects(values []string) {
	s.writer.Enqueue(store.KeySubjects, values)
}

// SaveTasks implements tasks.Sink.
func (s *Service) SaveTasks(list []task.MyTask) {
	s.writer.Enqueue(store.KeyMyTasks, list)
}

// SaveTasksDebounced implements tasks.Sink: reorder writes coalesce to one
// disk write per quiet period instead of one per drag frame.
func (s *Service) SaveTasksDebounced(list []task.MyTask) {
	s.debounce.Trigger(func() {
		s.writer.Enqueue(store.KeyMyTasks, list)
	})
}

// SaveArchive implements tasks.Sink.
func (s *Service) SaveArchive(archived []task.ArchivedTask) {
	s.writer.Enqueue(store.KeyArchivedTasks, archived)
}

// SaveLedger implements tasks.Sink.
func (s *Service) SaveLedger(ledger task.Ledger) {
	s.writer.Enqueue(store.KeyTaskLedger, ledger)
}

// SaveCategories implements tasks.Sink.
func (s *Service) SaveCategories(agg tasks.CategoriesAggregate) {
	s.writer.Enqueue(store.KeyCategories, agg)
}
