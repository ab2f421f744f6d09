package tasks

import (
	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/task"
)

// TaskInfo is the resolved context the timeline needs to start an event for
// a task: label, inherited category, and the planning snapshot frozen into
// the event's meta.
type TaskInfo struct {
	Name        string
	CategoryID  string
	Planning    *event.PlanningSnapshot
	IsCompleted bool
	Archived    bool
}

// ResolveTask looks a task up by id across the active list and the archive.
// The category is only inherited while the category feature is enabled.
func (s *Service) ResolveTask(taskID string) (TaskInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(taskID); i >= 0 {
		return s.infoLocked(s.tasks[i], false), true
	}
	for i := range s.archived {
		if s.archived[i].ID == taskID {
			return s.infoLocked(s.archived[i].MyTask, true), true
		}
	}
	return TaskInfo{}, false
}

// CategoryName resolves a category id to its display name, falling back to
// the frozen ledger name and then to "" once the category is gone.
func (s *Service) CategoryName(categoryID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryNameLocked(categoryID)
}

// CategoryOf maps an event to its category id: the event's own reference
// wins, otherwise the category is inherited from the linked task. Pure with
// respect to the event; used by report and display layers.
func (s *Service) CategoryOf(e event.Event) string {
	if e.CategoryID != "" {
		return e.CategoryID
	}
	taskID := e.MyTaskID()
	if taskID == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(taskID); i >= 0 {
		return s.tasks[i].CategoryID
	}
	for i := range s.archived {
		if s.archived[i].ID == taskID {
			return s.archived[i].CategoryID
		}
	}
	if rec, ok := s.ledger[taskID]; ok {
		return rec.LatestCategoryID
	}
	return ""
}

func (s *Service) infoLocked(t task.MyTask, archived bool) TaskInfo {
	info := TaskInfo{
		Name:        t.Name,
		IsCompleted: t.IsCompleted,
		Archived:    archived,
	}
	if s.enabled {
		info.CategoryID = t.CategoryID
	}
	if t.Planning != nil {
		snap := &event.PlanningSnapshot{}
		if t.Planning.PlannedDurationMinutes != nil {
			snap.PlannedDurationMinutes = *t.Planning.PlannedDurationMinutes
		}
		if t.Planning.DueAt != nil {
			snap.DueAt = *t.Planning.DueAt
		}
		info.Planning = snap
	}
	return info
}
