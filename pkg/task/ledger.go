package task

// Checkpoint is the category/planning context captured at one lifecycle
// point. Fields follow first-write-wins semantics inside a record.
type Checkpoint struct {
	At             *int64 `json:"at,omitempty"`
	CategoryID     string `json:"categoryId,omitempty"`
	CategoryName   string `json:"categoryName,omitempty"`
	PlannedMinutes *int   `json:"plannedMinutes,omitempty"`
	DueAt          *int64 `json:"dueAt,omitempty"`
}

// set writes the checkpoint once; later calls are ignored while At is set.
func (c *Checkpoint) set(at int64, snap Checkpoint) {
	if c.At != nil {
		return
	}
	*c = snap
	c.At = &at
}

// LifecycleRecord is the permanent per-task ledger entry. It outlives the
// task itself: deleting or archiving the task never removes its record, so
// historical reports keep resolving category names and planning context.
// The category name is frozen into each checkpoint at write time, which is
// what keeps reports meaningful after a category is deleted.
type LifecycleRecord struct {
	TaskID    string     `json:"taskId"`
	Created   Checkpoint `json:"created"`
	Completed Checkpoint `json:"completed"`
	Canceled  Checkpoint `json:"canceled"`

	// Latest mirrors the most recent task state and is refreshed on every
	// edit, unlike the checkpoints above.
	LatestName           string `json:"latestName,omitempty"`
	LatestCategoryID     string `json:"latestCategoryId,omitempty"`
	LatestCategoryName   string `json:"latestCategoryName,omitempty"`
	LatestPlannedMinutes *int   `json:"latestPlannedMinutes,omitempty"`
	LatestDueAt          *int64 `json:"latestDueAt,omitempty"`
}

// Ledger maps task id to its lifecycle record.
type Ledger map[string]*LifecycleRecord

// Entry returns the record for id, creating it if absent.
func (l Ledger) Entry(id string) *LifecycleRecord {
	rec, ok := l[id]
	if !ok {
		rec = &LifecycleRecord{TaskID: id}
		l[id] = rec
	}
	return rec
}

// MarkCreated records the created checkpoint (write-once) and refreshes the
// latest mirror.
func (l Ledger) MarkCreated(t MyTask, categoryName string, at int64) {
	rec := l.Entry(t.ID)
	rec.Created.set(at, snapshotOf(t, categoryName))
	l.RefreshLatest(t, categoryName)
}

// MarkCompleted records the completed checkpoint. Re-completing after an
// un-completion writes again because ClearCompleted reset the slot.
func (l Ledger) MarkCompleted(t MyTask, categoryName string, at int64) {
	rec := l.Entry(t.ID)
	rec.Completed.set(at, snapshotOf(t, categoryName))
	l.RefreshLatest(t, categoryName)
}

// ClearCompleted resets the completed checkpoint when a task is toggled
// back to active.
func (l Ledger) ClearCompleted(taskID string) {
	if rec, ok := l[taskID]; ok {
		rec.Completed = Checkpoint{}
	}
}

// MarkCanceled records the canceled checkpoint for a task deleted while
// still active. The record stays in the ledger permanently.
func (l Ledger) MarkCanceled(t MyTask, categoryName string, at int64) {
	rec := l.Entry(t.ID)
	rec.Canceled.set(at, snapshotOf(t, categoryName))
	l.RefreshLatest(t, categoryName)
}

// RefreshLatest mirrors the task's current name, category, and planning.
// Edits always land here and never touch the checkpoints.
func (l Ledger) RefreshLatest(t MyTask, categoryName string) {
	rec := l.Entry(t.ID)
	rec.LatestName = t.Name
	rec.LatestCategoryID = t.CategoryID
	rec.LatestCategoryName = categoryName
	rec.LatestPlannedMinutes = nil
	rec.LatestDueAt = nil
	if t.Planning != nil {
		if t.Planning.PlannedDurationMinutes != nil {
			v := *t.Planning.PlannedDurationMinutes
			rec.LatestPlannedMinutes = &v
		}
		if t.Planning.DueAt != nil {
			v := *t.Planning.DueAt
			rec.LatestDueAt = &v
		}
	}
}

func snapshotOf(t MyTask, categoryName string) Checkpoint {
	snap := Checkpoint{
		CategoryID:   t.CategoryID,
		CategoryName: categoryName,
	}
	if t.Planning != nil {
		if t.Planning.PlannedDurationMinutes != nil {
			v := *t.Planning.PlannedDurationMinutes
			snap.PlannedMinutes = &v
		}
		if t.Planning.DueAt != nil {
			v := *t.Planning.DueAt
			snap.DueAt = &v
		}
	}
	return snap
}
