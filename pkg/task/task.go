package task

import "github.com/google/uuid"

// Planning holds the optional forward-looking fields of a task.
type Planning struct {
	PlannedDurationMinutes *int   `json:"plannedDurationMinutes,omitempty"`
	DueAt                  *int64 `json:"dueAt,omitempty"`
}

// MyTask is a user-defined unit of work. Order is dense and zero-based and
// defines the manual sort of the active list. Timestamps are epoch ms.
type MyTask struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsCompleted bool      `json:"isCompleted"`
	Order       int       `json:"order"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Planning    *Planning `json:"planning,omitempty"`
	CreatedAt   int64     `json:"createdAt"`
	CompletedAt *int64    `json:"completedAt,omitempty"`
	CanceledAt  *int64    `json:"canceledAt,omitempty"`
}

// ArchivedTask is a completed task moved out of the active list. It keeps
// the full MyTask snapshot so it can be restored.
type ArchivedTask struct {
	MyTask
	ArchivedAt int64 `json:"archivedAt"`
}

// Category labels tasks and events. Order defines the manual sort.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// NewID returns an opaque unique id shared by tasks and categories.
func NewID() string {
	return uuid.NewString()
}

// ClonePlanning deep-copies a planning block so snapshots do not alias the
// live task.
func ClonePlanning(p *Planning) *Planning {
	if p == nil {
		return nil
	}
	c := Planning{}
	if p.PlannedDurationMinutes != nil {
		v := *p.PlannedDurationMinutes
		c.PlannedDurationMinutes = &v
	}
	if p.DueAt != nil {
		v := *p.DueAt
		c.DueAt = &v
	}
	return &c
}
