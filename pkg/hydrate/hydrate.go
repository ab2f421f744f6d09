// Package hydrate reconstructs the in-memory stores from the persistence
// gateway at boot, migrating legacy shapes and repairing state left behind
// by an ungraceful shutdown.
package hydrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/settings"
	"github.com/yakan-007/interruptlog/pkg/store"
	"github.com/yakan-007/interruptlog/pkg/task"
	"github.com/yakan-007/interruptlog/pkg/tasks"
	"github.com/yakan-007/interruptlog/pkg/timeline"
)

// Phase tracks hydration progress. The explicit phase is the reentrancy
// guard: a second Hydrate while one is running is rejected instead of
// racing it.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHydrating
	PhaseHydrated
)

// ErrInProgress is returned when Hydrate is invoked while a hydration is
// already running.
var ErrInProgress = errors.New("hydrate: hydration already in progress")

// State is everything the orchestrator loads. Dirty lists the keys whose
// contents were changed by migration or repair and should be re-persisted
// by the caller.
type State struct {
	Timeline        timeline.Snapshot
	Tasks           tasks.Snapshot
	Settings        settings.Settings
	Contacts        []string
	Subjects        []string
	InterruptLabels []string

	Dirty []string
}

// Orchestrator loads the durable aggregates and owns the hydration phase.
type Orchestrator struct {
	mu    sync.Mutex
	phase Phase

	// Now is the clock; tests override it.
	Now func() time.Time

	gateway store.Gateway
}

func New(g store.Gateway) *Orchestrator {
	return &Orchestrator{Now: time.Now, gateway: g}
}

// Phase returns the current hydration phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Hydrate reads the four aggregates in parallel, each falling back to its
// default when absent or unreadable, then migrates and repairs. It never
// fails on bad data: the worst case is an empty state, and the caller still
// proceeds as hydrated so the UI does not hang.
func (o *Orchestrator) Hydrate(ctx context.Context) (State, error) {
	o.mu.Lock()
	if o.phase == PhaseHydrating {
		o.mu.Unlock()
		return State{}, ErrInProgress
	}
	o.phase = PhaseHydrating
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.phase = PhaseHydrated
		o.mu.Unlock()
	}()

	state := State{
		Settings: settings.Default(),
		Tasks: tasks.Snapshot{
			Ledger:     task.Ledger{},
			Categories: tasks.CategoriesAggregate{Enabled: true},
		},
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		o.load(ctx, store.KeyEvents, &state.Timeline)
	}()
	go func() {
		defer wg.Done()
		o.load(ctx, store.KeyMyTasks, &state.Tasks.Tasks)
		o.load(ctx, store.KeyTaskLedger, &state.Tasks.Ledger)
		o.load(ctx, store.KeyArchivedTasks, &state.Tasks.Archived)
	}()
	go func() {
		defer wg.Done()
		o.load(ctx, store.KeyCategories, &state.Tasks.Categories)
	}()
	go func() {
		defer wg.Done()
		o.load(ctx, store.KeySettings, &state.Settings)
		o.load(ctx, store.KeyContacts, &state.Contacts)
		o.load(ctx, store.KeySubjects, &state.Subjects)
		o.load(ctx, store.KeyInterruptLabels, &state.InterruptLabels)
	}()
	wg.Wait()

	now := o.Now().UnixMilli()
	if migrateTasks(&state.Tasks, now) {
		state.Dirty = append(state.Dirty, store.KeyMyTasks, store.KeyArchivedTasks, store.KeyTaskLedger)
	}
	if repairTimeline(&state.Timeline, now) {
		state.Dirty = append(state.Dirty, store.KeyEvents)
	}
	return state, nil
}

// load fills out from the gateway, leaving the preset default in place on
// absence or error. Read errors are logged, never fatal.
func (o *Orchestrator) load(ctx context.Context, key string, out any) {
	if _, err := o.gateway.Get(ctx, key, out); err != nil {
		fmt.Fprintf(os.Stderr, "hydrate: load %s: %v\n", key, err)
	}
}

// migrateTasks walks every loaded task once: it backfills missing lifecycle
// timestamps with values synthesized from list position, builds missing
// ledger entries, and moves tasks already marked complete into the archive.
// Reports whether anything changed.
func migrateTasks(snap *tasks.Snapshot, now int64) bool {
	if snap.Ledger == nil {
		snap.Ledger = task.Ledger{}
	}
	changed := false

	categoryName := func(id string) string {
		for _, c := range snap.Categories.Categories {
			if c.ID == id {
				return c.Name
			}
		}
		return ""
	}

	active := snap.Tasks[:0]
	for i := range snap.Tasks {
		t := snap.Tasks[i]
		if t.CreatedAt == 0 {
			// Older shapes had no createdAt; synthesize one preserving the
			// list order so relative history stays plausible.
			t.CreatedAt = now - int64(len(snap.Tasks)-i)*60_000
			changed = true
		}
		if _, ok := snap.Ledger[t.ID]; !ok {
			snap.Ledger.MarkCreated(t, categoryName(t.CategoryID), t.CreatedAt)
			changed = true
		}
		if t.IsCompleted {
			// Completed tasks belong in the archive, not the active list.
			at := now
			if t.CompletedAt != nil {
				at = *t.CompletedAt
			} else {
				t.CompletedAt = &at
			}
			snap.Ledger.MarkCompleted(t, categoryName(t.CategoryID), at)
			snap.Archived = append(snap.Archived, task.ArchivedTask{MyTask: t, ArchivedAt: at})
			changed = true
			continue
		}
		active = append(active, t)
	}
	snap.Tasks = active

	for i := range snap.Archived {
		a := &snap.Archived[i]
		if a.CreatedAt == 0 {
			a.CreatedAt = now - int64(len(snap.Archived)-i)*60_000
			changed = true
		}
		if a.CompletedAt == nil && a.IsCompleted {
			at := a.ArchivedAt
			if at == 0 {
				at = now
			}
			a.CompletedAt = &at
			changed = true
		}
		if _, ok := snap.Ledger[a.ID]; !ok {
			snap.Ledger.MarkCreated(a.MyTask, categoryName(a.CategoryID), a.CreatedAt)
			if a.CompletedAt != nil {
				snap.Ledger.MarkCompleted(a.MyTask, categoryName(a.CategoryID), *a.CompletedAt)
			}
			changed = true
		}
	}

	for i := range snap.Tasks {
		if snap.Tasks[i].Order != i {
			snap.Tasks[i].Order = i
			changed = true
		}
	}
	return changed
}

// repairTimeline force-closes an event left open by a previous session.
// Resume-on-reload is deliberately unsupported: a process killed mid-task
// gets its event terminated at the next boot, never silently continued.
func repairTimeline(snap *timeline.Snapshot, now int64) bool {
	changed := false
	for i := range snap.Events {
		if snap.Events[i].Open() {
			end := now
			if end < snap.Events[i].Start {
				end = snap.Events[i].Start
			}
			snap.Events[i].End = &end
			changed = true
		}
	}
	if snap.CurrentEventID != "" {
		snap.CurrentEventID = ""
		changed = true
	}
	event.Sort(snap.Events)
	return changed
}
