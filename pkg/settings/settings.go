// Package settings holds the miscellaneous durable preferences loaded as
// the fourth hydration aggregate.
package settings

// SortOrder selects how the active task list is presented.
type SortOrder string

const (
	SortManual  SortOrder = "manual"
	SortDueDate SortOrder = "dueDate"
)

// Placement selects where newly added tasks land in the active list.
type Placement string

const (
	PlaceBottom Placement = "bottom"
	PlaceTop    Placement = "top"
)

// Settings collects feature flags, alert thresholds, and UI preferences.
// The core consults NewTaskPlacement (insertion side) and AutoStartNewTask;
// the rest is passed through to the UI layer untouched. The category
// feature flag is not here: it is persisted alongside the categories
// themselves.
type Settings struct {
	AutoStartNewTask      bool      `json:"autoStartNewTask"`
	DueSoonThresholdHours int       `json:"dueSoonThresholdHours"`
	OverdueAlert          bool      `json:"overdueAlert"`
	TaskSort              SortOrder `json:"taskSort"`
	NewTaskPlacement      Placement `json:"newTaskPlacement"`
}

// Default returns the settings used when nothing is persisted yet.
func Default() Settings {
	return Settings{
		DueSoonThresholdHours: 24,
		TaskSort:              SortManual,
		NewTaskPlacement:      PlaceBottom,
	}
}
