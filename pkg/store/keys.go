package store

// Logical keys for the durable aggregates. Each key holds one JSON document.
const (
	KeyEvents          = "events"            // timeline events + cursor + resume slot
	KeyMyTasks         = "my-tasks"          // active task list
	KeyTaskLedger      = "task-ledger"       // lifecycle records, never pruned
	KeyArchivedTasks   = "archived-tasks"    // completed tasks moved off the active list
	KeyCategories      = "categories"        // categories + enabled flag
	KeyInterruptLabels = "interrupt-labels"  // interrupt category labels
	KeyContacts        = "contact-directory" // capped MRU "who" directory
	KeySubjects        = "subject-directory" // capped MRU interrupt subject directory
	KeySettings        = "settings"          // feature flags, thresholds, UI preferences
)
