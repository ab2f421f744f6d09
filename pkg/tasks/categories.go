package tasks

import "github.com/yakan-007/interruptlog/pkg/task"

// AddCategory appends a category to the manual order.
func (s *Service) AddCategory(name, color string) (task.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return task.Category{}, ErrNameRequired
	}
	c := task.Category{
		ID:    task.NewID(),
		Name:  name,
		Color: color,
		Order: len(s.categories),
	}
	s.categories = append(s.categories, c)
	s.sink.SaveCategories(s.categoriesAggregateLocked())
	return c, nil
}

// UpdateCategory edits name and/or color. Nil fields are left unchanged.
// Renames ripple into the ledger's latest mirror for tasks referencing the
// category; checkpoints keep the name that was current when they were
// written.
func (s *Service) UpdateCategory(id string, name, color *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndexLocked(id)
	if i < 0 {
		return ErrCategoryNotFound
	}
	if name != nil {
		if *name == "" {
			return ErrNameRequired
		}
		s.categories[i].Name = *name
	}
	if color != nil {
		s.categories[i].Color = *color
	}
	for _, t := range s.tasks {
		if t.CategoryID == id {
			s.ledger.RefreshLatest(t, s.categories[i].Name)
		}
	}
	s.sink.SaveCategories(s.categoriesAggregateLocked())
	s.sink.SaveLedger(s.ledger)
	return nil
}

// RemoveCategory deletes a category and clears every task reference to it.
// Ledger records keep the frozen category name, so only the dangling id is
// dropped from the latest mirror. Event references are cleared by the
// caller, which owns the timeline. Returns the number of tasks touched.
func (s *Service) RemoveCategory(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndexLocked(id)
	if i < 0 {
		return 0, ErrCategoryNotFound
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	for j := range s.categories {
		s.categories[j].Order = j
	}

	cleared := 0
	for j := range s.tasks {
		if s.tasks[j].CategoryID == id {
			s.tasks[j].CategoryID = ""
			cleared++
		}
	}
	for j := range s.archived {
		if s.archived[j].CategoryID == id {
			s.archived[j].CategoryID = ""
			cleared++
		}
	}
	for _, rec := range s.ledger {
		if rec.LatestCategoryID == id {
			rec.LatestCategoryID = ""
		}
	}

	s.sink.SaveCategories(s.categoriesAggregateLocked())
	s.sink.SaveTasks(s.tasksCopyLocked())
	s.sink.SaveArchive(s.archivedCopyLocked())
	s.sink.SaveLedger(s.ledger)
	return cleared, nil
}

func (s *Service) categoryIndexLocked(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) categoryNameLocked(id string) string {
	if i := s.categoryIndexLocked(id); i >= 0 {
		return s.categories[i].Name
	}
	return ""
}
