package tracker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
)

// CreateSubject adds a subject with the given name.
func (t *Tracker) CreateSubject(name string) (model.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Subject{}, apperrors.NewValidationError("name", "is required", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s := model.Subject{ID: uuid.NewString(), Name: name, CreatedAt: t.clock.Now()}
	t.subjects = append(t.subjects, s)
	t.save(SlotSubjects)
	t.logger.Debug("subject created", "id", s.ID, "name", s.Name)
	return s, nil
}

// Subject returns the subject with the given id.
func (t *Tracker) Subject(id string) (model.Subject, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.subjectIndex(id)
	if err != nil {
		return model.Subject{}, err
	}
	return t.subjects[i], nil
}

// Subjects returns all subjects in creation order.
func (t *Tracker) Subjects() []model.Subject {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Subject{}, t.subjects...)
}

// UpdateSubject applies patch to a subject. Exams keep the subject name they were
// created with.
func (t *Tracker) UpdateSubject(id string, patch model.SubjectPatch) (model.Subject, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.Subject{}, apperrors.NewValidationError("name", "is required", name)
		}
		patch.Name = &name
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.subjectIndex(id)
	if err != nil {
		return model.Subject{}, err
	}
	patch.Apply(&t.subjects[i])
	t.save(SlotSubjects)
	return t.subjects[i], nil
}

// DeleteSubject removes a subject and every exam that belongs to it.
func (t *Tracker) DeleteSubject(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.subjectIndex(id)
	if err != nil {
		return err
	}
	t.subjects = append(t.subjects[:i], t.subjects[i+1:]...)

	kept := t.exams[:0]
	removed := 0
	for _, e := range t.exams {
		if e.SubjectID == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.exams = kept

	t.save(SlotSubjects)
	t.save(SlotExams)
	t.logger.Info("subject deleted", "id", id, "exams_removed", removed)
	return nil
}

func (t *Tracker) subjectIndex(id string) (int, error) {
	for i, s := range t.subjects {
		if s.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("subject %s: %w", id, apperrors.ErrNotFound)
}
