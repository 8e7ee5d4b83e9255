// Package tracker owns the application state: subjects, exams and display
// preferences. Every successful mutation is written through to a Persistence.
package tracker

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
)

// Persistence slots.
const (
	SlotSubjects = "subjects"
	SlotExams    = "exams"
	SlotTheme    = "theme"
	SlotAccent   = "accent"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultAccent is the accent color used until the user picks one.
const DefaultAccent = "blue"

// Accents lists the accent colors a user may choose.
var Accents = []string{"blue", "purple", "green", "indigo", "orange", "pink", "red", "teal"}

// Persistence is a key-value store holding one document per slot.
type Persistence interface {
	// Load returns the slot contents and whether the slot exists.
	Load(slot string) ([]byte, bool, error)
	Save(slot string, data []byte) error
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	store    Persistence
	clock    clock.Clock
	logger   *slog.Logger
	validate *validator.Validate

	subjects []model.Subject
	exams    []model.Exam
	theme    string
	accent   string
}

// New loads the tracker state from store. Missing or unreadable slots start from their
// defaults.
func New(store Persistence, c clock.Clock, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:    store,
		clock:    c,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		subjects: []model.Subject{},
		exams:    []model.Exam{},
		theme:    ThemeLight,
		accent:   DefaultAccent,
	}
	loadSlot(t, SlotSubjects, &t.subjects)
	loadSlot(t, SlotExams, &t.exams)
	loadSlot(t, SlotTheme, &t.theme)
	loadSlot(t, SlotAccent, &t.accent)

	if t.subjects == nil {
		t.subjects = []model.Subject{}
	}
	if t.exams == nil {
		t.exams = []model.Exam{}
	}
	if t.theme != ThemeLight && t.theme != ThemeDark {
		t.logger.Warn("unknown theme in storage, using default", "theme", t.theme)
		t.theme = ThemeLight
	}
	if !slices.Contains(Accents, t.accent) {
		t.logger.Warn("unknown accent in storage, using default", "accent", t.accent)
		t.accent = DefaultAccent
	}
	return t
}

// loadSlot decodes a slot into dst, leaving dst untouched on any failure.
func loadSlot[T any](t *Tracker, slot string, dst *T) {
	data, ok, err := t.store.Load(slot)
	if err != nil {
		t.logger.Warn("failed to load slot, using default", "slot", slot, "error", err)
		return
	}
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.logger.Warn("corrupt slot, using default", "slot", slot, "error", err)
		return
	}
	*dst = v
}

// save writes one slot. Failures are logged, never returned: the in-memory state stays
// authoritative for the rest of the process.
func (t *Tracker) save(slot string) {
	var v any
	switch slot {
	case SlotSubjects:
		v = t.subjects
	case SlotExams:
		v = t.exams
	case SlotTheme:
		v = t.theme
	case SlotAccent:
		v = t.accent
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.logger.Error("failed to encode slot", "slot", slot, "error", err)
		return
	}
	if err := t.store.Save(slot, data); err != nil {
		t.logger.Error("failed to save slot", "slot", slot, "error", err)
	}
}

// Theme returns the current theme.
func (t *Tracker) Theme() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

// ToggleTheme switches between light and dark and returns the new theme.
func (t *Tracker) ToggleTheme() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.theme == ThemeDark {
		t.theme = ThemeLight
	} else {
		t.theme = ThemeDark
	}
	t.save(SlotTheme)
	return t.theme
}

// Accent returns the current accent color.
func (t *Tracker) Accent() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accent
}

// SetAccent stores the accent color preference.
func (t *Tracker) SetAccent(accent string) error {
	if !slices.Contains(Accents, accent) {
		return &apperrors.ValidationError{Field: "accent", Message: "unknown accent color", Value: accent, Rule: "oneof"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accent = accent
	t.save(SlotAccent)
	return nil
}

func (t *Tracker) validateStruct(v any) error {
	if err := t.validate.Struct(v); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}
