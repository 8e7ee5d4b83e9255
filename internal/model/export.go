package model

import "time"

// BackupVersion is written into every exported backup document.
const BackupVersion = "1.0"

// Backup is the top-level JSON structure for a full data export.
type Backup struct {
	Subjects   []Subject `json:"subjects"`
	Exams      []Exam    `json:"exams"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

// ImportMode selects how an imported backup is combined with existing data.
type ImportMode string

const (
	// ImportReplace overwrites both collections wholesale.
	ImportReplace ImportMode = "replace"
	// ImportMerge appends incoming records without deduplication.
	ImportMerge ImportMode = "merge"
)

// SectionInput is a user-entered section definition used at exam creation.
type SectionInput struct {
	Name  string  `json:"name" validate:"required"`
	Count int     `json:"count" validate:"min=1,max=10000"`
	Marks float64 `json:"marks" validate:"gte=0"`
}

// CreateExamInput holds the parameters for starting a new exam.
type CreateExamInput struct {
	SubjectID     string         `json:"subjectId" validate:"required"`
	SubjectName   string         `json:"subjectName" validate:"required"`
	Name          string         `json:"name" validate:"max=200"`
	QuestionCount *int           `json:"questionCount" validate:"omitempty,min=1,max=10000"`
	NegativeMark  float64        `json:"negativeMark" validate:"gte=0"`
	TotalMaxMarks *float64       `json:"totalMaxMarks" validate:"omitempty,gt=0"`
	Sections      []SectionInput `json:"sections" validate:"dive"`
}
