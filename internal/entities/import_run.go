package entities

import "time"

type ImportRunStatus string

const (
	ImportRunRunning   ImportRunStatus = "running"
	ImportRunCompleted ImportRunStatus = "completed"
	ImportRunAborted   ImportRunStatus = "aborted"
)

// ImportTrigger records what started an import run.
type ImportTrigger string

const (
	ImportTriggerHTTP     ImportTrigger = "http"
	ImportTriggerCLI      ImportTrigger = "cli"
	ImportTriggerTask     ImportTrigger = "task"
	ImportTriggerSchedule ImportTrigger = "schedule"
)

type ImportRun struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Status            ImportRunStatus `gorm:"index;size:20;default:'running'" json:"status"`
	Trigger           ImportTrigger   `gorm:"size:20" json:"trigger"`
	Mapping           string          `gorm:"type:text" json:"mapping"` // JSON object source -> blog slug
	BlogsProcessed    int             `json:"blogs_processed"`
	PostsImported     int             `json:"posts_imported"`
	PostsSkipped      int             `json:"posts_skipped"`
	CategoriesCreated int             `json:"categories_created"`
	AuthorsCreated    int             `json:"authors_created"`
	Errors            string          `gorm:"type:text" json:"errors,omitempty"` // JSON array of messages
	StartedAt         time.Time       `gorm:"index" json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}
