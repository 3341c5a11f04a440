package models

import "time"

const (
	HarvestRunStatusSuccess = "success"
	HarvestRunStatusError   = "error"
)

// HarvestRun is the audit row for one harvest invocation. Rows are only
// ever inserted, once, after the run reached a terminal state.
type HarvestRun struct {
	ID            uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	RunUUID       string  `json:"run_uuid" gorm:"column:run_uuid;type:char(36);not null;uniqueIndex"`
	TriggerSource string  `json:"trigger_source" gorm:"column:trigger_source;type:varchar(64);not null"`
	Locality      string  `json:"locality" gorm:"column:locality;type:varchar(128)"`
	Status        string  `json:"status" gorm:"column:status;type:varchar(16);not null"`
	ErrorMessage  *string `json:"error_message,omitempty" gorm:"column:error_message;type:text"`

	StartedAt       time.Time `json:"started_at" gorm:"column:started_at;not null"`
	FinishedAt      time.Time `json:"finished_at" gorm:"column:finished_at;not null;index"`
	DurationSeconds float64   `json:"duration_seconds" gorm:"column:duration_seconds"`

	TotalFound   int `json:"total_found" gorm:"column:total_found;not null;default:0"`
	NewItems     int `json:"new_items" gorm:"column:new_items;not null;default:0"`
	Errors       int `json:"errors" gorm:"column:errors;not null;default:0"`
	FieldIssues  int `json:"field_issues" gorm:"column:field_issues;not null;default:0"`
	PagesVisited int `json:"pages_visited" gorm:"column:pages_visited;not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (HarvestRun) TableName() string { return "harvest_runs" }
