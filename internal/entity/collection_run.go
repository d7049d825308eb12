package entity

import (
	"time"

	"gorm.io/datatypes"

	"ashare-data-collector/pkg/common"
)

// Collection run types.
const (
	RunTypeDaily    = "daily"
	RunTypeWeekly   = "weekly"
	RunTypeBackfill = "backfill"
	RunTypeNews     = "news"
)

// Collection run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// CollectionRun records one orchestrated run and its per-collector outcomes.
type CollectionRun struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RunType    string         `gorm:"type:varchar(16);not null;index" json:"run_type"`
	Status     string         `gorm:"type:varchar(16);not null" json:"status"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Detail     datatypes.JSON `gorm:"type:jsonb" json:"detail"`
}

func (CollectionRun) TableName() string { return common.TableCollectionRun }
