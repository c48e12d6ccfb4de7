// scheduled_job.go - Durable store for the auto-start voting job

package models

import "time"

// ScheduledJob persists the single pending auto-start job so a scheduled
// voting start survives a process restart. The scheduler keeps at most one
// row in this table.
type ScheduledJob struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     string    `gorm:"unique;not null" json:"job_id"` // auto_start_voting_<startTs>
	FireAt    int64     `gorm:"not null" json:"fire_at"`       // Unix seconds
	CreatedAt time.Time `json:"created_at"`
}
