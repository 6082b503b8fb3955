package models

import "time"

type SyncOperation string

const (
	SyncCreate SyncOperation = "create"
	SyncUpdate SyncOperation = "update"
	SyncDelete SyncOperation = "delete"
)

func (o SyncOperation) Valid() bool {
	return o == SyncCreate || o == SyncUpdate || o == SyncDelete
}

// SyncRecord is an operation a tablet performed while offline, queued for the desktop.
type SyncRecord struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        string        `gorm:"size:36;not null;uniqueIndex" json:"uuid"`
	DeviceID    string        `gorm:"size:100;not null;index" json:"device_id"`
	Operation   SyncOperation `gorm:"size:10;not null" json:"operation"`
	TargetTable string        `gorm:"size:50;not null" json:"table_name"`
	Payload     string        `gorm:"type:text;not null" json:"payload"`
	Synced      bool          `gorm:"not null;default:false;index" json:"synced"`
	SyncedAt    *time.Time    `json:"synced_at"`
	CreatedAt   time.Time     `json:"created_at"`
}
