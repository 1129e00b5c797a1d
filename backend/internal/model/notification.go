package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification delivery statuses
const (
	NotificationQueued = "queued"
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification outbox row for every message sent to a candidate
type Notification struct {
	NotificationID string         `gorm:"type:uuid;primaryKey"                           json:"notification_id"`
	RecipientID    string         `gorm:"type:uuid;not null;index"                       json:"recipient_id"`
	Template       string         `gorm:"type:varchar(64);not null"                      json:"template"`
	Channel        string         `gorm:"type:varchar(20);not null"                      json:"channel"` // telegram | log
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	Context        datatypes.JSON `json:"context,omitempty"`
	Status         string         `gorm:"type:varchar(20);not null;default:'queued'"     json:"status"`
	Error          string         `gorm:"type:varchar(500)"                              json:"error,omitempty"`
	RelatedType    *string        `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // job_offer | time_sheet
	RelatedID      *string        `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	BaseModel
}

func (Notification) TableName() string { return "notifications" }

func (m *Notification) BeforeCreate(*gorm.DB) error { ensureID(&m.NotificationID); return nil }
