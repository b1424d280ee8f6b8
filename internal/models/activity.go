package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityJournal  ActivityType = "JOURNAL"
	ActivityMood     ActivityType = "MOOD"
	ActivityEQTest   ActivityType = "EQ_TEST"
	ActivityAIChat   ActivityType = "AI_CHAT"
	ActivityChat     ActivityType = "CHAT"
	ActivityPageView ActivityType = "PAGE_VIEW"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityJournal, ActivityMood, ActivityEQTest, ActivityAIChat, ActivityChat, ActivityPageView:
		return true
	}
	return false
}

// Activity is an append-only user event.
type Activity struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"not null;index;type:varchar(36)" json:"userId"`
	Type      ActivityType      `gorm:"type:varchar(32);not null;index" json:"type"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Chat{}, &Message{}, &Note{}, &Mood{}, &Activity{}}
}
