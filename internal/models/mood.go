package models

import "time"

type Mood struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index:idx_mood_user_created;type:varchar(36)" json:"userId"`
	Mood      string    `gorm:"not null" json:"mood"`
	MoodValue int       `gorm:"not null" json:"moodValue"`
	CreatedAt time.Time `gorm:"index:idx_mood_user_created" json:"createdAt"`
}
