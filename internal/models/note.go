package models

import "time"

// Note is a journal entry. NoteID is the identifier exposed to clients.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	NoteID    string    `gorm:"uniqueIndex;not null;type:varchar(36)" json:"noteId"`
	UserID    string    `gorm:"not null;index;type:varchar(36)" json:"userId"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	IsPublic  bool      `gorm:"not null;default:false;index" json:"isPublic"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}
