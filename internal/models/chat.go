package models

import "time"

// Chat is a two-party conversation. PairLow/PairHigh hold the participant ids
// sorted so that (A,B) and (B,A) resolve to the same row.
type Chat struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	User1ID   string    `gorm:"column:user1_id;not null;index" json:"user1Id"`
	User2ID   string    `gorm:"column:user2_id;not null;index" json:"user2Id"`
	PairLow   string    `gorm:"not null;uniqueIndex:idx_chat_pair" json:"-"`
	PairHigh  string    `gorm:"not null;uniqueIndex:idx_chat_pair" json:"-"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two chat members.
func (c *Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    string    `gorm:"not null;index;type:varchar(36)" json:"chatId"`
	SenderID  string    `gorm:"not null" json:"senderId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
