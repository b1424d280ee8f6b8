package models

import "time"

// EQ levels stored on User.EQLevel.
const (
	EQLevelNeedsImprovement = "Needs Improvement"
	EQLevelAverage          = "Average"
	EQLevelHigh             = "High"
)

const RoleUser = "USER"

// User is created when the auth provider account is first synced.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FirebaseUID  string    `gorm:"uniqueIndex;not null" json:"firebaseUID"`
	Name         string    `json:"name"`
	Email        string    `gorm:"index" json:"email"`
	PhotoURL     string    `gorm:"column:photo_url" json:"photoURL"`
	Role         string    `gorm:"not null;default:USER" json:"role"`
	EQScore      *int      `gorm:"column:eq_score;index" json:"eqScore"`
	EQLevel      string    `gorm:"column:eq_level" json:"eqLevel"`
	AvgSentiment *float64  `json:"avgSentiment"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicProfile is what other users may see next to a note.
type PublicProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
}

func (u *User) PublicProfile() *PublicProfile {
	if u == nil {
		return nil
	}
	return &PublicProfile{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL}
}
