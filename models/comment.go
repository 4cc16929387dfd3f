package models

// Comment belongs to a submission; likes increment atomically via the like
// endpoint.
type Comment struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"type:uuid;not null;index" json:"submission_id"`
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Content      string `gorm:"not null" json:"content"`
	Likes        int64  `json:"likes" gorm:"default:0"`

	Timestamps

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
