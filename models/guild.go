package models

// Guild is a persistent group of users. Weekly points accrue from members'
// match wins (+10 per win) and reset every Monday 00:00 UTC.
type Guild struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	CreatedByID *string `gorm:"type:uuid" json:"created_by_id,omitempty"`

	WeeklyPoints int `json:"weekly_points" gorm:"default:0"`
	EloRating    int `json:"elo_rating" gorm:"default:1000"`

	Timestamps
}
