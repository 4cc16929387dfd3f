package models

import "time"

// Team competes in TEAM_VS_TEAM challenges and carries its own ELO rating.
type Team struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string  `gorm:"uniqueIndex;not null" json:"name"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	LeaderUserID string  `gorm:"type:uuid;not null" json:"leader_user_id"`
	EloRating    int     `json:"elo_rating" gorm:"default:1000"`

	Timestamps

	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TeamMember is the membership join row.
type TeamMember struct {
	TeamID   string    `gorm:"primaryKey;type:uuid" json:"team_id"`
	UserID   string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
