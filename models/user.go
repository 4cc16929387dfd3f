package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the platform identity plus the denormalized competition state
// (rating, level, daily vote counters) that the voting and rating paths
// read on every request.
type User struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	Password  string  `gorm:"not null" json:"-"` // hashed by the auth gateway, never returned
	Email     *string `gorm:"uniqueIndex" json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`

	EloRating  int `json:"elo_rating" gorm:"default:1000"`
	Level      int `json:"level" gorm:"default:1"`
	Experience int `json:"experience" gorm:"default:0"`

	// Daily vote counters, reset at 00:00 UTC by the quota reset worker.
	// Incremented only via the conditional update in VoteService.
	DailyVotesUsed        int `json:"daily_votes_used" gorm:"default:0"`
	DailyDoubleVotesUsed  int `json:"daily_double_votes_used" gorm:"default:0"`
	DailySpecialVotesUsed int `json:"daily_special_votes_used" gorm:"default:0"`

	GuildID *string `gorm:"type:uuid;index" json:"guild_id,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
