package models

import (
	"time"

	"gorm.io/datatypes"
)

// Challenge types
const (
	ChallengeTypeCode   = "CODE"
	ChallengeTypeDesign = "DESIGN"
	ChallengeTypeVideo  = "VIDEO"
	ChallengeTypeAudio  = "AUDIO"
)

// Challenge formats
const (
	FormatOneVsOne     = "ONE_VS_ONE"
	FormatTeamVsTeam   = "TEAM_VS_TEAM"
	FormatBattleRoyale = "BATTLE_ROYALE"
)

// Challenge is a timed competition users submit work to.
type Challenge struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"not null" json:"description"`
	Type        string         `gorm:"type:varchar(16);not null;index" json:"type"`
	Format      string         `gorm:"type:varchar(16);not null" json:"format"`
	Duration    int            `gorm:"not null" json:"duration"` // minutes
	StartsAt    *time.Time     `json:"starts_at,omitempty"`
	EndsAt      *time.Time     `json:"ends_at,omitempty" gorm:"index"`
	CreatedByID *string        `gorm:"type:uuid" json:"created_by_id,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"` // JSON array of strings
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`

	Timestamps

	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:ChallengeID"`

	// Calculated, not stored
	SubmissionsCount int64 `json:"submissions_count,omitempty" gorm:"-"`
}
