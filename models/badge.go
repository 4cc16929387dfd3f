package models

import "time"

// Badge codes awarded automatically after matches and submissions.
const (
	BadgeFirstVictory    = "FIRST_VICTORY"
	BadgeTenVictories    = "TEN_VICTORIES"
	BadgeRating1200      = "RATING_1200"
	BadgeRating1500      = "RATING_1500"
	BadgeFirstSubmission = "FIRST_SUBMISSION"
)

// BadgeType is the catalogue row seeded at boot.
type BadgeType struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string  `gorm:"uniqueIndex;not null" json:"code"`
	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description,omitempty"`
	Rarity      string  `gorm:"type:varchar(16);default:COMMON" json:"rarity"`

	// Trigger thresholds; zero means the dimension is ignored.
	MinWins        int `json:"min_wins" gorm:"default:0"`
	MinRating      int `json:"min_rating" gorm:"default:0"`
	MinSubmissions int `json:"min_submissions" gorm:"default:0"`

	Timestamps
}

// UserBadge links an earned badge to a user. The (user, badge) pair is
// unique so awards are idempotent.
type UserBadge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeTypeID string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"badge_type_id"`
	EarnedAt    time.Time `json:"earned_at" gorm:"autoCreateTime"`

	BadgeType *BadgeType `json:"badge_type,omitempty" gorm:"foreignKey:BadgeTypeID"`
}
