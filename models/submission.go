package models

import (
	"errors"
	"time"
)

// OwnerKind discriminates who owns a submission or match side.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerTeam OwnerKind = "team"
)

// Owner is the tagged variant behind the two nullable foreign keys in the
// schema: exactly one of User/Team.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

var ErrAmbiguousOwner = errors.New("submission must be owned by exactly one of user or team")

// Submission is a single entry into a challenge. Immutable after creation;
// votes_count and exposure_count are the only columns ever updated, both via
// atomic expressions inside the vote / pairing transactions.
type Submission struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"type:uuid;not null;index" json:"challenge_id"`

	// Exactly one of UserID / TeamID is set — see Owner().
	UserID *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	TeamID *string `gorm:"type:uuid;index" json:"team_id,omitempty"`

	Content          string   `gorm:"not null" json:"content"` // URL to the artifact
	OriginalityScore *float64 `json:"originality_score,omitempty"`

	// Denormalized counters kept in step with the votes table and the
	// pairing endpoints respectively.
	VotesCount    int64 `json:"votes_count" gorm:"default:0"`
	ExposureCount int64 `json:"exposure_count" gorm:"default:0"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime;index"`

	Challenge *Challenge `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Team      *Team      `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

// Owner returns the tagged owner variant, or ErrAmbiguousOwner when the row
// violates the one-owner invariant.
func (s *Submission) Owner() (Owner, error) {
	switch {
	case s.UserID != nil && s.TeamID == nil:
		return Owner{Kind: OwnerUser, ID: *s.UserID}, nil
	case s.TeamID != nil && s.UserID == nil:
		return Owner{Kind: OwnerTeam, ID: *s.TeamID}, nil
	default:
		return Owner{}, ErrAmbiguousOwner
	}
}
