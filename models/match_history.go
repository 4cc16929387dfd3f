package models

import "time"

// MatchHistory records one resolved pairing: who won, who lost and the
// rating deltas already applied to both sides. Written only inside the
// RatingService transaction so the row and the rating updates land together.
type MatchHistory struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"type:uuid;not null;index" json:"challenge_id"`

	WinnerID     *string `gorm:"type:uuid;index" json:"winner_id,omitempty"`
	WinnerTeamID *string `gorm:"type:uuid;index" json:"winner_team_id,omitempty"`
	LoserID      *string `gorm:"type:uuid;index" json:"loser_id,omitempty"`
	LoserTeamID  *string `gorm:"type:uuid;index" json:"loser_team_id,omitempty"`

	WinnerEloChange int `gorm:"not null" json:"winner_elo_change"`
	LoserEloChange  int `gorm:"not null" json:"loser_elo_change"`

	CompletedAt time.Time `json:"completed_at" gorm:"autoCreateTime;index"`
}

// Winner returns the winning side as a tagged owner.
func (m *MatchHistory) Winner() (Owner, error) {
	return ownerOf(m.WinnerID, m.WinnerTeamID)
}

// Loser returns the losing side as a tagged owner.
func (m *MatchHistory) Loser() (Owner, error) {
	return ownerOf(m.LoserID, m.LoserTeamID)
}

func ownerOf(userID, teamID *string) (Owner, error) {
	switch {
	case userID != nil && teamID == nil:
		return Owner{Kind: OwnerUser, ID: *userID}, nil
	case teamID != nil && userID == nil:
		return Owner{Kind: OwnerTeam, ID: *teamID}, nil
	default:
		return Owner{}, ErrAmbiguousOwner
	}
}
