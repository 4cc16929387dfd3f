package models

import "time"

// Vote tiers
const (
	VoteStandard = "STANDARD"
	VoteDouble   = "DOUBLE"
	VoteSpecial  = "SPECIAL"
)

// DailyVoteCaps holds the per-tier daily ceilings per user.
var DailyVoteCaps = map[string]int{
	VoteStandard: 15,
	VoteDouble:   3,
	VoteSpecial:  1,
}

// VoteWeights gives each tier its scoring weight when tallying a challenge.
var VoteWeights = map[string]int64{
	VoteStandard: 1,
	VoteDouble:   2,
	VoteSpecial:  3,
}

// Vote is one ledger entry: a voter backing a submission with a tier.
// Append-only; the daily caps are enforced at write time by VoteService.
type Vote struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string    `gorm:"type:uuid;not null;index" json:"submission_id"`
	VoterID      string    `gorm:"type:uuid;not null;index" json:"voter_id"`
	VoteType     string    `gorm:"type:varchar(16);not null" json:"vote_type"`
	VotedAt      time.Time `json:"voted_at" gorm:"autoCreateTime"`
}
