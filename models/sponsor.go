package models

import "time"

// Sponsor verification states
const (
	SponsorPending  = "PENDING"
	SponsorVerified = "VERIFIED"
	SponsorRejected = "REJECTED"
)

// Prize payment states
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
)

// Sponsor is a company account that funds challenges. Only VERIFIED sponsors
// may create sponsored challenges or select winners.
type Sponsor struct {
	ID                 string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CompanyName        string  `gorm:"not null" json:"company_name"`
	Website            *string `json:"website,omitempty"`
	ContactEmail       string  `gorm:"not null" json:"contact_email"`
	VerificationStatus string  `gorm:"type:varchar(16);not null;default:PENDING" json:"verification_status"`

	Timestamps
}

// SponsoredChallenge links a sponsor, a challenge and a prize. Winner
// selection is one-shot: WinnerSelectedAt guards against double payouts.
type SponsoredChallenge struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	SponsorID   string `gorm:"type:uuid;not null;index" json:"sponsor_id"`
	ChallengeID string `gorm:"type:uuid;uniqueIndex;not null" json:"challenge_id"`

	PrizeAmount      float64 `gorm:"not null" json:"prize_amount"`
	PrizeDescription *string `json:"prize_description,omitempty"`
	PaymentStatus    string  `gorm:"type:varchar(16);not null;default:PENDING" json:"payment_status"`

	WinnerSubmissionID *string    `gorm:"type:uuid" json:"winner_submission_id,omitempty"`
	WinnerSelectedAt   *time.Time `json:"winner_selected_at,omitempty"`

	Timestamps

	Sponsor   *Sponsor   `json:"sponsor,omitempty" gorm:"foreignKey:SponsorID"`
	Challenge *Challenge `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
}
