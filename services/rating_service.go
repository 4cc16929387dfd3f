package services

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devchallenge-api/metrics"
	"devchallenge-api/models"
)

// ELO K-factors
const (
	KFactorUser = 32
	KFactorTeam = 24
)

// Experience granted per match outcome.
const (
	xpWin  = 25
	xpLoss = 5
)

// RatingService applies match outcomes to user, team and guild state.
type RatingService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewRatingService(db *gorm.DB, badges *BadgeService) *RatingService {
	return &RatingService{DB: db, Badges: badges}
}

// eloDelta returns the rating change for a player with rating `own` against
// `opp`, where score is 1 for a win and 0 for a loss.
func eloDelta(own, opp, k int, score float64) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(opp-own)/400.0))
	return int(math.Round(float64(k) * (score - expected)))
}

// ApplyMatchResult settles one match: both rating updates, the winner's guild
// weekly points and the history row commit in a single transaction, so a
// failure anywhere leaves every rating untouched.
func (s *RatingService) ApplyMatchResult(challengeID string, winner, loser models.Owner) (*models.MatchHistory, error) {
	var history models.MatchHistory
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		history, err = s.ApplyMatchResultTx(tx, challengeID, winner, loser)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.AfterSettle(&history)
	return &history, nil
}

// ApplyMatchResultTx settles a match inside the caller's transaction, so the
// caller's own writes and the settlement commit or roll back together. Call
// AfterSettle once the transaction has committed.
func (s *RatingService) ApplyMatchResultTx(tx *gorm.DB, challengeID string, winner, loser models.Owner) (models.MatchHistory, error) {
	if winner.Kind != loser.Kind {
		return models.MatchHistory{}, fmt.Errorf("%w: match sides must be the same kind", ErrValidation)
	}
	if winner.ID == loser.ID {
		return models.MatchHistory{}, fmt.Errorf("%w: an owner cannot play itself", ErrValidation)
	}

	switch winner.Kind {
	case models.OwnerUser:
		return s.applyUserMatch(tx, challengeID, winner.ID, loser.ID)
	case models.OwnerTeam:
		return s.applyTeamMatch(tx, challengeID, winner.ID, loser.ID)
	default:
		return models.MatchHistory{}, fmt.Errorf("%w: unknown owner kind %q", ErrValidation, winner.Kind)
	}
}

// AfterSettle records post-commit effects of a settled match: metrics, the
// settlement log line and badge evaluation for a winning user.
func (s *RatingService) AfterSettle(history *models.MatchHistory) {
	metrics.MatchesResolved.Inc()
	log.Printf("✅ [RATING] match settled for challenge %s: winner %+d, loser %+d",
		history.ChallengeID, history.WinnerEloChange, history.LoserEloChange)

	if s.Badges != nil && history.WinnerID != nil {
		s.Badges.EvaluateForUser(*history.WinnerID)
	}
}

func (s *RatingService) applyUserMatch(tx *gorm.DB, challengeID, winnerID, loserID string) (models.MatchHistory, error) {
	var winner, loser models.User
	if err := lockRow(tx, &winner, winnerID); err != nil {
		return models.MatchHistory{}, err
	}
	if err := lockRow(tx, &loser, loserID); err != nil {
		return models.MatchHistory{}, err
	}

	winDelta := eloDelta(winner.EloRating, loser.EloRating, KFactorUser, 1)
	loseDelta := eloDelta(loser.EloRating, winner.EloRating, KFactorUser, 0)

	if err := applyUserOutcome(tx, &winner, winDelta, xpWin); err != nil {
		return models.MatchHistory{}, err
	}
	if err := applyUserOutcome(tx, &loser, loseDelta, xpLoss); err != nil {
		return models.MatchHistory{}, err
	}

	if winner.GuildID != nil {
		if err := tx.Model(&models.Guild{}).Where("id = ?", *winner.GuildID).
			Update("weekly_points", gorm.Expr("weekly_points + ?", 10)).Error; err != nil {
			return models.MatchHistory{}, err
		}
	}

	history := models.MatchHistory{
		ID:              uuid.NewString(),
		ChallengeID:     challengeID,
		WinnerID:        &winnerID,
		LoserID:         &loserID,
		WinnerEloChange: winDelta,
		LoserEloChange:  loseDelta,
	}
	return history, tx.Create(&history).Error
}

func (s *RatingService) applyTeamMatch(tx *gorm.DB, challengeID, winnerID, loserID string) (models.MatchHistory, error) {
	var winner, loser models.Team
	if err := lockRow(tx, &winner, winnerID); err != nil {
		return models.MatchHistory{}, err
	}
	if err := lockRow(tx, &loser, loserID); err != nil {
		return models.MatchHistory{}, err
	}

	winDelta := eloDelta(winner.EloRating, loser.EloRating, KFactorTeam, 1)
	loseDelta := eloDelta(loser.EloRating, winner.EloRating, KFactorTeam, 0)

	if err := tx.Model(&winner).Update("elo_rating", winner.EloRating+winDelta).Error; err != nil {
		return models.MatchHistory{}, err
	}
	if err := tx.Model(&loser).Update("elo_rating", loser.EloRating+loseDelta).Error; err != nil {
		return models.MatchHistory{}, err
	}

	history := models.MatchHistory{
		ID:              uuid.NewString(),
		ChallengeID:     challengeID,
		WinnerTeamID:    &winnerID,
		LoserTeamID:     &loserID,
		WinnerEloChange: winDelta,
		LoserEloChange:  loseDelta,
	}
	return history, tx.Create(&history).Error
}

func lockRow(tx *gorm.DB, dest interface{}, id string) error {
	q := tx
	// SQLite has no row locks; its single writer covers that path.
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func applyUserOutcome(tx *gorm.DB, user *models.User, delta, xp int) error {
	experience := user.Experience + xp
	return tx.Model(user).Updates(map[string]interface{}{
		"elo_rating": user.EloRating + delta,
		"experience": experience,
		"level":      experience/100 + 1,
	}).Error
}

// UserMatchesHandler handles GET /api/users/:id/matches.
func (s *RatingService) UserMatchesHandler(c *fiber.Ctx) error {
	userID := c.Params("id")

	var matches []models.MatchHistory
	if err := s.DB.Where("winner_id = ? OR loser_id = ?", userID, userID).
		Order("completed_at DESC").Limit(50).Find(&matches).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches})
}
