package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"devchallenge-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	// A second pool connection would open a second, empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.Submission{},
		&models.Vote{},
		&models.Comment{},
		&models.Team{},
		&models.TeamMember{},
		&models.Guild{},
		&models.Sponsor{},
		&models.SponsoredChallenge{},
		&models.MatchHistory{},
		&models.RankSnapshot{},
		&models.BadgeType{},
		&models.UserBadge{},
	); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func makeUser(t *testing.T, db *gorm.DB, username string, rating int) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  "x",
		EloRating: rating,
		Level:     1,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func makeChallenge(t *testing.T, db *gorm.DB, format string) *models.Challenge {
	t.Helper()
	now := time.Now().UTC()
	ends := now.Add(time.Hour)
	ch := &models.Challenge{
		ID:          uuid.NewString(),
		Title:       "Test Challenge " + uuid.NewString()[:8],
		Slug:        "test-challenge-" + uuid.NewString()[:8],
		Description: "build something",
		Type:        models.ChallengeTypeCode,
		Format:      format,
		Duration:    60,
		StartsAt:    &now,
		EndsAt:      &ends,
		IsActive:    true,
	}
	if err := db.Create(ch).Error; err != nil {
		t.Fatalf("creating challenge: %v", err)
	}
	return ch
}

func makeSubmission(t *testing.T, db *gorm.DB, challengeID string, owner models.Owner) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		Content:     "https://cdn.example.com/artifact.zip",
	}
	switch owner.Kind {
	case models.OwnerUser:
		sub.UserID = &owner.ID
	case models.OwnerTeam:
		sub.TeamID = &owner.ID
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("creating submission: %v", err)
	}
	return sub
}

func makeTeam(t *testing.T, db *gorm.DB, name, leaderID string, rating int) *models.Team {
	t.Helper()
	team := &models.Team{
		ID:           uuid.NewString(),
		Name:         name,
		LeaderUserID: leaderID,
		EloRating:    rating,
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("creating team %s: %v", name, err)
	}
	return team
}

func makeGuild(t *testing.T, db *gorm.DB, name string) *models.Guild {
	t.Helper()
	guild := &models.Guild{ID: uuid.NewString(), Name: name}
	if err := db.Create(guild).Error; err != nil {
		t.Fatalf("creating guild %s: %v", name, err)
	}
	return guild
}

func userOwner(u *models.User) models.Owner {
	return models.Owner{Kind: models.OwnerUser, ID: u.ID}
}

func teamOwner(tm *models.Team) models.Owner {
	return models.Owner{Kind: models.OwnerTeam, ID: tm.ID}
}
