package services

import (
	"testing"
	"time"

	"devchallenge-api/models"
)

func TestCloseExpiredSettlesOneVsOne(t *testing.T) {
	db := setupTestDB(t)
	rating := NewRatingService(db, nil)
	svc := NewChallengeService(db, rating)
	votes := NewVoteService(db)

	alice := makeUser(t, db, "alice", 1000)
	bob := makeUser(t, db, "bob", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	subA := makeSubmission(t, db, ch.ID, userOwner(alice))
	subB := makeSubmission(t, db, ch.ID, userOwner(bob))

	// Bob has more raw votes, but Alice's SPECIAL vote outweighs them:
	// weighted tally A=3 vs B=2.
	v1 := makeUser(t, db, "v1", 1000)
	v2 := makeUser(t, db, "v2", 1000)
	v3 := makeUser(t, db, "v3", 1000)
	if _, _, err := votes.RecordVote(subA.ID, v1.ID, models.VoteSpecial); err != nil {
		t.Fatal(err)
	}
	if _, _, err := votes.RecordVote(subB.ID, v2.ID, models.VoteStandard); err != nil {
		t.Fatal(err)
	}
	if _, _, err := votes.RecordVote(subB.ID, v3.ID, models.VoteStandard); err != nil {
		t.Fatal(err)
	}

	past := time.Now().UTC().Add(-time.Minute)
	if err := db.Model(&models.Challenge{}).Where("id = ?", ch.ID).
		Update("ends_at", past).Error; err != nil {
		t.Fatal(err)
	}

	closed, err := svc.CloseExpired(time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 1 {
		t.Fatalf("closed %d challenges, want 1", len(closed))
	}
	if closed[0].Match == nil {
		t.Fatal("expected a settled match")
	}
	if closed[0].Match.WinnerID == nil || *closed[0].Match.WinnerID != alice.ID {
		t.Error("weighted tally winner should be alice")
	}

	var got models.Challenge
	db.First(&got, "id = ?", ch.ID)
	if got.IsActive {
		t.Error("challenge still active after close")
	}

	// Second sweep is a no-op.
	closed, err = svc.CloseExpired(time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 0 {
		t.Errorf("second sweep closed %d challenges, want 0", len(closed))
	}
}

func TestCloseExpiredSkipsUnderVotedChallenges(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db, NewRatingService(db, nil))

	alice := makeUser(t, db, "alice", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	makeSubmission(t, db, ch.ID, userOwner(alice))

	past := time.Now().UTC().Add(-time.Minute)
	if err := db.Model(&models.Challenge{}).Where("id = ?", ch.ID).
		Update("ends_at", past).Error; err != nil {
		t.Fatal(err)
	}

	closed, err := svc.CloseExpired(time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 1 {
		t.Fatalf("closed %d challenges, want 1", len(closed))
	}
	if closed[0].Match != nil {
		t.Error("challenge without two voted submissions must not settle a match")
	}

	var got models.Challenge
	db.First(&got, "id = ?", ch.ID)
	if got.IsActive {
		t.Error("under-voted challenge must still deactivate")
	}
}

func TestCloseExpiredLeavesRunningChallengesAlone(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db, NewRatingService(db, nil))
	makeChallenge(t, db, models.FormatOneVsOne)

	closed, err := svc.CloseExpired(time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 0 {
		t.Errorf("closed %d running challenges, want 0", len(closed))
	}
}
