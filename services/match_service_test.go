package services

import (
	"errors"
	"testing"

	"devchallenge-api/models"
)

func TestPickPairRequiresTwoSubmissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)

	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)

	if _, err := svc.PickPair(ch.ID, ""); !errors.Is(err, ErrInsufficientSubmissions) {
		t.Fatalf("empty pool: got %v, want ErrInsufficientSubmissions", err)
	}

	makeSubmission(t, db, ch.ID, userOwner(author))
	if _, err := svc.PickPair(ch.ID, ""); !errors.Is(err, ErrInsufficientSubmissions) {
		t.Fatalf("pool of one: got %v, want ErrInsufficientSubmissions", err)
	}
}

func TestPickPairUnknownChallenge(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)

	if _, err := svc.PickPair("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPickPairIncrementsExposure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)

	a := makeUser(t, db, "a", 1000)
	b := makeUser(t, db, "b", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	makeSubmission(t, db, ch.ID, userOwner(a))
	makeSubmission(t, db, ch.ID, userOwner(b))

	pair, err := svc.PickPair(ch.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pair) != 2 {
		t.Fatalf("pair size = %d, want 2", len(pair))
	}
	if pair[0].ID == pair[1].ID {
		t.Fatal("pair contains the same submission twice")
	}

	var subs []models.Submission
	if err := db.Where("challenge_id = ?", ch.ID).Find(&subs).Error; err != nil {
		t.Fatal(err)
	}
	for _, s := range subs {
		if s.ExposureCount != 1 {
			t.Errorf("submission %s exposure = %d, want 1", s.ID, s.ExposureCount)
		}
	}
}

func TestPickPairPrefersLeastExposed(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)

	ch := makeChallenge(t, db, models.FormatOneVsOne)
	var fresh []string
	for _, name := range []string{"a", "b", "c"} {
		u := makeUser(t, db, name, 1000)
		sub := makeSubmission(t, db, ch.ID, userOwner(u))
		if name == "a" {
			if err := db.Model(&models.Submission{}).Where("id = ?", sub.ID).
				Update("exposure_count", 50).Error; err != nil {
				t.Fatal(err)
			}
		} else {
			fresh = append(fresh, sub.ID)
		}
	}

	pair, err := svc.PickPair(ch.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{pair[0].ID: true, pair[1].ID: true}
	for _, id := range fresh {
		if !got[id] {
			t.Errorf("least-exposed submission %s missing from pair", id)
		}
	}
}

func TestPickPairExcludesAlreadyVoted(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)
	votes := NewVoteService(db)

	viewer := makeUser(t, db, "viewer", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	var voted *models.Submission
	for i, name := range []string{"a", "b", "c"} {
		u := makeUser(t, db, name, 1000)
		sub := makeSubmission(t, db, ch.ID, userOwner(u))
		if i == 0 {
			voted = sub
		}
	}
	if _, _, err := votes.RecordVote(voted.ID, viewer.ID, models.VoteStandard); err != nil {
		t.Fatal(err)
	}

	pair, err := svc.PickPair(ch.ID, viewer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if pair[0].ID == voted.ID || pair[1].ID == voted.ID {
		t.Error("pair includes a submission the viewer already voted on")
	}
}

func TestPickPairFallsBackWhenExclusionStarvesPool(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchService(db)
	votes := NewVoteService(db)

	viewer := makeUser(t, db, "viewer", 1000)
	a := makeUser(t, db, "a", 1000)
	b := makeUser(t, db, "b", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	s1 := makeSubmission(t, db, ch.ID, userOwner(a))
	makeSubmission(t, db, ch.ID, userOwner(b))

	if _, _, err := votes.RecordVote(s1.ID, viewer.ID, models.VoteStandard); err != nil {
		t.Fatal(err)
	}

	// Exclusion leaves one candidate; the resolver must fall back to the
	// full pool rather than starve the viewer.
	pair, err := svc.PickPair(ch.ID, viewer.ID)
	if err != nil {
		t.Fatalf("expected fallback pair, got %v", err)
	}
	if len(pair) != 2 {
		t.Fatalf("pair size = %d, want 2", len(pair))
	}
}
