package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"devchallenge-api/models"
)

func TestRecordVoteStandardCapBoundary(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	voter := makeUser(t, db, "voter", 1000)
	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	sub := makeSubmission(t, db, ch.ID, userOwner(author))

	// Burn through 14 votes, then the 15th must succeed and the 16th fail.
	if err := db.Model(&models.User{}).Where("id = ?", voter.ID).
		Update("daily_votes_used", 14).Error; err != nil {
		t.Fatal(err)
	}

	_, remaining, err := svc.RecordVote(sub.ID, voter.ID, models.VoteStandard)
	if err != nil {
		t.Fatalf("15th vote should succeed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}

	_, _, err = svc.RecordVote(sub.ID, voter.ID, models.VoteStandard)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("16th vote: got %v, want ErrQuotaExceeded", err)
	}

	// The rejected vote must leave no ledger entry behind.
	count, err := svc.CountVotes(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("vote count = %d, want 1", count)
	}
}

func TestRecordVoteConcurrentBurstAtLastSlot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	voter := makeUser(t, db, "voter", 1000)
	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	sub := makeSubmission(t, db, ch.ID, userOwner(author))

	// One slot left; a burst of votes races for it.
	limit := models.DailyVoteCaps[models.VoteStandard]
	if err := db.Model(&models.User{}).Where("id = ?", voter.ID).
		Update("daily_votes_used", limit-1).Error; err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.RecordVote(sub.ID, voter.ID, models.VoteStandard)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	landed, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			landed++
		case errors.Is(err, ErrQuotaExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if landed != 1 || rejected != attempts-1 {
		t.Fatalf("landed = %d, rejected = %d, want 1/%d", landed, rejected, attempts-1)
	}

	count, err := svc.CountVotes(sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("ledger count = %d, want 1", count)
	}
	var got models.User
	if err := db.First(&got, "id = ?", voter.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.DailyVotesUsed != limit {
		t.Errorf("daily_votes_used = %d, want %d", got.DailyVotesUsed, limit)
	}
}

func TestRecordVoteTierCaps(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	voter := makeUser(t, db, "voter", 1000)
	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	sub := makeSubmission(t, db, ch.ID, userOwner(author))

	for tier, limit := range models.DailyVoteCaps {
		for i := 0; i < limit; i++ {
			if _, _, err := svc.RecordVote(sub.ID, voter.ID, tier); err != nil {
				t.Fatalf("%s vote %d/%d failed: %v", tier, i+1, limit, err)
			}
		}
		if _, _, err := svc.RecordVote(sub.ID, voter.ID, tier); !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("%s over cap: got %v, want ErrQuotaExceeded", tier, err)
		}
	}
}

func TestRecordVoteIndependentTiersOnSameSubmission(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	voter := makeUser(t, db, "voter", 1000)
	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	a := makeSubmission(t, db, ch.ID, userOwner(author))
	b := makeSubmission(t, db, ch.ID, userOwner(author))

	if _, _, err := svc.RecordVote(a.ID, voter.ID, models.VoteStandard); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.RecordVote(b.ID, voter.ID, models.VoteDouble); err != nil {
		t.Fatal(err)
	}

	remaining, err := svc.RemainingQuota(voter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining[models.VoteStandard] != 14 {
		t.Errorf("standard remaining = %d, want 14", remaining[models.VoteStandard])
	}
	if remaining[models.VoteDouble] != 2 {
		t.Errorf("double remaining = %d, want 2", remaining[models.VoteDouble])
	}
	if remaining[models.VoteSpecial] != 1 {
		t.Errorf("special remaining = %d, want 1", remaining[models.VoteSpecial])
	}

	for _, sub := range []*models.Submission{a, b} {
		n, err := svc.CountVotes(sub.ID)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("submission %s count = %d, want 1", sub.ID, n)
		}
	}
}

func TestRecordVoteDenormalizedCounterStaysExact(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	sub := makeSubmission(t, db, ch.ID, userOwner(author))

	for i := 0; i < 5; i++ {
		voter := makeUser(t, db, fmt.Sprintf("voter-%d", i), 1000)
		if _, _, err := svc.RecordVote(sub.ID, voter.ID, models.VoteStandard); err != nil {
			t.Fatal(err)
		}
	}

	var got models.Submission
	if err := db.First(&got, "id = ?", sub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.VotesCount != 5 {
		t.Errorf("votes_count = %d, want 5", got.VotesCount)
	}
	n, _ := svc.CountVotes(sub.ID)
	if n != 5 {
		t.Errorf("ledger count = %d, want 5", n)
	}
}

func TestRecordVoteUnknownSubmission(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)
	voter := makeUser(t, db, "voter", 1000)

	_, _, err := svc.RecordVote("missing", voter.ID, models.VoteStandard)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	// Nothing consumed on failure.
	remaining, err := svc.RemainingQuota(voter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining[models.VoteStandard] != 15 {
		t.Errorf("standard remaining = %d, want 15", remaining[models.VoteStandard])
	}
}

func TestRecordVoteUnknownTier(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)
	voter := makeUser(t, db, "voter", 1000)
	author := makeUser(t, db, "author", 1000)
	ch := makeChallenge(t, db, models.FormatOneVsOne)
	sub := makeSubmission(t, db, ch.ID, userOwner(author))

	if _, _, err := svc.RecordVote(sub.ID, voter.ID, "MEGA"); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestResetDailyQuotas(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db)

	voter := makeUser(t, db, "voter", 1000)
	if err := db.Model(&models.User{}).Where("id = ?", voter.ID).Updates(map[string]interface{}{
		"daily_votes_used":         15,
		"daily_double_votes_used":  3,
		"daily_special_votes_used": 1,
	}).Error; err != nil {
		t.Fatal(err)
	}
	makeUser(t, db, "fresh", 1000)

	n, err := svc.ResetDailyQuotas()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("reset rows = %d, want 1", n)
	}

	remaining, err := svc.RemainingQuota(voter.ID)
	if err != nil {
		t.Fatal(err)
	}
	for tier, limit := range models.DailyVoteCaps {
		if remaining[tier] != limit {
			t.Errorf("%s remaining = %d, want %d", tier, remaining[tier], limit)
		}
	}
}
