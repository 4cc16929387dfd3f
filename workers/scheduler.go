package workers

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"devchallenge-api/services"
	"devchallenge-api/ws"
)

// Scheduler runs the recurring jobs: quota resets, guild resets, closing
// expired challenges and leaderboard snapshots. All clocks are UTC.
type Scheduler struct {
	Votes       *services.VoteService
	Guilds      *services.GuildService
	Challenges  *services.ChallengeService
	Leaderboard *services.LeaderboardService
	Hub         *ws.Hub

	sched gocron.Scheduler
}

func (w *Scheduler) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	w.sched = sched

	// 00:00 UTC: daily vote quota reset
	if _, err := sched.NewJob(gocron.CronJob("0 0 * * *", false), gocron.NewTask(w.resetQuotas)); err != nil {
		return err
	}
	// Monday 00:00 UTC: weekly guild points reset
	if _, err := sched.NewJob(gocron.CronJob("0 0 * * 1", false), gocron.NewTask(w.resetGuildPoints)); err != nil {
		return err
	}
	// Every minute: close expired challenges and settle their matches
	if _, err := sched.NewJob(gocron.DurationJob(1*time.Minute), gocron.NewTask(w.closeChallenges)); err != nil {
		return err
	}
	// Hourly: capture leaderboard ranks for rank-change tracking
	if _, err := sched.NewJob(gocron.DurationJob(1*time.Hour), gocron.NewTask(w.snapshotRanks)); err != nil {
		return err
	}

	sched.Start()
	log.Println("🔁 Scheduler started (quota reset, guild reset, challenge closer, snapshots)")
	return nil
}

func (w *Scheduler) Stop() {
	if w.sched != nil {
		_ = w.sched.Shutdown()
	}
}

func (w *Scheduler) resetQuotas() {
	n, err := w.Votes.ResetDailyQuotas()
	if err != nil {
		log.Printf("❌ [SCHED] quota reset failed: %v", err)
		return
	}
	log.Printf("✅ [SCHED] daily vote quotas reset for %d users", n)
}

func (w *Scheduler) resetGuildPoints() {
	n, err := w.Guilds.ResetWeeklyPoints()
	if err != nil {
		log.Printf("❌ [SCHED] guild reset failed: %v", err)
		return
	}
	log.Printf("✅ [SCHED] weekly points reset for %d guilds", n)
}

func (w *Scheduler) closeChallenges() {
	closed, err := w.Challenges.CloseExpired(time.Now().UTC())
	if err != nil {
		log.Printf("❌ [SCHED] challenge closer failed: %v", err)
		return
	}
	for _, cc := range closed {
		if cc.Match != nil && w.Hub != nil {
			w.Hub.BroadcastMatchResult(cc.Challenge.ID, cc.Match)
		}
	}
}

func (w *Scheduler) snapshotRanks() {
	if err := w.Leaderboard.SnapshotRanks(); err != nil {
		log.Printf("❌ [SCHED] leaderboard snapshot failed: %v", err)
	}
}
