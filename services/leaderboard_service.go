package services

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"devchallenge-api/models"
)

// LeaderboardService computes ranked standings for users, teams and guilds,
// with rank movement derived from periodic snapshots.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank       int         `json:"rank"`
	RankChange int         `json:"rankChange"`
	Rating     int         `json:"rating"`
	Wins       int64       `json:"wins"`
	Losses     int64       `json:"losses"`
	Entity     interface{} `json:"entity"`
}

// Handler handles GET /api/leaderboard/:type for users, teams and guilds.
// Guilds rank by weekly points, the rest by rating. The optional ?search=
// filter matches usernames / names.
func (s *LeaderboardService) Handler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	search := c.Query("search")

	var entries []Entry
	var err error
	switch c.Params("type") {
	case "users":
		entries, err = s.userEntries(limit, search)
	case "teams":
		entries, err = s.teamEntries(limit, search)
	case "guilds":
		entries, err = s.guildEntries(limit, search)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown leaderboard type"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// UserRankHandler handles GET /api/users/:id/rank.
func (s *LeaderboardService) UserRankHandler(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, fmt.Errorf("%w: user %s", ErrNotFound, c.Params("id")))
	}

	var ahead int64
	if err := s.DB.Model(&models.User{}).
		Where("elo_rating > ?", user.EloRating).Count(&ahead).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"userId": user.ID,
		"rank":   ahead + 1,
		"rating": user.EloRating,
	})
}

func (s *LeaderboardService) userEntries(limit int, search string) ([]Entry, error) {
	q := s.DB.Order("elo_rating DESC").Limit(limit)
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}

	wins, losses, err := s.userRecords()
	if err != nil {
		return nil, err
	}
	prev, err := s.latestRanks(models.SnapshotUser)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, Entry{
			Rank:       i + 1,
			RankChange: rankChange(prev, u.ID, i+1),
			Rating:     u.EloRating,
			Wins:       wins[u.ID],
			Losses:     losses[u.ID],
			Entity:     u,
		})
	}
	return entries, nil
}

func (s *LeaderboardService) teamEntries(limit int, search string) ([]Entry, error) {
	q := s.DB.Order("elo_rating DESC").Limit(limit)
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var teams []models.Team
	if err := q.Find(&teams).Error; err != nil {
		return nil, err
	}

	wins, losses, err := s.teamRecords()
	if err != nil {
		return nil, err
	}
	prev, err := s.latestRanks(models.SnapshotTeam)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(teams))
	for i, t := range teams {
		entries = append(entries, Entry{
			Rank:       i + 1,
			RankChange: rankChange(prev, t.ID, i+1),
			Rating:     t.EloRating,
			Wins:       wins[t.ID],
			Losses:     losses[t.ID],
			Entity:     t,
		})
	}
	return entries, nil
}

func (s *LeaderboardService) guildEntries(limit int, search string) ([]Entry, error) {
	q := s.DB.Order("weekly_points DESC").Limit(limit)
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var guilds []models.Guild
	if err := q.Find(&guilds).Error; err != nil {
		return nil, err
	}

	prev, err := s.latestRanks(models.SnapshotGuild)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(guilds))
	for i, g := range guilds {
		entries = append(entries, Entry{
			Rank:       i + 1,
			RankChange: rankChange(prev, g.ID, i+1),
			Rating:     g.WeeklyPoints,
			Entity:     g,
		})
	}
	return entries, nil
}

// rankChange is positive when the entity climbed since the last snapshot.
func rankChange(prev map[string]int, id string, current int) int {
	old, ok := prev[id]
	if !ok {
		return 0
	}
	return old - current
}

func (s *LeaderboardService) latestRanks(entityType string) (map[string]int, error) {
	var snaps []models.RankSnapshot
	if err := s.DB.Where("entity_type = ?", entityType).
		Order("computed_at DESC").Limit(1000).Find(&snaps).Error; err != nil {
		return nil, err
	}
	ranks := make(map[string]int, len(snaps))
	for _, sn := range snaps {
		if _, seen := ranks[sn.EntityID]; !seen {
			ranks[sn.EntityID] = sn.Rank
		}
	}
	return ranks, nil
}

type record struct {
	ID string
	N  int64
}

func (s *LeaderboardService) userRecords() (map[string]int64, map[string]int64, error) {
	return s.records("winner_id", "loser_id")
}

func (s *LeaderboardService) teamRecords() (map[string]int64, map[string]int64, error) {
	return s.records("winner_team_id", "loser_team_id")
}

func (s *LeaderboardService) records(winCol, loseCol string) (map[string]int64, map[string]int64, error) {
	wins, err := s.groupedCounts(winCol)
	if err != nil {
		return nil, nil, err
	}
	losses, err := s.groupedCounts(loseCol)
	if err != nil {
		return nil, nil, err
	}
	return wins, losses, nil
}

func (s *LeaderboardService) groupedCounts(col string) (map[string]int64, error) {
	var rows []record
	err := s.DB.Model(&models.MatchHistory{}).
		Select(col + " AS id, COUNT(*) AS n").
		Where(col + " IS NOT NULL").
		Group(col).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}

// SnapshotRanks captures the current standing of every user, team and guild.
// Runs hourly; the live leaderboard diffs against the newest capture.
func (s *LeaderboardService) SnapshotRanks() error {
	var users []models.User
	if err := s.DB.Order("elo_rating DESC").Find(&users).Error; err != nil {
		return err
	}
	for i, u := range users {
		if err := s.saveSnapshot(models.SnapshotUser, u.ID, i+1, u.EloRating); err != nil {
			return err
		}
	}

	var teams []models.Team
	if err := s.DB.Order("elo_rating DESC").Find(&teams).Error; err != nil {
		return err
	}
	for i, t := range teams {
		if err := s.saveSnapshot(models.SnapshotTeam, t.ID, i+1, t.EloRating); err != nil {
			return err
		}
	}

	var guilds []models.Guild
	if err := s.DB.Order("weekly_points DESC").Find(&guilds).Error; err != nil {
		return err
	}
	for i, g := range guilds {
		if err := s.saveSnapshot(models.SnapshotGuild, g.ID, i+1, g.WeeklyPoints); err != nil {
			return err
		}
	}

	log.Printf("🔁 [LEADERBOARD] snapshot captured: %d users, %d teams, %d guilds",
		len(users), len(teams), len(guilds))
	return nil
}

func (s *LeaderboardService) saveSnapshot(entityType, entityID string, rank, rating int) error {
	return s.DB.Create(&models.RankSnapshot{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Rank:       rank,
		Rating:     rating,
	}).Error
}
