package models

import "time"

// Snapshot entity kinds
const (
	SnapshotUser  = "user"
	SnapshotTeam  = "team"
	SnapshotGuild = "guild"
)

// RankSnapshot is an hourly leaderboard position capture. The live
// leaderboard diffs the current rank against the latest snapshot to report
// rank movement.
type RankSnapshot struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	EntityType string    `gorm:"type:varchar(8);not null;index:idx_snapshot_entity" json:"entity_type"`
	EntityID   string    `gorm:"type:uuid;not null;index:idx_snapshot_entity" json:"entity_id"`
	Rank       int       `gorm:"not null" json:"rank"`
	Rating     int       `gorm:"not null" json:"rating"`
	ComputedAt time.Time `json:"computed_at" gorm:"autoCreateTime;index"`
}
