package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// EventTrackerDao is a data access object that maps directly to the 'event_tracker' table
// in PostgreSQL. One row per event feed; the indexer only ever reads and upserts its own row.
type EventTrackerDao struct {
	bun.BaseModel `bun:"table:event_tracker,alias:t"`
	ID            string    `bun:"id,pk,type:varchar(100)"`
	LastRead      int64     `bun:"last_read,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
