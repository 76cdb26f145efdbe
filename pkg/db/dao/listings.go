package dao

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// ListingDao is a data access object that maps directly to the 'listings' table in PostgreSQL.
type ListingDao struct {
	bun.BaseModel   `bun:"table:listings,alias:l"`
	ContractAddress string          `bun:"contract_address,pk,type:varchar(42)"`
	OwnerAddress    string          `bun:"owner_address,notnull,type:varchar(42)"`
	ContentHash     string          `bun:"content_hash,notnull,type:varchar(64)"`
	ContentData     map[string]any  `bun:"content_data,type:jsonb"`
	Units           int             `bun:"units,notnull"`
	Price           decimal.Decimal `bun:"price,notnull,type:numeric(38,18)"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
