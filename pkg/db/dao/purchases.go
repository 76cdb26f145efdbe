package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// PurchaseDao is a data access object that maps directly to the 'purchases' table in PostgreSQL.
type PurchaseDao struct {
	bun.BaseModel   `bun:"table:purchases,alias:p"`
	ContractAddress string    `bun:"contract_address,pk,type:varchar(42)"`
	ListingAddress  string    `bun:"listing_address,notnull,type:varchar(42)"`
	BuyerAddress    string    `bun:"buyer_address,notnull,type:varchar(42)"`
	Stage           int16     `bun:"stage,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	BuyerTimeout    time.Time `bun:"buyer_timeout,notnull"`
	IndexedAt       time.Time `bun:"indexed_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
