package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStage mirrors the Stages enum of the on-chain Purchase contract.
// The indexer stores whatever stage it fetches; stage transitions are
// enforced by the contract, not here.
type PurchaseStage int16

const (
	StageAwaitingPayment PurchaseStage = iota
	StageShippingPending
	StageBuyerPending
	StageSellerPending
	StageInDispute
	StageComplete
)

// Listing is a marketplace listing row, keyed by the listing contract address.
type Listing struct {
	ContractAddress string          `json:"contract_address"`
	OwnerAddress    string          `json:"owner_address"`
	ContentHash     string          `json:"content_hash"`
	ContentData     map[string]any  `json:"content_data,omitempty"`
	Units           int             `json:"units"`
	Price           decimal.Decimal `json:"price"`
}

// Purchase is a marketplace purchase row, keyed by the purchase contract address.
type Purchase struct {
	ContractAddress string        `json:"contract_address"`
	ListingAddress  string        `json:"listing_address"`
	BuyerAddress    string        `json:"buyer_address"`
	Stage           PurchaseStage `json:"stage"`
	CreatedAt       time.Time     `json:"created_at"`
	BuyerTimeout    time.Time     `json:"buyer_timeout"`
}

// ContentResolveFunc fetches the off-chain content document for a content
// hash. UpsertListing calls it on insert, and on update only when the stored
// hash differs from the incoming one.
type ContentResolveFunc func(ctx context.Context, contentHash string) (map[string]any, error)
