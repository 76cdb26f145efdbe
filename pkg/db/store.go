package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/OriginProtocol/bridge-server/pkg/db/dao"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// PersistenceError wraps a failed store write. Callers treat it as retryable:
// the event is redelivered and the upsert re-applied, which is safe because
// all writes here are idempotent.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store provides marketplace database operations backed by PostgreSQL.
type Store struct {
	db *bun.DB
}

// NewStore creates a new database store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// UpsertListing inserts or merges a listing row keyed by contract address.
//
// Content resolution is lazy: resolve runs on insert, and on update only when
// the stored content hash differs from the incoming one. When the hash is
// unchanged the stored content document is reused and copied back onto l, so
// downstream consumers always see a fully populated record.
//
// The row is locked for the duration of the transaction so concurrent feeds
// cannot race on the same contract address.
func (s *Store) UpsertListing(ctx context.Context, l *Listing, resolve ContentResolveFunc) error {
	var resolveErr error

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(dao.ListingDao)
		err := tx.NewSelect().
			Model(existing).
			Where("contract_address = ?", l.ContractAddress).
			For("UPDATE").
			Scan(ctx)

		if errors.Is(err, sql.ErrNoRows) {
			if resolve != nil {
				data, rerr := resolve(ctx, l.ContentHash)
				if rerr != nil {
					resolveErr = rerr
					return rerr
				}
				l.ContentData = data
			}
			_, err = tx.NewInsert().
				Model(listingToDao(l)).
				Exec(ctx)
			return err
		}
		if err != nil {
			return err
		}

		if existing.ContentHash != l.ContentHash {
			if resolve != nil {
				data, rerr := resolve(ctx, l.ContentHash)
				if rerr != nil {
					resolveErr = rerr
					return rerr
				}
				l.ContentData = data
			}
			_, err = tx.NewUpdate().
				Model((*dao.ListingDao)(nil)).
				Set("content_hash = ?", l.ContentHash).
				Set("content_data = ?::jsonb", marshalContent(l.ContentData)).
				Set("units = ?", l.Units).
				Set("price = ?", l.Price).
				Set("updated_at = NOW()").
				Where("contract_address = ?", l.ContractAddress).
				Exec(ctx)
			return err
		}

		// Same content hash: keep the stored document and skip resolution.
		l.ContentData = existing.ContentData
		_, err = tx.NewUpdate().
			Model((*dao.ListingDao)(nil)).
			Set("units = ?", l.Units).
			Set("price = ?", l.Price).
			Set("updated_at = NOW()").
			Where("contract_address = ?", l.ContractAddress).
			Exec(ctx)
		return err
	})
	if err != nil {
		if resolveErr != nil {
			return resolveErr
		}
		return &PersistenceError{Op: "upsert listing " + l.ContractAddress, Err: err}
	}
	return nil
}

// UpsertPurchase inserts or merges a purchase row keyed by contract address.
// Existing rows only have their stage refreshed; buyer and listing addresses
// are immutable once written.
func (s *Store) UpsertPurchase(ctx context.Context, p *Purchase) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(dao.PurchaseDao)
		err := tx.NewSelect().
			Model(existing).
			Where("contract_address = ?", p.ContractAddress).
			For("UPDATE").
			Scan(ctx)

		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.NewInsert().
				Model(purchaseToDao(p)).
				Exec(ctx)
			return err
		}
		if err != nil {
			return err
		}

		if existing.Stage == int16(p.Stage) {
			return nil
		}
		_, err = tx.NewUpdate().
			Model((*dao.PurchaseDao)(nil)).
			Set("stage = ?", int16(p.Stage)).
			Set("updated_at = NOW()").
			Where("contract_address = ?", p.ContractAddress).
			Exec(ctx)
		return err
	})
	if err != nil {
		return &PersistenceError{Op: "upsert purchase " + p.ContractAddress, Err: err}
	}
	return nil
}

// GetListing retrieves a listing by contract address
func (s *Store) GetListing(ctx context.Context, contractAddress string) (*Listing, error) {
	row := new(dao.ListingDao)
	err := s.db.NewSelect().
		Model(row).
		Where("contract_address = ?", contractAddress).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return daoToListing(row), nil
}

// ListListings retrieves the most recently updated listings
func (s *Store) ListListings(ctx context.Context, limit int) ([]*Listing, error) {
	var rows []dao.ListingDao
	err := s.db.NewSelect().
		Model(&rows).
		Order("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	listings := make([]*Listing, len(rows))
	for i := range rows {
		listings[i] = daoToListing(&rows[i])
	}
	return listings, nil
}

// GetPurchase retrieves a purchase by contract address
func (s *Store) GetPurchase(ctx context.Context, contractAddress string) (*Purchase, error) {
	row := new(dao.PurchaseDao)
	err := s.db.NewSelect().
		Model(row).
		Where("contract_address = ?", contractAddress).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return daoToPurchase(row), nil
}

// ListPurchasesByListing retrieves all purchases referencing a listing address
func (s *Store) ListPurchasesByListing(ctx context.Context, listingAddress string) ([]*Purchase, error) {
	var rows []dao.PurchaseDao
	err := s.db.NewSelect().
		Model(&rows).
		Where("listing_address = ?", listingAddress).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	purchases := make([]*Purchase, len(rows))
	for i := range rows {
		purchases[i] = daoToPurchase(&rows[i])
	}
	return purchases, nil
}

// LastRead retrieves the last processed block for a tracker. The bool result
// reports whether the tracker row exists yet.
func (s *Store) LastRead(ctx context.Context, trackerID string) (int64, bool, error) {
	row := new(dao.EventTrackerDao)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", trackerID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get tracker state: %w", err)
	}
	return row.LastRead, true, nil
}

// SetLastRead advances the tracker high-watermark. Runs in its own
// transaction, after all downstream writes for the event have committed.
func (s *Store) SetLastRead(ctx context.Context, trackerID string, blockNumber int64) error {
	row := &dao.EventTrackerDao{ID: trackerID, LastRead: blockNumber}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("last_read = EXCLUDED.last_read").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return &PersistenceError{Op: "advance tracker " + trackerID, Err: err}
	}
	return nil
}

// marshalContent renders a content document for a jsonb column parameter.
func marshalContent(m map[string]any) string {
	if m == nil {
		return "null"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "null"
	}
	return string(b)
}

func listingToDao(l *Listing) *dao.ListingDao {
	return &dao.ListingDao{
		ContractAddress: l.ContractAddress,
		OwnerAddress:    l.OwnerAddress,
		ContentHash:     l.ContentHash,
		ContentData:     l.ContentData,
		Units:           l.Units,
		Price:           l.Price,
	}
}

func daoToListing(row *dao.ListingDao) *Listing {
	return &Listing{
		ContractAddress: row.ContractAddress,
		OwnerAddress:    row.OwnerAddress,
		ContentHash:     row.ContentHash,
		ContentData:     row.ContentData,
		Units:           row.Units,
		Price:           row.Price,
	}
}

func purchaseToDao(p *Purchase) *dao.PurchaseDao {
	return &dao.PurchaseDao{
		ContractAddress: p.ContractAddress,
		ListingAddress:  p.ListingAddress,
		BuyerAddress:    p.BuyerAddress,
		Stage:           int16(p.Stage),
		CreatedAt:       p.CreatedAt,
		BuyerTimeout:    p.BuyerTimeout,
	}
}

func daoToPurchase(row *dao.PurchaseDao) *Purchase {
	return &Purchase{
		ContractAddress: row.ContractAddress,
		ListingAddress:  row.ListingAddress,
		BuyerAddress:    row.BuyerAddress,
		Stage:           PurchaseStage(row.Stage),
		CreatedAt:       row.CreatedAt,
		BuyerTimeout:    row.BuyerTimeout,
	}
}
