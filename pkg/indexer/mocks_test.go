package indexer

import (
	"context"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
	"github.com/OriginProtocol/bridge-server/pkg/notifier"
)

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	CallFunc func(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string, args ...any) ([]any, error)
}

func (m *MockChainReader) Call(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string, args ...any) ([]any, error) {
	if m.CallFunc != nil {
		return m.CallFunc(ctx, kind, address, method, args...)
	}
	return nil, nil
}

// MockStore is a mock implementation of MarketplaceStore
type MockStore struct {
	UpsertListingFunc  func(ctx context.Context, l *db.Listing, resolve db.ContentResolveFunc) error
	UpsertPurchaseFunc func(ctx context.Context, p *db.Purchase) error
	SetLastReadFunc    func(ctx context.Context, trackerID string, blockNumber int64) error
}

func (m *MockStore) UpsertListing(ctx context.Context, l *db.Listing, resolve db.ContentResolveFunc) error {
	if m.UpsertListingFunc != nil {
		return m.UpsertListingFunc(ctx, l, resolve)
	}
	return nil
}

func (m *MockStore) UpsertPurchase(ctx context.Context, p *db.Purchase) error {
	if m.UpsertPurchaseFunc != nil {
		return m.UpsertPurchaseFunc(ctx, p)
	}
	return nil
}

func (m *MockStore) SetLastRead(ctx context.Context, trackerID string, blockNumber int64) error {
	if m.SetLastReadFunc != nil {
		return m.SetLastReadFunc(ctx, trackerID, blockNumber)
	}
	return nil
}

// MockResolver is a mock implementation of ContentResolver
type MockResolver struct {
	FetchFunc func(ctx context.Context, contentHash string, exclude []string) (map[string]any, error)
}

func (m *MockResolver) Fetch(ctx context.Context, contentHash string, exclude []string) (map[string]any, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, contentHash, exclude)
	}
	return map[string]any{}, nil
}

// MockSearchStore is a mock implementation of search.Store
type MockSearchStore struct {
	UpsertListingDocFunc  func(ctx context.Context, listing *db.Listing) error
	UpsertPurchaseDocFunc func(ctx context.Context, purchase *db.Purchase) error
}

func (m *MockSearchStore) UpsertListingDoc(ctx context.Context, listing *db.Listing) error {
	if m.UpsertListingDocFunc != nil {
		return m.UpsertListingDocFunc(ctx, listing)
	}
	return nil
}

func (m *MockSearchStore) UpsertPurchaseDoc(ctx context.Context, purchase *db.Purchase) error {
	if m.UpsertPurchaseDocFunc != nil {
		return m.UpsertPurchaseDocFunc(ctx, purchase)
	}
	return nil
}

// MockNotifier is a mock implementation of notifier.Notifier
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, kind notifier.Kind, record any) error
}

func (m *MockNotifier) Notify(ctx context.Context, kind notifier.Kind, record any) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, kind, record)
	}
	return nil
}

// MockLogFeed is a mock implementation of LogFeed
type MockLogFeed struct {
	BlockNumberFunc func(ctx context.Context) (uint64, error)
	FilterLogsFunc  func(ctx context.Context, q goethereum.FilterQuery) ([]types.Log, error)
}

func (m *MockLogFeed) BlockNumber(ctx context.Context) (uint64, error) {
	if m.BlockNumberFunc != nil {
		return m.BlockNumberFunc(ctx)
	}
	return 0, nil
}

func (m *MockLogFeed) FilterLogs(ctx context.Context, q goethereum.FilterQuery) ([]types.Log, error) {
	if m.FilterLogsFunc != nil {
		return m.FilterLogsFunc(ctx, q)
	}
	return nil, nil
}

// MockCursorStore is a mock implementation of CursorStore
type MockCursorStore struct {
	LastReadFunc func(ctx context.Context, trackerID string) (int64, bool, error)
}

func (m *MockCursorStore) LastRead(ctx context.Context, trackerID string) (int64, bool, error) {
	if m.LastReadFunc != nil {
		return m.LastReadFunc(ctx, trackerID)
	}
	return 0, false, nil
}
