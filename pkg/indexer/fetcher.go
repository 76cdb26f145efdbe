package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
	"github.com/OriginProtocol/bridge-server/pkg/ipfs"
)

// weiExponent shifts wei amounts into display units.
const weiExponent = -18

// ChainReader is the contract read surface the pipeline consumes.
type ChainReader interface {
	Call(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string, args ...any) ([]any, error)
}

// Fetcher reads marketplace contract state into domain records. It never
// resolves off-chain content; that happens lazily at upsert time.
type Fetcher struct {
	chain ChainReader
}

// NewFetcher creates a fetcher reading through chain
func NewFetcher(chain ChainReader) *Fetcher {
	return &Fetcher{chain: chain}
}

// FetchListing reads a Listing contract's current state.
func (f *Fetcher) FetchListing(ctx context.Context, address common.Address) (*db.Listing, error) {
	owner, err := f.callAddress(ctx, ethereum.KindListing, address, "owner")
	if err != nil {
		return nil, err
	}
	digest, err := f.callBytes32(ctx, ethereum.KindListing, address, "ipfsHash")
	if err != nil {
		return nil, err
	}
	units, err := f.callBig(ctx, ethereum.KindListing, address, "unitsAvailable")
	if err != nil {
		return nil, err
	}
	wei, err := f.callBig(ctx, ethereum.KindListing, address, "price")
	if err != nil {
		return nil, err
	}

	return &db.Listing{
		ContractAddress: address.Hex(),
		OwnerAddress:    owner.Hex(),
		ContentHash:     ipfs.HexToBase58(digest),
		Units:           int(units.Int64()),
		Price:           decimal.NewFromBigInt(wei, weiExponent),
	}, nil
}

// ResolveRegistryListing maps a registry index from a NewListing event to the
// listing contract address the registry recorded for it.
func (f *Fetcher) ResolveRegistryListing(ctx context.Context, registry common.Address, index *big.Int) (common.Address, error) {
	values, err := f.chain.Call(ctx, ethereum.KindListingsRegistry, registry, "getListing", index)
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 4 {
		return common.Address{}, &ethereum.ChainReadError{Kind: ethereum.KindListingsRegistry, Address: registry, Method: "getListing",
			Err: fmt.Errorf("expected 4 return values, got %d", len(values))}
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, &ethereum.ChainReadError{Kind: ethereum.KindListingsRegistry, Address: registry, Method: "getListing",
			Err: fmt.Errorf("unexpected return type %T", values[0])}
	}
	return addr, nil
}

// FetchPurchase reads a Purchase contract's current state.
func (f *Fetcher) FetchPurchase(ctx context.Context, address common.Address) (*db.Purchase, error) {
	values, err := f.chain.Call(ctx, ethereum.KindPurchase, address, "data")
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, &ethereum.ChainReadError{Kind: ethereum.KindPurchase, Address: address, Method: "data",
			Err: fmt.Errorf("expected 5 return values, got %d", len(values))}
	}

	stage, ok := values[0].(uint8)
	if !ok {
		return nil, badReturn(ethereum.KindPurchase, address, "data", "stage", values[0])
	}
	listing, ok := values[1].(common.Address)
	if !ok {
		return nil, badReturn(ethereum.KindPurchase, address, "data", "listing", values[1])
	}
	buyer, ok := values[2].(common.Address)
	if !ok {
		return nil, badReturn(ethereum.KindPurchase, address, "data", "buyer", values[2])
	}
	created, ok := values[3].(*big.Int)
	if !ok {
		return nil, badReturn(ethereum.KindPurchase, address, "data", "created", values[3])
	}
	buyerTimeout, ok := values[4].(*big.Int)
	if !ok {
		return nil, badReturn(ethereum.KindPurchase, address, "data", "buyerTimeout", values[4])
	}

	return &db.Purchase{
		ContractAddress: address.Hex(),
		ListingAddress:  listing.Hex(),
		BuyerAddress:    buyer.Hex(),
		Stage:           db.PurchaseStage(stage),
		CreatedAt:       time.Unix(created.Int64(), 0).UTC(),
		BuyerTimeout:    time.Unix(buyerTimeout.Int64(), 0).UTC(),
	}, nil
}

func (f *Fetcher) callAddress(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string) (common.Address, error) {
	values, err := f.chain.Call(ctx, kind, address, method)
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 1 {
		return common.Address{}, badArity(kind, address, method, len(values))
	}
	v, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, badReturn(kind, address, method, "", values[0])
	}
	return v, nil
}

func (f *Fetcher) callBytes32(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string) ([32]byte, error) {
	values, err := f.chain.Call(ctx, kind, address, method)
	if err != nil {
		return [32]byte{}, err
	}
	if len(values) != 1 {
		return [32]byte{}, badArity(kind, address, method, len(values))
	}
	v, ok := values[0].([32]byte)
	if !ok {
		return [32]byte{}, badReturn(kind, address, method, "", values[0])
	}
	return v, nil
}

func (f *Fetcher) callBig(ctx context.Context, kind ethereum.ContractKind, address common.Address, method string) (*big.Int, error) {
	values, err := f.chain.Call(ctx, kind, address, method)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, badArity(kind, address, method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, badReturn(kind, address, method, "", values[0])
	}
	return v, nil
}

func badArity(kind ethereum.ContractKind, address common.Address, method string, got int) *ethereum.ChainReadError {
	return &ethereum.ChainReadError{Kind: kind, Address: address, Method: method,
		Err: fmt.Errorf("expected 1 return value, got %d", got)}
}

func badReturn(kind ethereum.ContractKind, address common.Address, method, field string, value any) *ethereum.ChainReadError {
	msg := fmt.Sprintf("unexpected return type %T", value)
	if field != "" {
		msg = fmt.Sprintf("unexpected type %T for %s", value, field)
	}
	return &ethereum.ChainReadError{Kind: kind, Address: address, Method: method,
		Err: fmt.Errorf("%s", msg)}
}
