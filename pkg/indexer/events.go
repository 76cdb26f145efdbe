package indexer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
)

// EventType classifies a marketplace contract event by its topic hash.
type EventType string

const (
	EventUnknown          EventType = "unknown"
	EventNewListing       EventType = "new_listing"
	EventListingPurchased EventType = "listing_purchased"
	EventListingChange    EventType = "listing_change"
	EventPurchaseChange   EventType = "purchase_change"
)

// Canonical event signatures of the marketplace contracts. The Purchase
// contract predates Solidity 0.5.0 and hashes its topic over the enum name,
// not the underlying uint8.
const (
	sigNewListing       = "NewListing(uint256)"
	sigListingPurchased = "ListingPurchased(address)"
	sigListingChange    = "ListingChange()"
	sigPurchaseChange   = "PurchaseChange(Stages)"
)

var topicToEvent = map[common.Hash]EventType{
	crypto.Keccak256Hash([]byte(sigNewListing)):       EventNewListing,
	crypto.Keccak256Hash([]byte(sigListingPurchased)): EventListingPurchased,
	crypto.Keccak256Hash([]byte(sigListingChange)):    EventListingChange,
	crypto.Keccak256Hash([]byte(sigPurchaseChange)):   EventPurchaseChange,
}

// WatchedTopics returns the topic hashes the listener filters on.
func WatchedTopics() []common.Hash {
	topics := make([]common.Hash, 0, len(topicToEvent))
	for topic := range topicToEvent {
		topics = append(topics, topic)
	}
	return topics
}

// Classify maps a log topic hash to its event type. Unrecognized hashes
// return EventUnknown; the handler skips those without failing the feed.
func Classify(topic common.Hash) EventType {
	if t, ok := topicToEvent[topic]; ok {
		return t
	}
	return EventUnknown
}

var (
	uint256Args = abi.Arguments{{Type: mustNewType("uint256")}}
	addressArgs = abi.Arguments{{Type: mustNewType("address")}}
)

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// decodeRegistryIndex extracts the registry listing index from a NewListing
// event payload.
func decodeRegistryIndex(data []byte) (*big.Int, error) {
	values, err := uint256Args.Unpack(data)
	if err != nil {
		return nil, &ethereum.ChainReadError{Kind: ethereum.KindListingsRegistry, Method: "NewListing",
			Err: fmt.Errorf("malformed event payload: %w", err)}
	}
	index, ok := values[0].(*big.Int)
	if !ok {
		return nil, &ethereum.ChainReadError{Kind: ethereum.KindListingsRegistry, Method: "NewListing",
			Err: fmt.Errorf("unexpected payload type %T", values[0])}
	}
	return index, nil
}

// decodePurchaseAddress extracts the purchase contract address from a
// ListingPurchased event payload.
func decodePurchaseAddress(data []byte) (common.Address, error) {
	values, err := addressArgs.Unpack(data)
	if err != nil {
		return common.Address{}, &ethereum.ChainReadError{Kind: ethereum.KindListing, Method: "ListingPurchased",
			Err: fmt.Errorf("malformed event payload: %w", err)}
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, &ethereum.ChainReadError{Kind: ethereum.KindListing, Method: "ListingPurchased",
			Err: fmt.Errorf("unexpected payload type %T", values[0])}
	}
	return addr, nil
}
