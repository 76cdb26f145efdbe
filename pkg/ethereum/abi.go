package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ContractKind identifies which marketplace contract ABI a call targets.
type ContractKind string

const (
	KindListingsRegistry ContractKind = "ListingsRegistry"
	KindListing          ContractKind = "Listing"
	KindPurchase         ContractKind = "Purchase"
)

const listingsRegistryABI = `[
	{"type":"function","name":"getListing","stateMutability":"view",
	 "inputs":[{"name":"_index","type":"uint256"}],
	 "outputs":[
		{"name":"listing","type":"address"},
		{"name":"owner","type":"address"},
		{"name":"price","type":"uint256"},
		{"name":"unitsAvailable","type":"uint256"}]},
	{"type":"function","name":"listingsLength","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const listingABI = `[
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"ipfsHash","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"unitsAvailable","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"price","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const purchaseABI = `[
	{"type":"function","name":"data","stateMutability":"view",
	 "inputs":[],
	 "outputs":[
		{"name":"stage","type":"uint8"},
		{"name":"listingContract","type":"address"},
		{"name":"buyer","type":"address"},
		{"name":"created","type":"uint256"},
		{"name":"buyerTimeout","type":"uint256"}]}
]`

var contractABIs = map[ContractKind]abi.ABI{
	KindListingsRegistry: mustParseABI(listingsRegistryABI),
	KindListing:          mustParseABI(listingABI),
	KindPurchase:         mustParseABI(purchaseABI),
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
