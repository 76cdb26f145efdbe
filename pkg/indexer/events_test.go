package indexer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
)

// Topics are asserted against literal hashes so a misdeclared signature
// cannot slip through by hashing the same wrong string on both sides.
func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  EventType
	}{
		{"new listing", "0xd8562534ed9a3ce564a595a66dbcc871a37cff70205ea8bc8d0276dcaa4d1009", EventNewListing},
		{"listing purchased", "0x2df0d5ee1e33bfff4ba740237ef59eef9093cf4c8ebb55ad1a6e63f6801089be", EventListingPurchased},
		{"listing change", "0xfa378a7d48087b5b4be3b8236f6f8829009c67d0dc3a6a431e43385d52ea2d1d", EventListingChange},
		{"purchase change", "0x2bfd64a9ebc43197e546ccd37586433c406920e3b4bfab34b49c6a4b7f7eae07", EventPurchaseChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(common.HexToHash(tt.topic)))
		})
	}
}

func TestClassify_UnknownTopic(t *testing.T) {
	topic := crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	assert.Equal(t, EventUnknown, Classify(topic))
}

func TestWatchedTopics(t *testing.T) {
	topics := WatchedTopics()
	require.Len(t, topics, 4)
	for _, topic := range topics {
		assert.NotEqual(t, EventUnknown, Classify(topic))
	}
}

func TestDecodeRegistryIndex(t *testing.T) {
	data := common.LeftPadBytes(big.NewInt(42).Bytes(), 32)

	index, err := decodeRegistryIndex(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), index.Int64())
}

func TestDecodeRegistryIndex_Malformed(t *testing.T) {
	_, err := decodeRegistryIndex([]byte{0x01, 0x02})

	require.Error(t, err)
	var chainErr *ethereum.ChainReadError
	require.ErrorAs(t, err, &chainErr)
}

func TestDecodePurchaseAddress(t *testing.T) {
	want := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data := common.LeftPadBytes(want.Bytes(), 32)

	got, err := decodePurchaseAddress(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodePurchaseAddress_Malformed(t *testing.T) {
	_, err := decodePurchaseAddress(nil)

	require.Error(t, err)
	var chainErr *ethereum.ChainReadError
	require.ErrorAs(t, err, &chainErr)
}
