package ipfs

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToBase58(t *testing.T) {
	// sha2-256 of "hello world"; the resulting multihash is the well-known CID.
	digest := sha256.Sum256([]byte("hello world"))

	got := HexToBase58(digest)
	assert.Equal(t, "QmaozNR7DZHQK1ZcU9p7QdrshMvXqWK6gpu5rmrkPdT3L4", got)
}

func TestBase58ToHex_RoundTrip(t *testing.T) {
	digest := sha256.Sum256([]byte("hello world"))

	decoded, err := Base58ToHex(HexToBase58(digest))
	require.NoError(t, err)
	assert.Equal(t, digest, decoded)
}

func TestBase58ToHex_Invalid(t *testing.T) {
	_, err := Base58ToHex("not-base58-0OIl")
	assert.Error(t, err)

	// Valid base58 but not a sha2-256 multihash.
	_, err = Base58ToHex("abc")
	assert.Error(t, err)
}
