package ipfs

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// sha2-256 multihash header: function code 0x12, digest length 32.
const (
	mhSHA256    = 0x12
	mhDigestLen = 0x20
)

// HexToBase58 converts a raw 32-byte sha2-256 digest, as stored in a bytes32
// contract field, into the base58 multihash string used to address content
// off-chain.
func HexToBase58(digest [32]byte) string {
	mh := make([]byte, 0, 2+len(digest))
	mh = append(mh, mhSHA256, mhDigestLen)
	mh = append(mh, digest[:]...)
	return base58.Encode(mh)
}

// Base58ToHex converts a base58 multihash string back into the raw 32-byte
// digest stored on-chain.
func Base58ToHex(contentHash string) ([32]byte, error) {
	var digest [32]byte
	raw, err := base58.Decode(contentHash)
	if err != nil {
		return digest, fmt.Errorf("invalid content hash %q: %w", contentHash, err)
	}
	if len(raw) != 2+len(digest) || raw[0] != mhSHA256 || raw[1] != mhDigestLen {
		return digest, fmt.Errorf("content hash %q is not a sha2-256 multihash", contentHash)
	}
	copy(digest[:], raw[2:])
	return digest, nil
}
