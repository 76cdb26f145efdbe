package indexer

import (
	"errors"

	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
	"github.com/OriginProtocol/bridge-server/pkg/ipfs"
)

// IsRetryable reports whether err is a transient pipeline failure worth
// redelivering the event for. Chain reads, content resolution and relational
// writes are retryable; everything else is permanent until an operator
// intervenes.
func IsRetryable(err error) bool {
	var chainErr *ethereum.ChainReadError
	if errors.As(err, &chainErr) {
		return true
	}
	var contentErr *ipfs.ContentNotFoundError
	if errors.As(err, &contentErr) {
		return true
	}
	var persistErr *db.PersistenceError
	return errors.As(err, &persistErr)
}
