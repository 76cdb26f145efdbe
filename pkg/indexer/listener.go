package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/internal/metrics"
	"github.com/OriginProtocol/bridge-server/pkg/config"
)

// LogFeed is the chain log surface the listener polls.
type LogFeed interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q goethereum.FilterQuery) ([]types.Log, error)
}

// CursorStore reads the durable feed cursor.
type CursorStore interface {
	LastRead(ctx context.Context, trackerID string) (int64, bool, error)
}

// Listener polls the chain for marketplace events and feeds them to the
// handler in block order. One listener runs per feed; independent feeds use
// distinct tracker IDs.
type Listener struct {
	feed    LogFeed
	cursor  CursorStore
	handler *Handler
	cfg     *config.IndexerConfig
	eth     *config.EthereumConfig
	logger  *zap.Logger

	ready atomic.Bool
}

// NewListener creates an event listener
func NewListener(
	feed LogFeed,
	cursor CursorStore,
	handler *Handler,
	cfg *config.IndexerConfig,
	eth *config.EthereumConfig,
	logger *zap.Logger,
) *Listener {
	return &Listener{
		feed:    feed,
		cursor:  cursor,
		handler: handler,
		cfg:     cfg,
		eth:     eth,
		logger:  logger,
	}
}

// Ready reports whether the listener has completed at least one successful
// poll cycle.
func (l *Listener) Ready() bool {
	return l.ready.Load()
}

// Run polls until ctx is cancelled. Each cycle reads the cursor, fetches logs
// above it and processes them in order; a log that keeps failing after
// retries stalls the feed at the current cursor rather than being skipped.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("Starting event listener",
		zap.String("tracker_id", l.cfg.TrackerID),
		zap.Duration("polling_interval", l.eth.PollingInterval))

	ticker := time.NewTicker(l.eth.PollingInterval)
	defer ticker.Stop()

	for {
		if err := l.poll(ctx); err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Event listener stopped")
				return nil
			}
			l.logger.Error("Poll cycle failed", zap.Error(err))
		} else {
			l.ready.Store(true)
		}

		select {
		case <-ctx.Done():
			l.logger.Info("Event listener stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Listener) poll(ctx context.Context) error {
	from, err := l.nextBlock(ctx)
	if err != nil {
		return err
	}

	latest, err := l.feed.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if from > latest {
		return nil
	}

	logs, err := l.feed.FilterLogs(ctx, goethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(latest),
		Topics:    [][]common.Hash{WatchedTopics()},
	})
	if err != nil {
		return fmt.Errorf("failed to filter logs: %w", err)
	}
	if len(logs) == 0 {
		return nil
	}

	l.logger.Debug("Fetched event logs",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", latest),
		zap.Int("count", len(logs)))

	for _, log := range logs {
		if err := l.processWithRetry(ctx, log); err != nil {
			// Leave the cursor where it is; the log is redelivered next cycle.
			return fmt.Errorf("failed to process log in block %d: %w", log.BlockNumber, err)
		}
	}
	return nil
}

// nextBlock returns the first block to scan: one past the durable cursor, or
// the configured start block when no cursor exists yet.
func (l *Listener) nextBlock(ctx context.Context) (uint64, error) {
	lastRead, found, err := l.cursor.LastRead(ctx, l.cfg.TrackerID)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	if !found {
		return uint64(l.eth.StartBlock), nil
	}
	return uint64(lastRead) + 1, nil
}

func (l *Listener) processWithRetry(ctx context.Context, log types.Log) error {
	return retry.Do(
		func() error {
			return l.handler.Process(ctx, log)
		},
		retry.Context(ctx),
		retry.Attempts(l.cfg.MaxRetries),
		retry.Delay(l.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			metrics.RetriesTotal.Inc()
			l.logger.Warn("Retrying event",
				zap.Uint("attempt", n+1),
				zap.Uint64("block", log.BlockNumber),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Error(err))
		}),
	)
}
