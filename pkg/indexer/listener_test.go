package indexer

import (
	"context"
	"fmt"
	"testing"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/pkg/config"
	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
)

func newTestListener(feed *MockLogFeed, cursor *MockCursorStore, handler *Handler) *Listener {
	return NewListener(feed, cursor, handler,
		&config.IndexerConfig{TrackerID: testTracker, MaxRetries: 3, RetryDelay: time.Millisecond},
		&config.EthereumConfig{StartBlock: 100, PollingInterval: 10 * time.Millisecond},
		zap.NewNop())
}

func TestListener_PollStartsFromConfiguredBlock(t *testing.T) {
	var query goethereum.FilterQuery
	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 150, nil },
		FilterLogsFunc: func(_ context.Context, q goethereum.FilterQuery) ([]types.Log, error) {
			query = q
			return nil, nil
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 0, false, nil },
	}

	l := newTestListener(feed, cursor, newHandlerFixture().handler)
	require.NoError(t, l.poll(context.Background()))

	assert.Equal(t, int64(100), query.FromBlock.Int64())
	assert.Equal(t, int64(150), query.ToBlock.Int64())
	require.Len(t, query.Topics, 1)
	assert.Len(t, query.Topics[0], 4)
}

func TestListener_PollResumesPastCursor(t *testing.T) {
	var query goethereum.FilterQuery
	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 150, nil },
		FilterLogsFunc: func(_ context.Context, q goethereum.FilterQuery) ([]types.Log, error) {
			query = q
			return nil, nil
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 120, true, nil },
	}

	l := newTestListener(feed, cursor, newHandlerFixture().handler)
	require.NoError(t, l.poll(context.Background()))

	assert.Equal(t, int64(121), query.FromBlock.Int64())
}

func TestListener_PollSkipsWhenCaughtUp(t *testing.T) {
	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 120, nil },
		FilterLogsFunc: func(context.Context, goethereum.FilterQuery) ([]types.Log, error) {
			t.Fatal("should not filter logs when caught up")
			return nil, nil
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 120, true, nil },
	}

	l := newTestListener(feed, cursor, newHandlerFixture().handler)
	require.NoError(t, l.poll(context.Background()))
}

func TestListener_RetryableFailureStallsFeed(t *testing.T) {
	f := newHandlerFixture()
	f.chain.CallFunc = func(_ context.Context, kind ethereum.ContractKind, _ common.Address, method string, _ ...any) ([]any, error) {
		return nil, &ethereum.ChainReadError{Kind: kind, Method: method, Err: fmt.Errorf("rpc down")}
	}
	var cursorAdvanced bool
	f.store.SetLastReadFunc = func(context.Context, string, int64) error {
		cursorAdvanced = true
		return nil
	}

	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 150, nil },
		FilterLogsFunc: func(context.Context, goethereum.FilterQuery) ([]types.Log, error) {
			return []types.Log{newListingLog(120)}, nil
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 119, true, nil },
	}

	l := newTestListener(feed, cursor, f.handler)
	err := l.poll(context.Background())

	require.Error(t, err)
	assert.False(t, cursorAdvanced)
}

func TestListener_NonRetryableFailureNotRetried(t *testing.T) {
	f := newHandlerFixture()
	attempts := 0
	f.chain.CallFunc = func(context.Context, ethereum.ContractKind, common.Address, string, ...any) ([]any, error) {
		attempts++
		return nil, fmt.Errorf("permanent decode failure")
	}

	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 150, nil },
		FilterLogsFunc: func(context.Context, goethereum.FilterQuery) ([]types.Log, error) {
			return []types.Log{newListingLog(120)}, nil
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 119, true, nil },
	}

	l := newTestListener(feed, cursor, f.handler)
	err := l.poll(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestListener_RunSetsReady(t *testing.T) {
	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) { return 100, nil },
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 100, true, nil },
	}

	l := newTestListener(feed, cursor, newHandlerFixture().handler)
	assert.False(t, l.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, l.Ready, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestListener_FailedPollDoesNotSetReady(t *testing.T) {
	feed := &MockLogFeed{
		BlockNumberFunc: func(context.Context) (uint64, error) {
			return 0, fmt.Errorf("rpc unreachable")
		},
	}
	cursor := &MockCursorStore{
		LastReadFunc: func(context.Context, string) (int64, bool, error) { return 100, true, nil },
	}

	l := newTestListener(feed, cursor, newHandlerFixture().handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	assert.Never(t, l.Ready, 50*time.Millisecond, 5*time.Millisecond)
	cancel()
	<-done
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&ethereum.ChainReadError{Err: fmt.Errorf("x")}))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &db.PersistenceError{Op: "op", Err: fmt.Errorf("x")})))
	assert.False(t, IsRetryable(fmt.Errorf("plain failure")))
	assert.False(t, IsRetryable(nil))
}
