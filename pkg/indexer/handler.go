package indexer

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/internal/metrics"
	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/notifier"
	"github.com/OriginProtocol/bridge-server/pkg/search"
)

// excludedContentFields are content sub-fields too large for the relational
// store (media blobs live on IPFS, not in Postgres).
var excludedContentFields = []string{"pictures"}

// MarketplaceStore is the relational persistence surface the handler writes to.
type MarketplaceStore interface {
	UpsertListing(ctx context.Context, l *db.Listing, resolve db.ContentResolveFunc) error
	UpsertPurchase(ctx context.Context, p *db.Purchase) error
	SetLastRead(ctx context.Context, trackerID string, blockNumber int64) error
}

// ContentResolver fetches off-chain content documents.
type ContentResolver interface {
	Fetch(ctx context.Context, contentHash string, exclude []string) (map[string]any, error)
}

// Handler drives a single event through the pipeline: classify, fetch
// contract data, persist, fan out, advance the cursor.
type Handler struct {
	fetcher   *Fetcher
	store     MarketplaceStore
	resolver  ContentResolver
	search    search.Store
	notifier  notifier.Notifier
	registry  common.Address
	trackerID string
	logger    *zap.Logger
}

// NewHandler creates an event handler. Only NewListing events emitted by
// registry are honored; foreign contracts can emit the same topic hash.
func NewHandler(
	fetcher *Fetcher,
	store MarketplaceStore,
	resolver ContentResolver,
	searchStore search.Store,
	n notifier.Notifier,
	registry common.Address,
	trackerID string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		fetcher:   fetcher,
		store:     store,
		resolver:  resolver,
		search:    searchStore,
		notifier:  n,
		registry:  registry,
		trackerID: trackerID,
		logger:    logger,
	}
}

// Process handles one log from the feed. On success (including skipped
// unrecognized events) the cursor is advanced to the log's block as the final
// step. On error the cursor is left untouched so the event is redelivered.
//
// Notification and search fan-out failures are logged and counted but never
// returned: both targets tolerate at-least-once redelivery, and neither is
// worth stalling the feed for.
func (h *Handler) Process(ctx context.Context, log types.Log) error {
	if len(log.Topics) == 0 {
		h.logger.Warn("Skipping log without topics",
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Uint64("block", log.BlockNumber))
		metrics.EventsTotal.WithLabelValues(string(EventUnknown), "skipped").Inc()
		return h.advanceCursor(ctx, log.BlockNumber)
	}

	eventType := Classify(log.Topics[0])
	if eventType == EventUnknown {
		h.logger.Warn("Skipping unrecognized event topic",
			zap.String("topic", log.Topics[0].Hex()),
			zap.String("contract", log.Address.Hex()),
			zap.Uint64("block", log.BlockNumber))
		metrics.EventsTotal.WithLabelValues(string(EventUnknown), "skipped").Inc()
		return h.advanceCursor(ctx, log.BlockNumber)
	}

	if eventType == EventNewListing && log.Address != h.registry {
		h.logger.Warn("Skipping NewListing from foreign contract",
			zap.String("contract", log.Address.Hex()),
			zap.String("registry", h.registry.Hex()),
			zap.Uint64("block", log.BlockNumber))
		metrics.EventsTotal.WithLabelValues(string(eventType), "skipped").Inc()
		return h.advanceCursor(ctx, log.BlockNumber)
	}

	start := time.Now()
	err := h.process(ctx, eventType, log)
	metrics.EventDuration.WithLabelValues(string(eventType)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventsTotal.WithLabelValues(string(eventType), "failed").Inc()
		return err
	}

	if err := h.advanceCursor(ctx, log.BlockNumber); err != nil {
		metrics.EventsTotal.WithLabelValues(string(eventType), "failed").Inc()
		return err
	}
	metrics.EventsTotal.WithLabelValues(string(eventType), "processed").Inc()
	return nil
}

func (h *Handler) process(ctx context.Context, eventType EventType, log types.Log) error {
	switch eventType {
	case EventNewListing:
		index, err := decodeRegistryIndex(log.Data)
		if err != nil {
			return err
		}
		listingAddr, err := h.fetcher.ResolveRegistryListing(ctx, log.Address, index)
		if err != nil {
			return err
		}
		return h.handleListing(ctx, listingAddr, notifier.KindListingCreated)

	case EventListingChange:
		return h.handleListing(ctx, log.Address, notifier.KindListingUpdated)

	case EventListingPurchased:
		purchaseAddr, err := decodePurchaseAddress(log.Data)
		if err != nil {
			return err
		}
		return h.handlePurchase(ctx, purchaseAddr, notifier.KindPurchaseCreated)

	case EventPurchaseChange:
		return h.handlePurchase(ctx, log.Address, notifier.KindPurchaseUpdated)
	}
	return nil
}

func (h *Handler) handleListing(ctx context.Context, address common.Address, kind notifier.Kind) error {
	listing, err := h.fetcher.FetchListing(ctx, address)
	if err != nil {
		return err
	}

	resolve := func(ctx context.Context, contentHash string) (map[string]any, error) {
		return h.resolver.Fetch(ctx, contentHash, excludedContentFields)
	}
	if err := h.store.UpsertListing(ctx, listing, resolve); err != nil {
		return err
	}

	h.logger.Info("Listing persisted",
		zap.String("contract_address", listing.ContractAddress),
		zap.String("content_hash", listing.ContentHash),
		zap.Int("units", listing.Units))

	h.fanOutNotification(ctx, kind, listing)

	if h.search != nil {
		if err := h.search.UpsertListingDoc(ctx, listing); err != nil {
			metrics.SearchIndexFailures.Inc()
			h.logger.Error("Search index update failed",
				zap.String("contract_address", listing.ContractAddress),
				zap.Error(err))
		}
	}
	return nil
}

func (h *Handler) handlePurchase(ctx context.Context, address common.Address, kind notifier.Kind) error {
	purchase, err := h.fetcher.FetchPurchase(ctx, address)
	if err != nil {
		return err
	}

	if err := h.store.UpsertPurchase(ctx, purchase); err != nil {
		return err
	}

	h.logger.Info("Purchase persisted",
		zap.String("contract_address", purchase.ContractAddress),
		zap.String("listing_address", purchase.ListingAddress),
		zap.Int16("stage", int16(purchase.Stage)))

	h.fanOutNotification(ctx, kind, purchase)

	if h.search != nil {
		if err := h.search.UpsertPurchaseDoc(ctx, purchase); err != nil {
			metrics.SearchIndexFailures.Inc()
			h.logger.Error("Search index update failed",
				zap.String("contract_address", purchase.ContractAddress),
				zap.Error(err))
		}
	}
	return nil
}

func (h *Handler) fanOutNotification(ctx context.Context, kind notifier.Kind, record any) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(ctx, kind, record); err != nil {
		metrics.NotifyFailures.Inc()
		h.logger.Error("Notification delivery failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func (h *Handler) advanceCursor(ctx context.Context, blockNumber uint64) error {
	if err := h.store.SetLastRead(ctx, h.trackerID, int64(blockNumber)); err != nil {
		return err
	}
	metrics.CursorBlock.WithLabelValues(h.trackerID).Set(float64(blockNumber))
	return nil
}
