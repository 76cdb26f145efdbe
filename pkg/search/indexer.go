package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/pkg/db"
)

// Store projects persisted marketplace records into the search index.
// It is an auxiliary read-path optimization: callers log failures and move
// on, they never roll back the relational write.
type Store interface {
	UpsertListingDoc(ctx context.Context, listing *db.Listing) error
	UpsertPurchaseDoc(ctx context.Context, purchase *db.Purchase) error
}

// listingDoc is the subset of a listing exposed to search.
type listingDoc struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `json:"price"`
}

// Indexer is an Elasticsearch-backed Store.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewIndexer creates a search indexer writing to the given index
func NewIndexer(client *elasticsearch.Client, index string, logger *zap.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: logger,
	}
}

// UpsertListingDoc indexes a listing document keyed by contract address.
// Re-indexing the same listing fully rebuilds the document.
func (i *Indexer) UpsertListingDoc(ctx context.Context, listing *db.Listing) error {
	doc := buildListingDoc(listing)

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode listing doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: listing.ContractAddress,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to index listing %s: %w", listing.ContractAddress, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index listing %s: %s", listing.ContractAddress, res.String())
	}

	i.logger.Debug("Indexed listing document",
		zap.String("contract_address", listing.ContractAddress),
		zap.String("index", i.index))
	return nil
}

// UpsertPurchaseDoc is a placeholder: purchases are not searchable. It is the
// hook where sold-out listings will be removed from the index once a purchase
// drains units_available to zero.
func (i *Indexer) UpsertPurchaseDoc(_ context.Context, _ *db.Purchase) error {
	return nil
}

func buildListingDoc(listing *db.Listing) listingDoc {
	return listingDoc{
		Name:        contentField(listing.ContentData, "name"),
		Category:    contentField(listing.ContentData, "category"),
		Description: contentField(listing.ContentData, "description"),
		Location:    contentField(listing.ContentData, "location"),
		Price:       listing.Price,
	}
}

func contentField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
