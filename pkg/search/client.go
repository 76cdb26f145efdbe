package search

import (
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/OriginProtocol/bridge-server/pkg/config"
)

// NewClient builds the shared Elasticsearch client. One client is constructed
// at process start and handed to every consumer; nothing in this package
// holds process-global state.
func NewClient(cfg *config.SearchConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	return client, nil
}
