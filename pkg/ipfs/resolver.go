package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
)

// DefaultRootAttr is the top-level attribute content publishers wrap listing
// documents in.
const DefaultRootAttr = "data"

// ContentNotFoundError indicates the off-chain content for a hash could not
// be resolved. Callers treat it as retryable.
type ContentNotFoundError struct {
	Hash string
	Err  error
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content %s not found: %v", e.Hash, e.Err)
}

func (e *ContentNotFoundError) Unwrap() error { return e.Err }

// Resolver fetches immutable off-chain content documents by content hash.
type Resolver interface {
	Fetch(ctx context.Context, contentHash string, exclude []string) (map[string]any, error)
}

// ShellResolver resolves content through an IPFS node's HTTP API.
type ShellResolver struct {
	sh       *shell.Shell
	rootAttr string
}

// NewShellResolver creates a resolver backed by the IPFS API at apiURL.
func NewShellResolver(apiURL string, timeout time.Duration) *ShellResolver {
	client := &http.Client{Timeout: timeout}
	return &ShellResolver{
		sh:       shell.NewShellWithClient(apiURL, client),
		rootAttr: DefaultRootAttr,
	}
}

// Fetch retrieves the JSON document stored under contentHash, unwraps the
// root attribute and strips the excluded fields. Large media sub-fields are
// excluded by callers so they never reach the relational store.
func (r *ShellResolver) Fetch(ctx context.Context, contentHash string, exclude []string) (map[string]any, error) {
	resp, err := r.sh.Request("cat", contentHash).Send(ctx)
	if err != nil {
		return nil, &ContentNotFoundError{Hash: contentHash, Err: err}
	}
	defer resp.Close()
	if resp.Error != nil {
		return nil, &ContentNotFoundError{Hash: contentHash, Err: resp.Error}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Output).Decode(&payload); err != nil {
		return nil, &ContentNotFoundError{Hash: contentHash, Err: fmt.Errorf("malformed content document: %w", err)}
	}

	return ExtractDocument(payload, r.rootAttr, exclude), nil
}

// ExtractDocument unwraps the root attribute of a content payload (when
// present) and removes the excluded fields.
func ExtractDocument(payload map[string]any, rootAttr string, exclude []string) map[string]any {
	doc := payload
	if root, ok := payload[rootAttr].(map[string]any); ok {
		doc = root
	}
	for _, field := range exclude {
		delete(doc, field)
	}
	return doc
}
