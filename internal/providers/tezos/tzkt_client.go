package tezos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/feral-file/ff-chain-events/internal/adapter"
)

const DEFAULT_PAGE_SIZE = 500

// Operation types followed by the proposal subscriber
const (
	OperationProposal = "proposal"
	OperationBallot   = "ballot"
)

// operationPaths maps an operation type to its TzKT REST collection
var operationPaths = map[string]string{
	OperationProposal: "proposals",
	OperationBallot:   "ballots",
}

// Operation is a TzKT operation. Raw keeps the full JSON object as returned by TzKT
type Operation struct {
	ID    uint64
	Level int64
	Raw   json.RawMessage
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var head struct {
		ID    uint64 `json:"id"`
		Level int64  `json:"level"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	o.ID = head.ID
	o.Level = head.Level
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Head is the TzKT indexer head
type Head struct {
	Level  int64 `json:"level"`
	Synced bool  `json:"synced"`
}

// TzKTClient defines an interface for TzKT API client operations to enable mocking
//
//go:generate mockgen -source=tzkt_client.go -destination=../../mocks/tzkt_client.go -package=mocks -mock_names=TzKTClient=MockTzKTClient
type TzKTClient interface {
	// GetHead returns the current indexer head
	GetHead(ctx context.Context) (*Head, error)
	// GetOperations returns up to limit operations of opType at or above fromLevel
	// with an id greater than afterID, in ascending id order
	GetOperations(ctx context.Context, opType string, fromLevel int64, afterID uint64, limit int) ([]Operation, error)
}

type tzktClient struct {
	baseURL    string
	httpClient adapter.HTTPClient
}

// NewTzKTClient creates a new TzKT API client
func NewTzKTClient(baseURL string, httpClient adapter.HTTPClient) TzKTClient {
	return &tzktClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *tzktClient) GetHead(ctx context.Context) (*Head, error) {
	var head Head
	if err := c.httpClient.Get(ctx, c.baseURL+"/v1/head", &head); err != nil {
		return nil, fmt.Errorf("failed to get head from TzKT: %w", err)
	}
	return &head, nil
}

func (c *tzktClient) GetOperations(ctx context.Context, opType string, fromLevel int64, afterID uint64, limit int) ([]Operation, error) {
	path, ok := operationPaths[opType]
	if !ok {
		return nil, fmt.Errorf("unsupported operation type %q", opType)
	}
	if limit <= 0 {
		limit = DEFAULT_PAGE_SIZE
	}

	query := url.Values{}
	query.Set("level.ge", strconv.FormatInt(fromLevel, 10))
	query.Set("id.gt", strconv.FormatUint(afterID, 10))
	query.Set("sort.asc", "id")
	query.Set("limit", strconv.Itoa(limit))

	var ops []Operation
	endpoint := fmt.Sprintf("%s/v1/operations/%s?%s", c.baseURL, path, query.Encode())
	if err := c.httpClient.Get(ctx, endpoint, &ops); err != nil {
		return nil, fmt.Errorf("failed to get %s operations from level %d: %w", opType, fromLevel, err)
	}

	return ops, nil
}
