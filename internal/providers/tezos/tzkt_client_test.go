package tezos_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/providers/tezos"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// respondWith unmarshals body into the result argument of HTTPClient.Get
func respondWith(body string) func(ctx context.Context, url string, result interface{}) error {
	return func(ctx context.Context, url string, result interface{}) error {
		return json.Unmarshal([]byte(body), result)
	}
}

func TestTzKTClient_GetOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := tezos.NewTzKTClient("https://api.tzkt.io", httpClient)

	body := `[
		{"type":"ballot","id":101,"level":5000,"vote":"yay","proposal":{"hash":"PtA"}},
		{"type":"ballot","id":105,"level":5001,"vote":"nay","proposal":{"hash":"PtA"}}
	]`
	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.tzkt.io/v1/operations/ballots?id.gt=100&level.ge=5000&limit=2&sort.asc=id", gomock.Any()).
		DoAndReturn(respondWith(body))

	ops, err := client.GetOperations(context.Background(), tezos.OperationBallot, 5000, 100, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, uint64(101), ops[0].ID)
	assert.Equal(t, int64(5000), ops[0].Level)
	assert.Equal(t, uint64(105), ops[1].ID)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(ops[1].Raw, &raw))
	assert.Equal(t, "nay", raw["vote"])
	assert.Equal(t, "ballot", raw["type"])
}

func TestTzKTClient_GetOperations_DefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := tezos.NewTzKTClient("https://api.tzkt.io", httpClient)

	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.tzkt.io/v1/operations/proposals?id.gt=0&level.ge=1&limit=500&sort.asc=id", gomock.Any()).
		DoAndReturn(respondWith(`[]`))

	ops, err := client.GetOperations(context.Background(), tezos.OperationProposal, 1, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestTzKTClient_GetOperations_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := tezos.NewTzKTClient("https://api.tzkt.io", httpClient)

	_, err := client.GetOperations(context.Background(), "transaction", 1, 0, 10)
	assert.ErrorContains(t, err, "unsupported operation type")

	httpClient.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("request failed after retries"))
	_, err = client.GetOperations(context.Background(), tezos.OperationProposal, 1, 0, 10)
	assert.ErrorContains(t, err, "failed to get proposal operations from level 1")
}

func TestTezosBlockFetcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	fetcher := tezos.NewTezosBlockFetcher(tezos.NewTzKTClient("https://api.tzkt.io", httpClient))

	httpClient.EXPECT().
		Get(gomock.Any(), "https://api.tzkt.io/v1/head", gomock.Any()).
		DoAndReturn(respondWith(`{"level":7012345,"synced":true}`))

	level, err := fetcher.FetchLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7012345), level)

	httpClient.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("timeout"))
	_, err = fetcher.FetchLatestBlock(context.Background())
	assert.ErrorContains(t, err, "failed to get head from TzKT")
}
