package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
	"github.com/feral-file/ff-chain-events/internal/webhook"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var testNow = time.Unix(1705312800, 0)

type testHandlerMocks struct {
	publisher *mocks.MockPublisher
	router    *gin.Engine
}

func setupTestHandler(t *testing.T, maxBodySize int64) *testHandlerMocks {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()

	publisher := mocks.NewMockPublisher(ctrl)
	handler := webhook.NewHandler(webhook.Config{
		Secret:      testSecret,
		MaxBodySize: maxBodySize,
	}, normalizer.New(clock), publisher, adapter.NewIO(), clock)

	router := gin.New()
	router.POST("/webhooks/events", handler.Receive)

	return &testHandlerMocks{publisher: publisher, router: router}
}

func signedRequest(body string, eventID string, signedAt time.Time) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.HeaderEventID, eventID)
	req.Header.Set(webhook.HeaderTimestamp, strconv.FormatInt(signedAt.Unix(), 10))
	req.Header.Set(webhook.HeaderSignature, webhook.Sign(testSecret, signedAt.Unix(), eventID, []byte(body)))
	return req
}

func serve(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, webhook.Response) {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp webhook.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

const validBody = `{"network_id":"eip155:1","block_number":19000000,"event_data":{"kind":"ProposalCreated","proposal_id":"7"}}`

func TestHandler_Receive_Relays(t *testing.T) {
	tm := setupTestHandler(t, 0)

	tm.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, env *domain.Envelope) error {
			assert.Equal(t, domain.Network("eip155:1"), env.NetworkID)
			assert.Equal(t, int64(19000000), env.Block())
			assert.Equal(t, "ProposalCreated", env.EventKind())
			assert.Equal(t, "webhook", env.Source)
			assert.Equal(t, testNow.UTC(), env.ReceivedAt)
			return nil
		})

	rec, resp := serve(tm.router, signedRequest(validBody, "evt-1", testNow))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "evt-1", resp.EventID)
}

func TestHandler_Receive_NetworkMustBeSigned(t *testing.T) {
	tm := setupTestHandler(t, 0)
	body := `{"block_number":5,"event_data":{"kind":"ballot"}}`

	tm.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
	tm.publisher.EXPECT().
		PublishDeadLetter(gomock.Any(), domain.Network(""), []byte(body), gomock.Any()).
		Return(nil)

	// a query parameter is outside the signature and cannot attribute the event to a network
	req := signedRequest(body, "evt-2", testNow)
	req.URL.RawQuery = "network=eip155:1"
	rec, resp := serve(tm.router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", resp.Code)
	assert.Contains(t, resp.Message, "network_id")
}

func TestHandler_Receive_RejectsBeforeProcessing(t *testing.T) {
	tests := []struct {
		name    string
		request func() *http.Request
	}{
		{
			name: "unsigned",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/webhooks/events", strings.NewReader(validBody))
			},
		},
		{
			name: "stale",
			request: func() *http.Request {
				return signedRequest(validBody, "evt-1", testNow.Add(-10*time.Minute))
			},
		},
		{
			name: "tampered",
			request: func() *http.Request {
				req := signedRequest(validBody, "evt-1", testNow)
				req.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Replace(validBody, "7", "8", 1))).Body
				return req
			},
		},
		{
			name: "malformed json with bad signature",
			request: func() *http.Request {
				req := signedRequest(validBody, "evt-1", testNow)
				req.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")).Body
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t, 0)
			tm.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			tm.publisher.EXPECT().PublishDeadLetter(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			rec, resp := serve(tm.router, tt.request())

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", resp.Code)
		})
	}
}

func TestHandler_Receive_FormatError(t *testing.T) {
	t.Run("malformed payload is dead-lettered", func(t *testing.T) {
		tm := setupTestHandler(t, 0)
		body := `{"network_id":"eip155:1","block_number":-1,"event_data":{"kind":"x"}}`

		tm.publisher.EXPECT().
			PublishDeadLetter(gomock.Any(), domain.Network(""), []byte(body), gomock.Any()).
			Return(nil)

		rec, resp := serve(tm.router, signedRequest(body, "evt-3", testNow))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_payload", resp.Code)
		assert.Contains(t, resp.Message, "block_number")
	})

	t.Run("dead-letter failure still answers 400", func(t *testing.T) {
		tm := setupTestHandler(t, 0)

		tm.publisher.EXPECT().
			PublishDeadLetter(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("nats down"))

		rec, _ := serve(tm.router, signedRequest(`{"block_number":1}`, "evt-4", testNow))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejected by relay", func(t *testing.T) {
		tm := setupTestHandler(t, 0)

		tm.publisher.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			Return(domain.NewFormatError("event_data", "is missing"))

		rec, _ := serve(tm.router, signedRequest(validBody, "evt-5", testNow))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Receive_TransientBroker(t *testing.T) {
	tm := setupTestHandler(t, 0)

	tm.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("failed to publish envelope: %w: %w", domain.ErrTransientBroker, errors.New("timeout")))

	rec, resp := serve(tm.router, signedRequest(validBody, "evt-6", testNow))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", resp.Code)
}

func TestHandler_Receive_BodyTooLarge(t *testing.T) {
	tm := setupTestHandler(t, 32)
	tm.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	body := string(bytes.Repeat([]byte("a"), 64))
	rec, resp := serve(tm.router, signedRequest(body, "evt-7", testNow))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "payload_too_large", resp.Code)
}
