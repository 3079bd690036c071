package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/models"
)

func newWhishTestServer(t *testing.T, handler func(endpoint string, body models.WhishRequest) string) *WhishService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chan", r.Header.Get("channel"))
		assert.Equal(t, "sec", r.Header.Get("secret"))
		var body models.WhishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handler(r.URL.Path, body)))
	}))
	t.Cleanup(srv.Close)

	return NewWhishService(WhishConfig{
		BaseURL:    srv.URL + "/",
		Channel:    "chan",
		Secret:     "sec",
		WebsiteURL: "https://shop.example",
	}, quietLogger())
}

func TestWhishCreateIntent(t *testing.T) {
	var seen models.WhishRequest
	svc := newWhishTestServer(t, func(endpoint string, body models.WhishRequest) string {
		assert.Equal(t, "/payment/whish", endpoint)
		seen = body
		return `{"status":true,"code":null,"data":{"collectUrl":"https://whish.example/pay/abc"}}`
	})

	intent, err := svc.CreateIntent(context.Background(), 1000, "USD")
	require.NoError(t, err)
	assert.Equal(t, "https://whish.example/pay/abc", intent.ClientSecret)
	require.NotNil(t, seen.Amount)
	assert.InDelta(t, 10.0, *seen.Amount, 0.0001)
	require.NotNil(t, seen.ExternalID)
	assert.Equal(t, strconv.FormatInt(*seen.ExternalID, 10), intent.TransactionID)
	assert.Positive(t, *seen.ExternalID)
}

func TestWhishErrorResponse(t *testing.T) {
	svc := newWhishTestServer(t, func(string, models.WhishRequest) string {
		return `{"status":false,"code":"INVALID_AMOUNT","dialog":{"message":"amount too small"}}`
	})

	_, err := svc.CreateIntent(context.Background(), 1, "USD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_AMOUNT - amount too small")
}

func TestWhishVerifyPayment(t *testing.T) {
	status := models.WhishCollectPending
	svc := newWhishTestServer(t, func(endpoint string, body models.WhishRequest) string {
		assert.Equal(t, "/payment/collect/status", endpoint)
		require.NotNil(t, body.ExternalID)
		assert.Equal(t, int64(77), *body.ExternalID)
		return `{"status":true,"data":{"collectStatus":"` + status + `"}}`
	})
	ctx := context.Background()

	paid, err := svc.VerifyPayment(ctx, "USD", "77")
	require.NoError(t, err)
	assert.False(t, paid)

	status = models.WhishCollectSuccess
	paid, err = svc.VerifyPayment(ctx, "USD", "77")
	require.NoError(t, err)
	assert.True(t, paid)

	_, err = svc.VerifyPayment(ctx, "USD", "not-a-number")
	assert.Error(t, err)
}

func TestWhishMissingCredentials(t *testing.T) {
	svc := NewWhishService(WhishConfig{}, quietLogger())
	_, err := svc.CreateIntent(context.Background(), 100, "USD")
	assert.Error(t, err)
}
