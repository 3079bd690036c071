package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/microtask/microtask_backend/models"
)

const whishSandboxURL = "https://api.sandbox.whish.money/itel-service/api/"

// WhishConfig holds the merchant credentials for the Whish gateway
type WhishConfig struct {
	BaseURL     string
	Channel     string
	Secret      string
	WebsiteURL  string
	CallbackURL string
	Debug       bool
}

// WhishService handles interactions with the Whish API
type WhishService struct {
	cfg        WhishConfig
	httpClient *http.Client
	log        *logrus.Entry
}

// NewWhishService creates a new Whish service instance
func NewWhishService(cfg WhishConfig, logger *logrus.Logger) *WhishService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = whishSandboxURL
	}
	entry := logger.WithField("service", "whish")

	if cfg.Channel == "" || cfg.Secret == "" || cfg.WebsiteURL == "" {
		entry.Warn("Whish credentials not fully configured; set WHISH_CHANNEL, WHISH_SECRET and WHISH_WEBSITE_URL")
	} else {
		entry.WithFields(logrus.Fields{
			"base_url": cfg.BaseURL,
			"channel":  cfg.Channel,
			"website":  cfg.WebsiteURL,
		}).Info("Whish service configured")
	}

	return &WhishService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        entry,
	}
}

// getHeaders returns the standard headers required for Whish API requests
func (s *WhishService) getHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"channel":      s.cfg.Channel,
		"secret":       s.cfg.Secret,
		"websiteurl":   s.cfg.WebsiteURL,
	}
}

// makeRequest performs an HTTP request to the Whish API and returns its data object
func (s *WhishService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (gjson.Result, error) {
	if s.cfg.Channel == "" || s.cfg.Secret == "" || s.cfg.WebsiteURL == "" {
		return gjson.Result{}, fmt.Errorf("missing Whish credentials")
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+endpoint, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.getHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if s.cfg.Debug {
		s.log.WithFields(logrus.Fields{"endpoint": endpoint, "body": string(respBody)}).Debug("Whish API response")
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("failed to parse response: %q", string(respBody))
	}

	parsed := gjson.ParseBytes(respBody)
	if !parsed.Get("status").Bool() {
		code := parsed.Get("code").String()
		if code == "" {
			code = "unknown"
		}
		if msg := parsed.Get("dialog.message").String(); msg != "" {
			return gjson.Result{}, fmt.Errorf("whish API error: %s - %s", code, msg)
		}
		return gjson.Result{}, fmt.Errorf("whish API error: %s", code)
	}
	return parsed.Get("data"), nil
}

// CreateIntent opens a Whish collect for amountMinor and returns its collect
// URL as the client secret. The generated externalId is the transaction id.
func (s *WhishService) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*models.PaymentIntent, error) {
	amount, _ := decimal.New(amountMinor, -2).Float64()
	externalID := newExternalID()
	callback := s.cfg.CallbackURL

	data, err := s.makeRequest(ctx, http.MethodPost, "payment/whish", models.WhishRequest{
		Amount:             &amount,
		Currency:           currency,
		Invoice:            fmt.Sprintf("MicroTask coins %s %s", decimal.New(amountMinor, -2).StringFixed(2), currency),
		ExternalID:         &externalID,
		SuccessCallbackURL: callback,
		FailureCallbackURL: callback,
		SuccessRedirectURL: s.cfg.WebsiteURL,
		FailureRedirectURL: s.cfg.WebsiteURL,
	})
	if err != nil {
		return nil, err
	}

	collectURL := data.Get("collectUrl").String()
	if collectURL == "" {
		return nil, fmt.Errorf("failed to parse collect URL from response")
	}
	return &models.PaymentIntent{
		ClientSecret:  collectURL,
		TransactionID: strconv.FormatInt(externalID, 10),
	}, nil
}

// VerifyPayment reports whether the collect identified by transactionID succeeded
func (s *WhishService) VerifyPayment(ctx context.Context, currency, transactionID string) (bool, error) {
	externalID, err := strconv.ParseInt(transactionID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("transaction id %q is not a Whish external id", transactionID)
	}

	data, err := s.makeRequest(ctx, http.MethodPost, "payment/collect/status", models.WhishRequest{
		Currency:   currency,
		ExternalID: &externalID,
	})
	if err != nil {
		return false, err
	}
	return data.Get("collectStatus").String() == models.WhishCollectSuccess, nil
}

// newExternalID derives a positive int64 from a random uuid
func newExternalID() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint64(u[:8]) >> 1)
}
