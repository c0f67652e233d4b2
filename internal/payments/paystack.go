package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// Client talks to the Paystack REST API. Amounts cross the wire in minor
// currency units (pesewas), so major units are multiplied by 100 here and
// nowhere else.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

// initializeAttempts bounds the retry loop on transaction initialization.
// Verification is never retried.
const initializeAttempts = 3

var ErrNotConfigured = errors.New("paystack secret key is not configured")

func NewClient(baseURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      httpClient,
	}
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccessCode string `json:"access_code"`
		Reference  string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"data"`
}

// Initialize authorizes a transaction for the payer and amount and returns
// the access code driving the client-side popup plus the reference used for
// later verification. Transient failures are retried a bounded number of
// times; the observable result is unchanged.
func (c *Client) Initialize(ctx context.Context, email string, amountMajor float64) (*models.PaymentInit, error) {
	if c.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]interface{}{
		"email":  email,
		"amount": int64(math.Round(amountMajor * 100)),
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= initializeAttempts; attempt++ {
		init, retryable, err := c.initializeOnce(ctx, body)
		if err == nil {
			return init, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("payment initialization failed: %w", lastErr)
}

func (c *Client) initializeOnce(ctx context.Context, body []byte) (*models.PaymentInit, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var result initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !result.Status {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return nil, false, errors.New(msg)
	}

	reference := result.Data.Reference
	if reference == "" {
		reference = utils.GenerateReference()
	}
	return &models.PaymentInit{
		AccessCode: result.Data.AccessCode,
		Reference:  reference,
	}, false, nil
}

// Verify confirms whether the charge behind a reference went through and
// reports the charged amount back in major units.
func (c *Client) Verify(ctx context.Context, reference string) (*models.PaymentVerification, error) {
	if c.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !result.Status {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return nil, errors.New(msg)
	}

	return &models.PaymentVerification{
		Paid:   result.Data.Status == "success",
		Amount: result.Data.Amount / 100,
	}, nil
}
