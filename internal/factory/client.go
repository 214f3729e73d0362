// Package factory talks to the external order-fulfillment collaborator.
// Every submission either confirms with a receipt or fails with an optional
// diagnostic report reference; there is no third outcome and no retry.
package factory

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pizzanet/pizza-service/internal/models"
	"go.uber.org/zap"
)

// Confirmation is the success outcome of a submission.
type Confirmation struct {
	Receipt string
}

// SubmitError is the failure outcome. ReportURL carries the factory's
// diagnostic reference when one was provided. A timeout is a SubmitError
// like any other failure.
type SubmitError struct {
	ReportURL string
	Err       error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return "factory submission failed: " + e.Err.Error()
	}
	return "factory submission failed"
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Client submits orders to the factory over HTTP with a bounded timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a factory client. The timeout bounds the whole
// submission; the factory is the only externally-controlled latency in the
// order workflow.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type submitRequest struct {
	Diner dinerRef     `json:"diner"`
	Order orderPayload `json:"order"`
}

type dinerRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type orderPayload struct {
	ID          int64              `json:"id"`
	FranchiseID int64              `json:"franchiseId"`
	StoreID     int64              `json:"storeId"`
	Items       []models.OrderItem `json:"items"`
}

type submitResponse struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// Submit sends the persisted order to the factory and returns its receipt.
// The request body is signed with an HMAC over the payload so the factory
// can check integrity against the shared API key.
func (c *Client) Submit(ctx context.Context, diner models.User, order models.Order) (Confirmation, error) {
	payload := submitRequest{
		Diner: dinerRef{ID: diner.ID, Name: diner.Name, Email: diner.Email},
		Order: orderPayload{
			ID:          order.ID,
			FranchiseID: order.FranchiseID,
			StoreID:     order.StoreID,
			Items:       order.Items,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Confirmation{}, &SubmitError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/order", bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, &SubmitError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Pizza-Signature", c.sign(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("factory call failed", zap.Int64("orderId", order.ID), zap.Error(err))
		return Confirmation{}, &SubmitError{Err: err}
	}
	defer resp.Body.Close()

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < 300 {
		return Confirmation{}, &SubmitError{Err: fmt.Errorf("decode factory response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("factory rejected order",
			zap.Int64("orderId", order.ID),
			zap.Int("status", resp.StatusCode),
			zap.String("reportUrl", parsed.ReportURL))
		return Confirmation{}, &SubmitError{
			ReportURL: parsed.ReportURL,
			Err:       fmt.Errorf("factory returned status %d", resp.StatusCode),
		}
	}

	return Confirmation{Receipt: parsed.JWT}, nil
}

func (c *Client) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.apiKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
