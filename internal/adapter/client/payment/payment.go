package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/adapter/config"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

// Client talks to the payment gateway. Charges are queued and drained by a
// worker pool; each outcome is delivered to the service exactly once through
// the CheckoutCompleter callback.
type Client struct {
	logger      *zap.Logger
	host        string
	currency    string
	chargeQueue chan port.ChargeRequest
}

func NewClient(cfg *config.Payment, log *zap.Logger) (*Client, error) {
	return &Client{
		host:        cfg.HostString,
		currency:    cfg.Currency,
		logger:      log,
		chargeQueue: make(chan port.ChargeRequest, 16),
	}, nil
}

type chargeRequestBody struct {
	CheckoutID  string  `json:"checkout_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

type chargeResponse struct {
	Status     string  `json:"status"`
	CheckoutID string  `json:"checkout_id"`
	PaymentID  string  `json:"payment_id"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

type errChargeRequest struct {
	error
	RetryAfter time.Duration
}

func (e *errChargeRequest) Error() string {
	return fmt.Sprintf("Too Many Requests. Retry-After: %s", e.RetryAfter)
}

func (c *Client) ScheduleCharge(req port.ChargeRequest) {
	c.logger.Debug("> put charge in queue", zap.String("checkout", req.CheckoutID))
	c.chargeQueue <- req
	c.logger.Debug("< put charge in queue", zap.String("checkout", req.CheckoutID))
}

// StartWorkers drains the charge queue. A 429 from the gateway pauses all
// workers for the advertised Retry-After window.
func (c *Client) StartWorkers(ctx context.Context, completer port.CheckoutCompleter, workers int) {
	pause := sync.WaitGroup{}

	for i := 0; i < workers; i++ {
		go func(queue chan port.ChargeRequest) {
			for {
				select {
				case req := <-queue:
					pause.Wait()
					c.logger.Debug("Start processing charge",
						zap.String("checkout", req.CheckoutID))

					resp, err := c.requestCharge(req)
					if err != nil {
						if e, ok := err.(*errChargeRequest); ok {
							c.logger.Debug("Gateway asked to pause",
								zap.Duration("retry-after", e.RetryAfter))
							r := time.NewTimer(e.RetryAfter)
							pause.Add(1)
							<-r.C
							pause.Done()
							go c.retryCharge(req, 0)
							continue
						}
						c.logger.Error("Unexpected error on charge request", zap.Error(err))
						go c.retryCharge(req, 3*time.Second)
						continue
					}

					c.deliverOutcome(ctx, resp, completer)

					c.logger.Debug("Finished processing charge",
						zap.String("checkout", req.CheckoutID))
				case <-ctx.Done():
					c.logger.Debug("Finished payment worker")
					return
				}
			}
		}(c.chargeQueue)
	}
}

func (c *Client) retryCharge(req port.ChargeRequest, waitFor time.Duration) {
	if waitFor > 0 {
		r := time.NewTimer(waitFor)
		<-r.C
	}
	c.logger.Debug("> put charge in queue (retry)", zap.String("checkout", req.CheckoutID))
	c.chargeQueue <- req
	c.logger.Debug("< put charge in queue (retry)", zap.String("checkout", req.CheckoutID))
}

func (c *Client) requestCharge(req port.ChargeRequest) (*chargeResponse, error) {
	amount, ok := req.Amount.Float64()
	if !ok {
		return nil, fmt.Errorf("amount %s does not fit a charge request", req.Amount)
	}
	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}
	body, err := json.Marshal(chargeRequestBody{
		CheckoutID:  req.CheckoutID,
		Amount:      amount,
		Currency:    currency,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	requestStr := "http://" + c.host + "/api/charges"
	httpReq, err := http.NewRequest(http.MethodPost, requestStr, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error on %s : %w", requestStr, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			var retryAfter time.Duration
			sec, err := strconv.Atoi(resp.Header.Get("Retry-After"))
			if err != nil {
				retryAfter = 10
			} else {
				retryAfter = time.Duration(sec)
			}
			return nil, &errChargeRequest{RetryAfter: retryAfter * time.Second}
		}
		c.logger.Error("unexpected status for charge request",
			zap.String("checkout", req.CheckoutID), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error on response decode: %w", err)
	}
	return &result, nil
}

func (c *Client) deliverOutcome(ctx context.Context, resp *chargeResponse, completer port.CheckoutCompleter) {
	if resp.Status != "succeeded" {
		reason := resp.Reason
		if reason == "" {
			reason = resp.Status
		}
		completer.PaymentFailed(ctx, resp.CheckoutID, reason)
		return
	}

	amount, err := decimal.NewFromFloat64(resp.Amount)
	if err != nil {
		c.logger.Error("error decoding charge amount", zap.Error(err))
		completer.PaymentFailed(ctx, resp.CheckoutID, "bad amount in gateway response")
		return
	}
	err = completer.PaymentSucceeded(ctx, port.PaymentCallback{
		CheckoutID: resp.CheckoutID,
		PaymentID:  resp.PaymentID,
		Amount:     amount,
	})
	if err != nil {
		c.logger.Error("checkout completion error", zap.Error(err))
	}
}
