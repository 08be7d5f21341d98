package service

import (
	"fmt"
	"time"

	"autoshop-admin/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notifier sends customer-facing texts. Callers check SMS consent first;
// the notifier just delivers. Delivery failures never fail the request.
type Notifier interface {
	SendSMS(to, message string) error
}

// SMSClient talks to the SMS gateway over HTTP.
type SMSClient struct {
	httpClient *resty.Client
	sender     string
	logger     *zap.Logger
}

// NewSMSClient builds the gateway client. Short timeout and a couple of
// retries: SMS is best-effort and must not hold a request transaction open.
func NewSMSClient(cfg config.SMSConfig, logger *zap.Logger) *SMSClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)

	return &SMSClient{
		httpClient: client,
		sender:     cfg.Sender,
		logger:     logger,
	}
}

var _ Notifier = (*SMSClient)(nil)

type smsRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendSMS posts one message to the gateway.
func (c *SMSClient) SendSMS(to, message string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	var result smsResponse
	resp, err := c.httpClient.R().
		SetBody(smsRequest{From: c.sender, To: to, Message: message}).
		SetResult(&result).
		Post("/v1/messages")
	if err != nil {
		return fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("SMS gateway returned %d: %s", resp.StatusCode(), result.Message)
	}

	c.logger.Info("SMS sent", zap.String("to", to), zap.String("status", result.Status))
	return nil
}

// NoopNotifier is used when SMS is disabled.
type NoopNotifier struct{}

func (NoopNotifier) SendSMS(string, string) error { return nil }
