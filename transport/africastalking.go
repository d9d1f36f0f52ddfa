package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// SandboxBaseURL is the Africa's Talking sandbox messaging endpoint.
const SandboxBaseURL = "https://api.sandbox.africastalking.com/version1/messaging"

// ProductionBaseURL is the live Africa's Talking messaging endpoint.
const ProductionBaseURL = "https://api.africastalking.com/version1/messaging"

// AfricasTalkingOptions configure the SMS client.
type AfricasTalkingOptions struct {
	BaseURL    string
	Username   string
	APIKey     string
	SenderID   string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// AfricasTalking sends SMS segments through the Africa's Talking bulk
// messaging API. It implements core.Sender.
type AfricasTalking struct {
	baseURL  string
	username string
	apiKey   string
	senderID string
	client   *http.Client
	logger   logging.Logger
}

// NewAfricasTalking constructs the client. Defaults target the sandbox.
func NewAfricasTalking(optFns ...func(o *AfricasTalkingOptions)) *AfricasTalking {
	opts := AfricasTalkingOptions{
		BaseURL:    SandboxBaseURL,
		Username:   "sandbox",
		HTTPClient: http.DefaultClient,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &AfricasTalking{
		baseURL:  opts.BaseURL,
		username: opts.Username,
		apiKey:   opts.APIKey,
		senderID: opts.SenderID,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
	}
}

type sendResponse struct {
	SMSMessageData struct {
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send implements core.Sender for a single recipient and segment.
func (a *AfricasTalking) Send(ctx context.Context, farmerID, segment string) error {
	form := url.Values{}
	form.Set("username", a.username)
	form.Set("to", farmerID)
	form.Set("message", segment)
	if a.senderID != "" {
		form.Set("from", a.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode sms response: %w", err)
	}
	for _, r := range body.SMSMessageData.Recipients {
		if r.StatusCode >= 400 {
			return fmt.Errorf("sms rejected for %s: %s (%d)", r.Number, r.Status, r.StatusCode)
		}
	}
	a.logger.Debug("sms sent", "to", farmerID, "length", len(segment))
	return nil
}

var _ core.Sender = (*AfricasTalking)(nil)
