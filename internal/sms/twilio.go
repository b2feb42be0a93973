package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	id "afridio/pkg/domain"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioGateway dispatches messages through the Twilio Messages API.
type TwilioGateway struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// TwilioOption configures a TwilioGateway.
type TwilioOption func(*TwilioGateway)

// WithBaseURL points the gateway at a different API host. Tests use this to
// target a local stub.
func WithBaseURL(baseURL string) TwilioOption {
	return func(g *TwilioGateway) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) TwilioOption {
	return func(g *TwilioGateway) {
		g.client = client
	}
}

// NewTwilioGateway builds a Twilio-backed gateway. The timeout bounds each
// dispatch call; the SMS provider is the slowest external dependency on the
// issue path.
func NewTwilioGateway(accountSID, authToken, from string, timeout time.Duration, opts ...TwilioOption) *TwilioGateway {
	g := &TwilioGateway{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		client:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (g *TwilioGateway) Send(ctx context.Context, to id.PhoneNumber, body string) (MessageID, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.baseURL, g.accountSID)

	form := url.Values{
		"To":   {string(to)},
		"From": {g.from},
		"Body": {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.accountSID, g.authToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	var parsed twilioResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("%w: parse response: %v", ErrDispatchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: twilio status %d code %d: %s",
			ErrDispatchFailed, resp.StatusCode, parsed.Code, parsed.Message)
	}
	return MessageID(parsed.SID), nil
}
