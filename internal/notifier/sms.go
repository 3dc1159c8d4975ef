package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veriflow/identity/internal/model"
)

// SMSConfig carries SMS gateway credentials (Twilio-compatible REST API).
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	APIBaseURL string
}

// SMSSender delivers messages through the configured SMS gateway.
type SMSSender struct {
	config     SMSConfig
	httpClient *http.Client
}

func NewSMSSender(config SMSConfig) *SMSSender {
	return &SMSSender{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Sender = (*SMSSender)(nil)

// Send posts the message body to the gateway's Messages endpoint.
func (s *SMSSender) Send(ctx context.Context, destination string, message model.Message) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.config.APIBaseURL, s.config.AccountSID)

	form := url.Values{
		"To":   {destination},
		"From": {s.config.From},
		"Body": {message.Body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
