package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/logger"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridMailer delivers mail through the SendGrid v3 JSON API.
type SendGridMailer struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewSendGridMailer constructs a mailer using the provided API key.
func NewSendGridMailer(apiKey string, log *zap.Logger) *SendGridMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGridMailer{
		apiKey:   apiKey,
		endpoint: sendGridEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// Send posts the message to SendGrid. Any non-2xx response is an error.
func (m *SendGridMailer) Send(ctx context.Context, msg port.Message) error {
	content := make([]sendGridContent, 0, 2)
	if msg.Text != "" {
		content = append(content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		content = append(content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}
	if len(content) == 0 {
		return fmt.Errorf("message has no content")
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{
			{To: []sendGridAddress{{Email: msg.To}}},
		},
		From:    sendGridAddress{Email: msg.From, Name: msg.FromName},
		Subject: msg.Subject,
		Content: content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		m.log.Warn("sendgrid rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("recipient", logger.MaskEmail(msg.To)),
		)
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, detail)
	}

	m.log.Info("mail accepted",
		zap.String("recipient", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	)

	return nil
}

var _ port.Mailer = (*SendGridMailer)(nil)
