package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/walk2school/rewards-backend/internal/core/port"
)

//go:embed templates/reset_email.html
var templateFS embed.FS

var resetTemplate = template.Must(template.ParseFS(templateFS, "templates/reset_email.html"))

// ResetEmailBuilder renders password-reset messages against a configured
// sender identity and reset landing page.
type ResetEmailBuilder struct {
	from         string
	fromName     string
	resetBaseURL string
	expiryMins   int
}

func NewResetEmailBuilder(from, fromName, resetBaseURL string, expiryMins int) *ResetEmailBuilder {
	return &ResetEmailBuilder{
		from:         from,
		fromName:     fromName,
		resetBaseURL: resetBaseURL,
		expiryMins:   expiryMins,
	}
}

// Build renders the reset message for the given recipient and token.
func (b *ResetEmailBuilder) Build(recipient, username, token string) (port.Message, error) {
	resetURL := fmt.Sprintf("%s?token=%s", b.resetBaseURL, url.QueryEscape(token))

	var html bytes.Buffer
	err := resetTemplate.Execute(&html, struct {
		Username      string
		ResetURL      string
		ExpiryMinutes int
	}{
		Username:      username,
		ResetURL:      resetURL,
		ExpiryMinutes: b.expiryMins,
	})
	if err != nil {
		return port.Message{}, fmt.Errorf("render reset email: %w", err)
	}

	text := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your Walk 2 School password. "+
			"Open the link below within the next %d minutes to choose a new password:\n\n%s\n\n"+
			"If you did not ask for a reset, you can safely ignore this email.\n",
		username, b.expiryMins, resetURL,
	)

	return port.Message{
		To:       recipient,
		From:     b.from,
		FromName: b.fromName,
		Subject:  "Reset your Walk 2 School password",
		Text:     text,
		HTML:     html.String(),
	}, nil
}
