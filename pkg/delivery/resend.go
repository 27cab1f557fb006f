package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// Config holds delivery settings for the Resend-backed sender.
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// ResendSender delivers email codes through Resend. SMS destinations are
// handed to a secondary sender since Resend is email-only.
type ResendSender struct {
	client *resend.Client
	config *Config
	sms    CodeSender
}

// NewResendSender creates a Resend-backed code sender.
func NewResendSender(config *Config, sms CodeSender) (*ResendSender, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	return &ResendSender{
		client: resend.NewClient(config.APIKey),
		config: config,
		sms:    sms,
	}, nil
}

// SendCode delivers a verification code over the requested channel.
func (s *ResendSender) SendCode(ctx context.Context, channel Channel, destination, code string) error {
	if channel == ChannelSMS {
		return s.sms.SendCode(ctx, channel, destination, code)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{destination},
		Subject: "Your verification code",
		Html:    codeEmailTemplate(code),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	log.Printf("[DELIVERY] Verification code sent to %s (ID: %s)", destination, sent.Id)
	return nil
}
