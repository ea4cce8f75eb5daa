package report

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"vstack/internal/config"
)

// Sender delivers a rendered report email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NoopSender logs the report instead of sending it. Used when the Gmail
// OAuth material is not configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, to, subject, _ string) error {
	slog.InfoContext(ctx, "Mailer not configured, skipping report email",
		"to", to,
		"subject", subject)
	return nil
}

// GmailSender sends report emails through the Gmail API using a stored
// user OAuth token (see cmd/oauth-init).
type GmailSender struct {
	svc  *gmail.Service
	from string
}

// NewSender returns a GmailSender when the OAuth material is configured
// and a NoopSender otherwise.
func NewSender(ctx context.Context, cfg *config.Config) (Sender, error) {
	if !cfg.MailerConfigured() {
		return NoopSender{}, nil
	}
	return NewGmailSender(ctx, cfg)
}

func NewGmailSender(ctx context.Context, cfg *config.Config) (*GmailSender, error) {
	clientJSON, err := readMaterial(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth client: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(clientJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	tokenJSON, err := readMaterial(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &GmailSender{svc: svc, from: cfg.ReportFrom}, nil
}

func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	raw := buildMIME(s.from, to, subject, htmlBody)
	msg := &gmail.Message{
		Raw: base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(raw),
	}

	sent, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	slog.InfoContext(ctx, "Sent report email",
		"to", to,
		"subject", subject,
		"gmail_id", sent.Id)
	return nil
}

func buildMIME(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func readMaterial(inline, file string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, errors.New("no inline JSON or file path provided")
	}
}
