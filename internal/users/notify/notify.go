// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers out-of-band messages (password recovery codes) to users.

Implementations:

  - SendGridNotifier: transactional email through the SendGrid v3 API.
  - LogNotifier: writes the event to the structured log without the code,
    used when no mail provider is configured.
*/
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends recovery codes.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// # Log Notifier

// LogNotifier records that a code was issued. The code itself is never logged.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendResetCode implements [Notifier].
func (notifier *LogNotifier) SendResetCode(ctx context.Context, email, _ string, expiresAt time.Time) error {
	notifier.logger.InfoContext(ctx, "reset_code_delivery_skipped",
		slog.String("email", email),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

// # SendGrid Notifier

// mailClient is the subset of [sendgrid.Client] used here.
type mailClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier emails codes through SendGrid.
type SendGridNotifier struct {
	client   mailClient
	from     *mail.Email
	appName  string
	location *time.Location
}

// NewSendGridNotifier constructs a [SendGridNotifier] for the given API key.
func NewSendGridNotifier(apiKey, fromName, fromEmail string) *SendGridNotifier {
	return newSendGridNotifier(sendgrid.NewSendClient(apiKey), fromName, fromEmail)
}

func newSendGridNotifier(client mailClient, fromName, fromEmail string) *SendGridNotifier {
	return &SendGridNotifier{
		client:   client,
		from:     mail.NewEmail(fromName, fromEmail),
		appName:  fromName,
		location: time.UTC,
	}
}

/*
SendResetCode emails the code to the recipient.

Returns:
  - error: transport failures or any response status >= 400
*/
func (notifier *SendGridNotifier) SendResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := notifier.appName + " password reset code"
	expiry := expiresAt.In(notifier.location).Format("15:04 MST")

	plain := fmt.Sprintf("Your password reset code is %s. It expires at %s.\n\nIf you did not request a reset, ignore this email.", code, expiry)
	html := fmt.Sprintf(`<p>Your password reset code is <strong>%s</strong>.</p><p>It expires at %s.</p><p>If you did not request a reset, ignore this email.</p>`, code, expiry)

	message := mail.NewSingleEmail(notifier.from, subject, mail.NewEmail("", email), plain, html)

	response, err := notifier.client.Send(message)
	if err != nil {
		return fmt.Errorf("notify_sendgrid_send_failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify_sendgrid_rejected: status %d: %s", response.StatusCode, response.Body)
	}

	return nil
}
