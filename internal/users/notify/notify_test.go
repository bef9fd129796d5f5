// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	sent     []*mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeClient) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	return f.response, f.err
}

func TestSendGridNotifier(t *testing.T) {
	expires := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	t.Run("accepted", func(t *testing.T) {
		client := &fakeClient{response: &rest.Response{StatusCode: 202}}
		notifier := newSendGridNotifier(client, "Storefront", "no-reply@storefront.shop")

		require.NoError(t, notifier.SendResetCode(context.Background(), "user@example.com", "004821", expires))
		require.Len(t, client.sent, 1)

		message := client.sent[0]
		assert.Equal(t, "no-reply@storefront.shop", message.From.Address)
		require.Len(t, message.Personalizations, 1)
		assert.Equal(t, "user@example.com", message.Personalizations[0].To[0].Address)
		assert.Contains(t, message.Content[0].Value, "004821")
	})

	t.Run("rejected", func(t *testing.T) {
		client := &fakeClient{response: &rest.Response{StatusCode: 401, Body: "bad key"}}
		notifier := newSendGridNotifier(client, "Storefront", "no-reply@storefront.shop")

		err := notifier.SendResetCode(context.Background(), "user@example.com", "004821", expires)
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("transport", func(t *testing.T) {
		client := &fakeClient{err: errors.New("dial tcp: timeout")}
		notifier := newSendGridNotifier(client, "Storefront", "no-reply@storefront.shop")

		err := notifier.SendResetCode(context.Background(), "user@example.com", "004821", expires)
		assert.ErrorContains(t, err, "notify_sendgrid_send_failed")
	})
}

func TestLogNotifier_DoesNotLogCode(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, notifier.SendResetCode(context.Background(), "user@example.com", "004821", time.Now()))
	assert.Contains(t, buf.String(), "reset_code_delivery_skipped")
	assert.NotContains(t, buf.String(), "004821")
}
