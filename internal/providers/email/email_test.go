package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPaymentRejected(t *testing.T) {
	msg, err := Render(TemplatePaymentRejected, "r@example.com", map[string]any{
		"ResellerName": "Rina",
		"CustomerName": "Budi",
		"PackageName":  "Paket Uang",
		"Weeks":        "1, 2",
		"Amount":       "200000",
		"Note":         "<script>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r@example.com"}, msg.To)
	assert.Equal(t, "Pembayaran ditolak", msg.Subject)
	assert.Contains(t, msg.HTML, "Budi")
	assert.NotContains(t, msg.HTML, "<script>")

	_, err = Render("missing", "r@example.com", nil)
	assert.Error(t, err)
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotBody []byte
	sender := NewSMTP(Config{Host: "mail.local", Port: 2525, FromAddress: "no-reply@cicilan.local", FromName: "Cicilan"})
	sender.send = func(addr string, _ smtp.Auth, from string, _ []string, msg []byte) error {
		gotAddr, gotFrom, gotBody = addr, from, msg
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "no-reply@cicilan.local", gotFrom)
	body := string(gotBody)
	assert.True(t, strings.HasPrefix(body, "From: Cicilan <no-reply@cicilan.local>\r\n"))
	assert.Contains(t, body, "To: a@b.c\r\n")
	assert.True(t, strings.HasSuffix(body, "<p>x</p>"))

	assert.Error(t, sender.Send(context.Background(), Message{}))
}
