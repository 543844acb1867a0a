package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

const (
	TemplatePaymentConfirmed = "payment_confirmed"
	TemplatePaymentRejected  = "payment_rejected"
	TemplatePasswordReset    = "password_reset"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var subjects = map[string]string{
	TemplatePaymentConfirmed: "Pembayaran dikonfirmasi",
	TemplatePaymentRejected:  "Pembayaran ditolak",
	TemplatePasswordReset:    "Kata sandi Anda telah direset",
}

// Render builds a message from one of the embedded templates.
func Render(name string, to string, data any) (Message, error) {
	subject, ok := subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: []string{to}, Subject: subject, HTML: body.String()}, nil
}
