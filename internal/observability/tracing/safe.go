package tracing

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var forbiddenAttributeKeys = map[attribute.Key]struct{}{
	"password":       {},
	"token":          {},
	"session_token":  {},
	"authorization":  {},
	"cookie":         {},
	"customer_name":  {},
	"reseller_email": {},
	"email":          {},
}

// SafeAttributes drops attributes that may carry credentials or personal data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := forbiddenAttributeKeys[attribute.Key(strings.ToLower(string(attr.Key)))]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to a message without SQL fragments or bound values.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, marker := range []string{"select ", "insert ", "update ", "delete ", "sqlstate", "password"} {
		if strings.Contains(lower, marker) {
			return errors.New("internal error")
		}
	}
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return errors.New(msg)
}
