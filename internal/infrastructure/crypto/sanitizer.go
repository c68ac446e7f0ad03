package crypto

import (
	"strings"

	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach storage in clear text. Keys are compared
// lower-cased.
var sensitiveKeys = map[string]bool{
	"card_number":    true,
	"number":         true,
	"cvc":            true,
	"cvv":            true,
	"pin":            true,
	"password":       true,
	"phone_number":   true,
	"account_number": true,
	"private_key":    true,
	"seed_phrase":    true,
}

// Sanitizer prepares caller payment data for storage in payment metadata.
// Sensitive values are sealed when an encryption service is configured and
// masked otherwise.
type Sanitizer struct {
	enc    EncryptionService
	logger *zap.Logger
}

// NewSanitizer creates a sanitizer; enc may be nil.
func NewSanitizer(enc EncryptionService, logger *zap.Logger) *Sanitizer {
	return &Sanitizer{enc: enc, logger: logger}
}

// Sanitize returns a copy of data with sensitive values replaced.
// Nested objects and arrays are sanitized too.
func (s *Sanitizer) Sanitize(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			out[key] = s.sanitizeValue(value)
			continue
		}
		if !sensitiveKeys[strings.ToLower(key)] {
			out[key] = value
			continue
		}
		out[key] = s.protect(key, value)
	}
	return out
}

func (s *Sanitizer) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return s.Sanitize(v)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = s.sanitizeValue(item)
		}
		return items
	default:
		return value
	}
}

func (s *Sanitizer) protect(key string, value interface{}) interface{} {
	str, ok := value.(string)
	if !ok || str == "" {
		return redacted
	}

	if s.enc != nil {
		sealed, err := Seal(s.enc, str)
		if err == nil {
			return sealed
		}
		s.logger.Error("Failed to encrypt payment data value, masking instead",
			zap.String("key", key),
			zap.Error(err))
	}
	return mask(str)
}

// mask keeps the last four characters of values long enough to stay
// unidentifiable.
func mask(value string) string {
	if len(value) <= 6 {
		return redacted
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
