// Package paste decodes image payloads as delivered by editor paste
// integrations: raw base64 or data URLs, with a declared (and often wrong or
// missing) MIME type.
package paste

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NormalizeMime normalizes MIME to lowercase token form, dropping parameters.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if mime == "" {
		return ""
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// MimeFromDataURL extracts the MIME type from a data URL, or "" when the
// value is not a data URL.
func MimeFromDataURL(raw string) string {
	value := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(value), "data:") {
		return ""
	}
	rest := value[len("data:"):]
	if idx := strings.IndexAny(rest, ";,"); idx >= 0 {
		return NormalizeMime(rest[:idx])
	}
	return ""
}

// Decode decodes raw base64 or data-URL base64 content, enforcing maxBytes.
func Decode(input string, maxBytes int64) ([]byte, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return nil, fmt.Errorf("base64 payload is empty")
	}
	if strings.HasPrefix(strings.ToLower(value), "data:") {
		idx := strings.Index(value, ",")
		if idx < 0 {
			return nil, fmt.Errorf("data url has no payload")
		}
		value = value[idx+1:]
	}

	decoder := base64.NewDecoder(base64.StdEncoding, strings.NewReader(value))
	content, err := io.ReadAll(io.LimitReader(decoder, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	if int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", maxBytes)
	}
	return content, nil
}

// ResolveMime picks the MIME type for a decoded payload: a declared image
// type wins, otherwise the content is sniffed.
func ResolveMime(declared string, content []byte) string {
	mime := NormalizeMime(declared)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}

	header := content
	if len(header) > 512 {
		header = header[:512]
	}
	if len(header) > 0 {
		if sniffed := NormalizeMime(http.DetectContentType(header)); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return mime
}
