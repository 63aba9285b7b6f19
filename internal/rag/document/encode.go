package document

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Encode turns raw bytes into a Payload. Input shaped like a data URL
// (data:<mime>;base64,<data>) keeps only its data section.
func Encode(name string, raw []byte, mimeType string) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("%w: %s is empty", ErrEncoding, name)
	}

	if strings.HasPrefix(string(raw[:min(len(raw), 5)]), "data:") {
		return decodeDataURL(name, string(raw))
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	return Payload{
		Name:     name,
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
		Size:     len(raw),
	}, nil
}

func decodeDataURL(name string, s string) (Payload, error) {
	header, data, found := strings.Cut(s, ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return Payload{}, fmt.Errorf("%w: %s is not a base64 data url", ErrEncoding, name)
	}
	data = strings.TrimSpace(data)
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %v", ErrEncoding, name, err)
	}
	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	return Payload{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
		Size:     len(decoded),
	}, nil
}
