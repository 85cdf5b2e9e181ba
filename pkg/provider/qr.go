package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"academic-auth-be/pkg/processing"
)

const CredentialType = "academic_credential"

// TextQRDecoder interprets QR text already decoded by the client camera: a
// JSON credential document or a verification URL.
type TextQRDecoder struct{}

func (TextQRDecoder) Decode(_ context.Context, raw string) (processing.QRPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return processing.QRPayload{}, fmt.Errorf("%w: empty", ErrUndecodablePayload)
	}

	if strings.HasPrefix(raw, "{") {
		var p processing.QRPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return processing.QRPayload{}, fmt.Errorf("%w: %v", ErrUndecodablePayload, err)
		}
		if p.Type == "" {
			p.Type = CredentialType
		}
		if p.DocumentID == "" && p.VerificationURL != "" {
			p.DocumentID = documentIDFromURL(p.VerificationURL)
		}
		return p, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return processing.QRPayload{}, fmt.Errorf("%w: not a credential document or verification URL", ErrUndecodablePayload)
	}
	return processing.QRPayload{
		Type:            CredentialType,
		DocumentID:      documentIDFromURL(raw),
		VerificationURL: raw,
	}, nil
}

func documentIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	if id == "." || id == "/" {
		return ""
	}
	return id
}
