// Package authsign signs outgoing exchange requests with the venue's HMAC
// API-key scheme, the way most REST/WS trading APIs expect.
package authsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// APICredentials holds an exchange API key/secret pair.
type APICredentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// HMACSigner signs requests using HMAC-SHA256 over timestamp+method+path+body.
type HMACSigner struct {
	creds *APICredentials
}

// NewHMACSigner creates a new HMAC signer with the given credentials.
func NewHMACSigner(creds *APICredentials) *HMACSigner {
	return &HMACSigner{creds: creds}
}

// SignRequest signs an HTTP request, returning the headers to attach to it.
func (s *HMACSigner) SignRequest(timestamp, method, path string, body []byte, account string) (map[string]string, error) {
	message := timestamp + method + path
	if len(body) > 0 {
		message += string(body)
	}

	secret, err := base64.URLEncoding.DecodeString(s.creds.Secret)
	if err != nil {
		secret, err = base64.StdEncoding.DecodeString(s.creds.Secret)
		if err != nil {
			return nil, fmt.Errorf("decode secret: %w", err)
		}
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"X-API-ACCOUNT":    account,
		"X-API-SIGNATURE":  signature,
		"X-API-TIMESTAMP":  timestamp,
		"X-API-KEY":        s.creds.APIKey,
		"X-API-PASSPHRASE": s.creds.Passphrase,
	}, nil
}
