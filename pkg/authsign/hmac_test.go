package authsign

import (
	"encoding/base64"
	"testing"
)

func TestSignRequestProducesDeterministicSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-secret-key"))
	creds := &APICredentials{APIKey: "key-1", Secret: secret, Passphrase: "pass-1"}
	signer := NewHMACSigner(creds)

	headers1, err := signer.SignRequest("1700000000", "POST", "/orders", []byte(`{"symbol":"BTCUSDT"}`), "account-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headers2, err := signer.SignRequest("1700000000", "POST", "/orders", []byte(`{"symbol":"BTCUSDT"}`), "account-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if headers1["X-API-SIGNATURE"] != headers2["X-API-SIGNATURE"] {
		t.Error("expected identical inputs to produce an identical signature")
	}
	if headers1["X-API-KEY"] != "key-1" {
		t.Errorf("expected API key header to be set, got %q", headers1["X-API-KEY"])
	}
	if headers1["X-API-ACCOUNT"] != "account-1" {
		t.Errorf("expected account header, got %q", headers1["X-API-ACCOUNT"])
	}
}

func TestSignRequestChangesWithBody(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-secret-key"))
	creds := &APICredentials{APIKey: "key-1", Secret: secret}
	signer := NewHMACSigner(creds)

	h1, _ := signer.SignRequest("1700000000", "POST", "/orders", []byte(`{"a":1}`), "")
	h2, _ := signer.SignRequest("1700000000", "POST", "/orders", []byte(`{"a":2}`), "")

	if h1["X-API-SIGNATURE"] == h2["X-API-SIGNATURE"] {
		t.Error("expected different bodies to produce different signatures")
	}
}

func TestSignRequestRejectsUndecodableSecret(t *testing.T) {
	creds := &APICredentials{APIKey: "key-1", Secret: "not base64!!"}
	signer := NewHMACSigner(creds)

	_, err := signer.SignRequest("1700000000", "GET", "/orders", nil, "")
	if err == nil {
		t.Error("expected an error for a secret that is valid in neither base64 alphabet")
	}
}
