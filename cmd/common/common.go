// Package common provides shared utilities for the ledger CLI
// commands: key loading and generation, attestation provider and
// measurement source factories, and a signed-POST helper for talking
// to a running gateway.
package common

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/services"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/tdx"
)

// LoadOrGenerateSigningKey loads an Ed25519 private key from a hex
// string, or generates a new key pair if hexKey is empty.
func LoadOrGenerateSigningKey(hexKey string) (crypto.PrivateKey, error) {
	if hexKey != "" {
		keyBytes, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return crypto.NewPrivateKeyFromBytes(keyBytes), nil
	}
	_, privKey, err := crypto.GenerateKeyPair()
	return privKey, err
}

// LoadPublicKey parses a hex-encoded Ed25519 public key.
func LoadPublicKey(hexKey string) (crypto.PublicKey, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("missing public key")
	}
	return crypto.NewPublicKeyFromString(hexKey)
}

// NewAttestationProvider creates a TEE provider based on configuration
// flags. Returns TDXProvider or RemoteDCAPProvider when useTDX is true,
// otherwise returns DummyProvider for testing.
func NewAttestationProvider(useTDX bool, remoteTDXURL string) services.TEEProvider {
	if useTDX {
		if remoteTDXURL != "" {
			return &tdx.RemoteDCAPProvider{URL: remoteTDXURL, Timeout: 30 * time.Second}
		}
		return &tdx.TDXProvider{}
	}
	return &tdx.DummyProvider{}
}

// NewMeasurementSource creates a measurement source from a URL.
// Returns nil if measurementsURL is empty, indicating no measurement
// verification should be performed.
func NewMeasurementSource(measurementsURL string) services.MeasurementSource {
	if measurementsURL != "" {
		return services.NewRemoteMeasurementSource(measurementsURL)
	}
	return nil
}

// SignedPost signs obj with key, posts the envelope to url, and decodes
// the JSON response into out (skipped when out is nil).
func SignedPost[T any](client *http.Client, url string, key crypto.PrivateKey, obj *T, out any) error {
	signed, err := protocol.NewSigned(key, obj)
	if err != nil {
		return err
	}

	body, err := json.Marshal(signed)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
