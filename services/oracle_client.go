package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
)

// OracleDecryptRequest is the wire request dispatched to a remote
// oracle service. The callback URL tells the oracle where to deliver
// its signed answer, normally the gateway's /oracle/result endpoint.
type OracleDecryptRequest struct {
	Handles     []crypto.CiphertextHandle `json:"handles"`
	CallbackURL string                    `json:"callback_url"`
}

// OracleDecryptResponse acknowledges a dispatched request.
type OracleDecryptResponse struct {
	RequestID string `json:"request_id"`
}

// HTTPOracle dispatches decryption requests to a remote oracle service
// over HTTP. It implements the ledger's DecryptionOracle interface; the
// answer arrives later through the gateway's callback endpoint, not
// through this client.
type HTTPOracle struct {
	// URL is the oracle service's base endpoint.
	URL string
	// CallbackURL is where the oracle should deliver its answer.
	CallbackURL string
	HTTPClient  *http.Client
}

// NewHTTPOracle creates a client for a remote oracle service.
func NewHTTPOracle(url, callbackURL string) *HTTPOracle {
	return &HTTPOracle{
		URL:         url,
		CallbackURL: callbackURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Decrypt forwards the ordered handle list to the oracle service and
// returns the oracle-assigned request id.
func (o *HTTPOracle) Decrypt(ctx context.Context, handles []crypto.CiphertextHandle) (string, error) {
	body, err := json.Marshal(&OracleDecryptRequest{
		Handles:     handles,
		CallbackURL: o.CallbackURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL+"/decrypt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling oracle service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("oracle service returned status %d: %s", resp.StatusCode, msg)
	}

	var decResp OracleDecryptResponse
	if err := json.NewDecoder(resp.Body).Decode(&decResp); err != nil {
		return "", fmt.Errorf("decoding oracle response: %w", err)
	}
	if decResp.RequestID == "" {
		return "", fmt.Errorf("oracle service returned empty request id")
	}

	return decResp.RequestID, nil
}

// DeliverResult posts a signed oracle answer to a gateway callback
// endpoint. Used by oracle-side deployments to push answers back.
func DeliverResult(ctx context.Context, client *http.Client, callbackURL string,
	requestID string, cleartexts []byte, proof crypto.Signature) error {

	body, err := json.Marshal(&OracleCallbackRequest{
		RequestID:  requestID,
		Cleartexts: cleartexts,
		Proof:      proof.Bytes(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("callback returned status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
