package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// TEEProvider abstracts attestation generation and verification.
type TEEProvider interface {
	AttestationType() string
	Attest(reportData [64]byte) ([]byte, error)
	Verify(attestationReport []byte, expectedReportData [64]byte) (map[int][]byte, error)
}

// Measurements maps register indices to measurement values extracted
// from a verified attestation.
type Measurements map[int][]byte

// PublishedMeasurements contains attestation measurements for released
// oracle builds. Fetched from a public URL and checked against the
// measurements a registering oracle actually attests to.
//
// The file is an array of MeasurementEntry objects; each entry is one
// acceptable build. An oracle is accepted if its attestation matches
// any entry.
type PublishedMeasurements []MeasurementEntry

// MeasurementEntry represents a single acceptable build configuration.
type MeasurementEntry struct {
	MeasurementID string                   `json:"measurement_id"`
	Measurements  map[int]MeasurementValue `json:"measurements"`
}

// MeasurementValue holds an expected measurement value.
type MeasurementValue struct {
	Expected string `json:"expected"`
}

// ToMeasurements converts a MeasurementEntry to the internal format.
func (e *MeasurementEntry) ToMeasurements() (Measurements, error) {
	result := make(Measurements)
	for idx, mv := range e.Measurements {
		val, err := hex.DecodeString(mv.Expected)
		if err != nil {
			return nil, fmt.Errorf("invalid hex for index %d: %w", idx, err)
		}
		result[idx] = val
	}
	return result, nil
}

// MeasurementSource provides expected measurements for attestation
// verification.
type MeasurementSource interface {
	// GetAllowedMeasurements returns all acceptable measurement sets.
	GetAllowedMeasurements() (PublishedMeasurements, error)
}

// StaticMeasurementSource provides measurements from a static
// configuration. Useful for testing and demo deployments where oracle
// measurements are known in advance or when using dummy attestation.
type StaticMeasurementSource struct {
	Measurements PublishedMeasurements
}

// NewStaticMeasurementSource creates a source with predefined measurements.
func NewStaticMeasurementSource(measurements PublishedMeasurements) *StaticMeasurementSource {
	return &StaticMeasurementSource{Measurements: measurements}
}

// DemoMeasurementSource returns a MeasurementSource that accepts dummy
// attestations. The returned measurements match the values produced by
// tdx.DummyProvider. Only use in demo/testing environments.
func DemoMeasurementSource() *StaticMeasurementSource {
	return NewStaticMeasurementSource(PublishedMeasurements{
		{
			MeasurementID: "demo-dummy-attestation",
			Measurements: map[int]MeasurementValue{
				0: {Expected: "00"},
				1: {Expected: "01"},
				2: {Expected: "02"},
				3: {Expected: "03"},
				4: {Expected: "04"},
			},
		},
	})
}

// GetAllowedMeasurements returns the static measurement sets.
func (s *StaticMeasurementSource) GetAllowedMeasurements() (PublishedMeasurements, error) {
	return s.Measurements, nil
}

// RemoteMeasurementSource fetches measurements from a URL.
type RemoteMeasurementSource struct {
	URL        string
	HTTPClient *http.Client

	cacheTimeout time.Time
	cached       PublishedMeasurements
}

// NewRemoteMeasurementSource creates a source that fetches from a URL.
func NewRemoteMeasurementSource(url string) *RemoteMeasurementSource {
	return &RemoteMeasurementSource{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetAllowedMeasurements fetches and returns all acceptable measurement sets.
func (r *RemoteMeasurementSource) GetAllowedMeasurements() (PublishedMeasurements, error) {
	if r.cached != nil && time.Now().Before(r.cacheTimeout) {
		return r.cached, nil
	}

	published, err := r.fetchMeasurements()
	if err != nil {
		return nil, err
	}

	r.cached = published
	r.cacheTimeout = time.Now().Add(time.Hour)
	return published, nil
}

func (r *RemoteMeasurementSource) fetchMeasurements() (PublishedMeasurements, error) {
	resp, err := r.HTTPClient.Get(r.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching measurements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("measurements returned %d: %s", resp.StatusCode, body)
	}

	var pub PublishedMeasurements
	if err := json.NewDecoder(resp.Body).Decode(&pub); err != nil {
		return nil, fmt.Errorf("decoding measurements: %w", err)
	}

	return pub, nil
}

// VerifyMeasurementsMatch checks actual measurements against the
// published allowed sets, returning the matching entry.
func VerifyMeasurementsMatch(
	publishedAllowedMeasurements PublishedMeasurements,
	actualMeasurements Measurements,
) (MeasurementEntry, error) {
	for _, entry := range publishedAllowedMeasurements {
		matches := true
		for idx, expectedVal := range entry.Measurements {
			actualVal, ok := actualMeasurements[idx]
			if !ok {
				matches = false
				break
			}
			if expectedVal.Expected != hex.EncodeToString(actualVal) {
				matches = false
				break
			}
		}
		if matches {
			return entry, nil
		}
	}

	return MeasurementEntry{}, errors.New("measurements do not match any allowed set")
}

// ReportDataForOracle computes the attestation report data binding the
// oracle's identity: its signing key and callback endpoint. An
// attestation over this data proves the key lives inside the attested
// enclave.
func ReportDataForOracle(httpEndpoint string, pubKey crypto.PublicKey) []byte {
	hash := sha256.New()
	hash.Write([]byte(httpEndpoint))
	hash.Write(pubKey.Bytes())
	return hash.Sum(nil)
}

// AttestOracleRegistration generates attestation evidence for an
// oracle's registration request.
func AttestOracleRegistration(attestationProvider TEEProvider, r *OracleRegistrationRequest) ([]byte, error) {
	if attestationProvider == nil {
		return nil, nil
	}
	pubKey, err := crypto.NewPublicKeyFromString(r.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	var reportData [64]byte
	copy(reportData[:], ReportDataForOracle(r.HTTPEndpoint, pubKey))
	return attestationProvider.Attest(reportData)
}

// VerifyOracleRegistration verifies a signed oracle registration: the
// envelope signature must match the claimed key, and the attestation
// must bind that key and check out against the allowed measurements.
func VerifyOracleRegistration(source MeasurementSource, attestationProvider TEEProvider,
	signed *protocol.Signed[OracleRegistrationRequest]) (Measurements, error) {

	req, signer, err := signed.Recover()
	if err != nil {
		return nil, err
	}
	if signer.String() != req.PublicKey {
		return nil, errors.New("signer does not match claimed public key")
	}

	pubKey, err := crypto.NewPublicKeyFromString(req.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	if attestationProvider == nil {
		return nil, nil
	}
	if len(req.Attestation) == 0 {
		return nil, errors.New("no attestation data")
	}

	var reportData [64]byte
	copy(reportData[:], ReportDataForOracle(req.HTTPEndpoint, pubKey))
	measurements, err := attestationProvider.Verify(req.Attestation, reportData)
	if err != nil {
		return nil, fmt.Errorf("could not verify attestation: %w", err)
	}

	if source != nil {
		allowedMeasurements, err := source.GetAllowedMeasurements()
		if err != nil {
			return nil, fmt.Errorf("could not fetch allowed measurements: %w", err)
		}

		_, err = VerifyMeasurementsMatch(allowedMeasurements, measurements)
		if err != nil {
			return nil, fmt.Errorf("attestation is not allowed: %w", err)
		}
	}

	return measurements, nil
}
