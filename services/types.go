package services

import (
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// Admin and provider requests travel wrapped in protocol.Signed; the
// recovered signer becomes the caller identity fed into the ledger's
// role guards. Public keys are hex-encoded strings, ciphertext handles
// serialize as hex via their TextMarshaler.

// TransferOwnershipRequest reassigns the owner identity.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// ProviderRequest adds or removes a data provider.
type ProviderRequest struct {
	Provider string `json:"provider"`
}

// CooldownRequest changes the rate-limit window.
type CooldownRequest struct {
	CooldownSeconds uint64 `json:"cooldown_seconds"`
}

// OpenBatchRequest opens the next batch. The body carries no
// parameters; it exists so the envelope has a distinct signed payload.
type OpenBatchRequest struct {
	Note string `json:"note,omitempty"`
}

// CloseBatchRequest closes the most recent batch.
type CloseBatchRequest struct {
	Note string `json:"note,omitempty"`
}

// PauseRequest suspends ledger writes.
type PauseRequest struct {
	Note string `json:"note,omitempty"`
}

// UnpauseRequest resumes ledger writes.
type UnpauseRequest struct {
	Note string `json:"note,omitempty"`
}

// SubmitRequest carries one encrypted submission pair.
type SubmitRequest struct {
	BatchID     uint64                  `json:"batch_id"`
	DeltaHandle crypto.CiphertextHandle `json:"delta_handle"`
	FlagHandle  crypto.CiphertextHandle `json:"flag_handle"`
}

// DecryptRequest asks for an asynchronous batch decryption.
type DecryptRequest struct {
	BatchID uint64 `json:"batch_id"`
}

// OracleCallbackRequest is the oracle's asynchronous answer. The
// endpoint accepting it is unauthenticated; the proof carries the
// authenticity.
type OracleCallbackRequest struct {
	RequestID  string `json:"request_id"`
	Cleartexts []byte `json:"cleartexts"`
	Proof      []byte `json:"proof"`
}

// OracleRegistrationRequest registers a remote oracle service together
// with its attestation evidence.
type OracleRegistrationRequest struct {
	PublicKey    string `json:"public_key"`
	HTTPEndpoint string `json:"http_endpoint"`
	Attestation  []byte `json:"attestation,omitempty"`
}

// OperationResponse confirms a state-changing request.
type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OpenBatchResponse returns the freshly opened batch id.
type OpenBatchResponse struct {
	BatchID uint64 `json:"batch_id"`
}

// CloseBatchResponse returns the closed batch id.
type CloseBatchResponse struct {
	BatchID uint64 `json:"batch_id"`
}

// SubmitResponse returns the assigned submission index.
type SubmitResponse struct {
	BatchID uint64 `json:"batch_id"`
	Index   int    `json:"index"`
}

// DecryptResponse returns the oracle-assigned request id.
type DecryptResponse struct {
	RequestID string `json:"request_id"`
}

// StatusResponse describes the ledger's current public state.
type StatusResponse struct {
	InstanceID      string `json:"instance_id"`
	Owner           string `json:"owner"`
	Paused          bool   `json:"paused"`
	CooldownSeconds uint64 `json:"cooldown_seconds"`
	BatchCount      int    `json:"batch_count"`
	PendingRequests int    `json:"pending_requests"`
}

// BatchResponse describes one batch and its submissions.
type BatchResponse struct {
	Batch       protocol.Batch        `json:"batch"`
	Submissions []protocol.Submission `json:"submissions,omitempty"`
	Digest      string                `json:"digest"`
}

// RequestStatusResponse describes one decryption request.
type RequestStatusResponse struct {
	Context protocol.DecryptionContext `json:"context"`
}

// ResultsResponse lists persisted decryption outcomes for a batch.
type ResultsResponse struct {
	Results []*DecryptionRecord `json:"results"`
}
