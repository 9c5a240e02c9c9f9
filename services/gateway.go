package services

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	Protocol *protocol.Protocol
	// Store is optional; without it the results endpoint reports no
	// persisted outcomes.
	Store ResultStore
	// AttestationProvider and MeasurementSource gate oracle
	// registration. With a nil provider, registrations are accepted
	// without attestation checks (demo deployments).
	AttestationProvider TEEProvider
	MeasurementSource   MeasurementSource
}

// Gateway exposes every ledger operation over HTTP. Role-gated
// operations arrive as signed envelopes and the recovered signer is
// handed to the ledger's guards; the oracle callback is deliberately
// unauthenticated, its proof is checked inside the ledger.
type Gateway struct {
	config *GatewayConfig

	mu               sync.RWMutex
	registeredOracle *OracleRegistrationRequest
}

// NewGateway creates a gateway for the given ledger.
func NewGateway(config *GatewayConfig) (*Gateway, error) {
	if config == nil || config.Protocol == nil {
		return nil, errors.New("gateway requires a protocol instance")
	}
	return &Gateway{config: config}, nil
}

// RegisterRoutes registers the gateway's HTTP routes.
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/admin/transfer-ownership", g.handleTransferOwnership)
	r.Post("/admin/providers/add", g.handleAddProvider)
	r.Post("/admin/providers/remove", g.handleRemoveProvider)
	r.Post("/admin/pause", g.handlePause)
	r.Post("/admin/unpause", g.handleUnpause)
	r.Post("/admin/cooldown", g.handleSetCooldown)
	r.Post("/admin/batches/open", g.handleOpenBatch)
	r.Post("/admin/batches/close", g.handleCloseBatch)
	r.Post("/admin/decrypt", g.handleDecrypt)

	r.Post("/submissions", g.handleSubmit)

	r.Post("/oracle/result", g.handleOracleResult)
	r.Post("/oracle/register", g.handleOracleRegister)

	r.Get("/status", g.handleStatus)
	r.Get("/batches/{batch_id}", g.handleGetBatch)
	r.Get("/batches/{batch_id}/results", g.handleGetResults)
	r.Get("/requests/{request_id}", g.handleGetRequest)
}

// recoverSigned decodes a signed envelope from the request body and
// verifies its signature. On failure the HTTP error has already been
// written.
func recoverSigned[T any](w http.ResponseWriter, r *http.Request) (*T, crypto.PublicKey, bool) {
	var signed protocol.Signed[T]
	if err := json.NewDecoder(r.Body).Decode(&signed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	obj, signer, err := signed.Recover()
	if err != nil {
		http.Error(w, fmt.Errorf("invalid signature: %w", err).Error(), http.StatusForbidden)
		return nil, nil, false
	}
	return obj, signer, true
}

// writeLedgerError maps the ledger's error taxonomy onto HTTP statuses:
// authorization failures are 403, lifecycle and integrity conflicts are
// 409, rate limiting is 429, malformed input is 400.
func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, protocol.ErrNotOwner),
		errors.Is(err, protocol.ErrNotProvider),
		errors.Is(err, protocol.ErrInvalidProof):
		status = http.StatusForbidden
	case errors.Is(err, protocol.ErrZeroIdentity),
		errors.Is(err, protocol.ErrInvalidCooldown),
		errors.Is(err, protocol.ErrCleartextLength),
		errors.Is(err, protocol.ErrCleartextFlag):
		status = http.StatusBadRequest
	case errors.Is(err, protocol.ErrPaused),
		errors.Is(err, protocol.ErrAlreadyPaused),
		errors.Is(err, protocol.ErrNotPaused),
		errors.Is(err, protocol.ErrBatchClosedOrInvalid),
		errors.Is(err, protocol.ErrStateMismatch),
		errors.Is(err, protocol.ErrReplayDetected),
		errors.Is(err, protocol.ErrDuplicateRequestID):
		status = http.StatusConflict
	case errors.Is(err, protocol.ErrCooldownActive):
		status = http.StatusTooManyRequests
	}
	http.Error(w, err.Error(), status)
}

func (g *Gateway) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[TransferOwnershipRequest](w, r)
	if !ok {
		return
	}

	newOwner, err := crypto.NewPublicKeyFromString(req.NewOwner)
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}

	if err := g.config.Protocol.TransferOwnership(signer, newOwner); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleAddProvider(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[ProviderRequest](w, r)
	if !ok {
		return
	}

	provider, err := crypto.NewPublicKeyFromString(req.Provider)
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}

	if err := g.config.Protocol.AddProvider(signer, provider); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleRemoveProvider(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[ProviderRequest](w, r)
	if !ok {
		return
	}

	provider, err := crypto.NewPublicKeyFromString(req.Provider)
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}

	if err := g.config.Protocol.RemoveProvider(signer, provider); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handlePause(w http.ResponseWriter, r *http.Request) {
	_, signer, ok := recoverSigned[PauseRequest](w, r)
	if !ok {
		return
	}

	if err := g.config.Protocol.Pause(signer); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleUnpause(w http.ResponseWriter, r *http.Request) {
	_, signer, ok := recoverSigned[UnpauseRequest](w, r)
	if !ok {
		return
	}

	if err := g.config.Protocol.Unpause(signer); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleSetCooldown(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[CooldownRequest](w, r)
	if !ok {
		return
	}

	cooldown := time.Duration(req.CooldownSeconds) * time.Second
	if err := g.config.Protocol.SetCooldown(signer, cooldown); err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleOpenBatch(w http.ResponseWriter, r *http.Request) {
	_, signer, ok := recoverSigned[OpenBatchRequest](w, r)
	if !ok {
		return
	}

	batchID, err := g.config.Protocol.OpenBatch(signer)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OpenBatchResponse{BatchID: batchID})
}

func (g *Gateway) handleCloseBatch(w http.ResponseWriter, r *http.Request) {
	_, signer, ok := recoverSigned[CloseBatchRequest](w, r)
	if !ok {
		return
	}

	batchID, err := g.config.Protocol.CloseBatch(signer)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&CloseBatchResponse{BatchID: batchID})
}

func (g *Gateway) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[DecryptRequest](w, r)
	if !ok {
		return
	}

	requestID, err := g.config.Protocol.RequestDecryption(r.Context(), signer, req.BatchID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&DecryptResponse{RequestID: requestID})
}

func (g *Gateway) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, signer, ok := recoverSigned[SubmitRequest](w, r)
	if !ok {
		return
	}

	index, err := g.config.Protocol.Submit(signer, req.BatchID, req.DeltaHandle, req.FlagHandle)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&SubmitResponse{BatchID: req.BatchID, Index: index})
}

func (g *Gateway) handleOracleResult(w http.ResponseWriter, r *http.Request) {
	var req OracleCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := g.config.Protocol.HandleDecryptionResult(req.RequestID, req.Cleartexts, crypto.NewSignature(req.Proof))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

func (g *Gateway) handleOracleRegister(w http.ResponseWriter, r *http.Request) {
	var signed protocol.Signed[OracleRegistrationRequest]
	if err := json.NewDecoder(r.Body).Decode(&signed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := VerifyOracleRegistration(g.config.MeasurementSource, g.config.AttestationProvider, &signed); err != nil {
		http.Error(w, fmt.Sprintf("attestation verification failed: %v", err), http.StatusForbidden)
		return
	}

	req := signed.UnsafeObject()
	if req.PublicKey != g.config.Protocol.OraclePublicKey().String() {
		http.Error(w, "oracle key does not match ledger configuration", http.StatusForbidden)
		return
	}

	g.mu.Lock()
	g.registeredOracle = req
	g.mu.Unlock()

	json.NewEncoder(w).Encode(&OperationResponse{Success: true})
}

// RegisteredOracle returns the most recent verified oracle
// registration, if any.
func (g *Gateway) RegisteredOracle() (OracleRegistrationRequest, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.registeredOracle == nil {
		return OracleRegistrationRequest{}, false
	}
	return *g.registeredOracle, true
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	proto := g.config.Protocol
	instanceID := proto.InstanceID()

	json.NewEncoder(w).Encode(&StatusResponse{
		InstanceID:      hex.EncodeToString(instanceID[:]),
		Owner:           proto.Owner().String(),
		Paused:          proto.IsPaused(),
		CooldownSeconds: uint64(proto.Cooldown() / time.Second),
		BatchCount:      proto.BatchCount(),
		PendingRequests: proto.PendingRequests(),
	})
}

func (g *Gateway) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseUint(chi.URLParam(r, "batch_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}

	batch, ok := g.config.Protocol.Batch(batchID)
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}

	digest := g.config.Protocol.BatchDigest(batchID)
	json.NewEncoder(w).Encode(&BatchResponse{
		Batch:       batch,
		Submissions: g.config.Protocol.Submissions(batchID),
		Digest:      hex.EncodeToString(digest[:]),
	})
}

func (g *Gateway) handleGetResults(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseUint(chi.URLParam(r, "batch_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}

	resp := &ResultsResponse{}
	if g.config.Store != nil {
		records, err := g.config.Store.LoadDecryptions(batchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Results = records
	}
	json.NewEncoder(w).Encode(resp)
}

func (g *Gateway) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	dctx, ok := g.config.Protocol.Request(chi.URLParam(r, "request_id"))
	if !ok {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(&RequestStatusResponse{Context: dctx})
}
