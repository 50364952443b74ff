package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/relay"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// handleRequestSignatures handles the /signatures endpoint
func (s *Server) handleRequestSignatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(r.Context())

	var payload types.RequestSignaturesPayload
	caller, err := s.readSignedPayload(w, r, &payload, func() (string, int64) { return payload.Nonce, payload.IssuedAt })
	if err != nil {
		return
	}

	s.logger.Sugar().Infow("Received signature request",
		"request_id", reqID,
		"caller", caller.Hex(),
		"requests", len(payload.Requests),
		"prepaid_gas", payload.PrepaidGas,
	)

	handle, err := s.relay.RequestSignatures(r.Context(), caller, budget.Gas(payload.PrepaidGas), payload.Requests)
	if err != nil {
		s.logger.Sugar().Warnw("Signature request rejected", "request_id", reqID, "caller", caller.Hex(), "error", err)
		writeError(w, statusForRelayError(err), err.Error())
		return
	}

	batch, err := handle.Wait(r.Context())
	if err != nil {
		s.logger.Sugar().Warnw("Stopped waiting for signature batch", "request_id", reqID, "error", err)
		writeError(w, http.StatusGatewayTimeout, "signature batch did not complete before the request ended")
		return
	}

	successful, failed := batch.Counts()
	writeJSON(w, http.StatusOK, &types.RequestSignaturesResponse{
		RequestID:  reqID,
		Results:    batch,
		Total:      len(batch),
		Successful: successful,
		Failed:     failed,
	})
}

// handleUpdateAuthorizedCaller handles the /admin/authorized-caller endpoint
func (s *Server) handleUpdateAuthorizedCaller(w http.ResponseWriter, r *http.Request) {
	s.handleIdentityUpdate(w, r, "authorized_caller", s.relay.UpdateAuthorizedCaller)
}

// handleUpdateOwner handles the /admin/owner endpoint
func (s *Server) handleUpdateOwner(w http.ResponseWriter, r *http.Request) {
	s.handleIdentityUpdate(w, r, "owner", s.relay.UpdateOwner)
}

func (s *Server) handleIdentityUpdate(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	update func(caller, next common.Address) error,
) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload types.UpdateIdentityPayload
	caller, err := s.readSignedPayload(w, r, &payload, func() (string, int64) { return payload.Nonce, payload.IssuedAt })
	if err != nil {
		return
	}

	if err := update(caller, payload.NewIdentity); err != nil {
		s.logger.Sugar().Warnw("Identity update rejected",
			"request_id", requestID(r.Context()),
			"identity", name,
			"caller", caller.Hex(),
			"error", err,
		)
		writeError(w, statusForRelayError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.configResponse())
}

// handleGetConfig handles the /config endpoint
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.configResponse())
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.store.HealthCheck(); err != nil {
		s.logger.Sugar().Errorw("Health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) configResponse() *types.ConfigResponse {
	ids := s.relay.Identities()
	return &types.ConfigResponse{
		RelayAccount:     s.relay.RelayAccount(),
		SignerAccount:    ids.SignerAccount,
		Owner:            ids.Owner,
		AuthorizedCaller: ids.AuthorizedCaller,
	}
}

// readSignedPayload decodes a SignedMessage, recovers its signer, decodes the
// payload into out, checks its freshness and consumes its nonce. On error the
// response is already written.
func (s *Server) readSignedPayload(
	w http.ResponseWriter,
	r *http.Request,
	out any,
	freshness func() (nonce string, issuedAt int64),
) (common.Address, error) {
	var msg transportSigner.SignedMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return common.Address{}, err
	}

	caller, err := transportSigner.RecoverSigner(&msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid signature: %v", err))
		return common.Address{}, err
	}

	if err := json.Unmarshal(msg.Payload, out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse payload: %v", err))
		return common.Address{}, err
	}

	nonce, issuedAt := freshness()
	if nonce == "" {
		writeError(w, http.StatusBadRequest, "nonce is required")
		return common.Address{}, fmt.Errorf("missing nonce")
	}
	if err := s.nonces.use(caller, nonce, time.Unix(issuedAt, 0)); err != nil {
		s.logger.Sugar().Warnw("Rejected signed payload",
			"request_id", requestID(r.Context()),
			"signer", caller.Hex(),
			"issued_at", issuedAt,
			"error", err,
		)
		status := http.StatusConflict
		if errors.Is(err, errStalePayload) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err.Error())
		return common.Address{}, err
	}

	return caller, nil
}

func statusForRelayError(err error) int {
	switch {
	case errors.Is(err, relay.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, relay.ErrInsufficientGas):
		return http.StatusPaymentRequired
	case errors.Is(err, relay.ErrInvalidPayload), errors.Is(err, relay.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrNotOwner), errors.Is(err, relay.ErrPrivateMethod):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &types.ErrorResponse{Error: msg})
}
