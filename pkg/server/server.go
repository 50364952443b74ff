package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/relay"
)

/*
Server exposes the relay over HTTP.

Signature Request Flow:
  POST /signatures:
    - Body: SignedMessage{ payload, hash, signature }, payload = { requests, prepaid_gas, nonce }
    - Caller = address recovered from the secp256k1 signature over keccak256(payload)
    - Admission (authorized caller, then gas) and payload validation happen before any sub-call
    - One sub-call per request is dispatched to the signing service
    - The response is written once every sub-call is terminal and results are reconciled
    - Response: { request_id, results, total, successful, failed }, results[i] pairs with requests[i]

Admin Flow:
  POST /admin/authorized-caller, POST /admin/owner:
    - Body: SignedMessage with payload { new_identity, nonce, issued_at }
    - Signer must be the current owner

Read-only:
  GET /config: relay account plus the three identity fields
  GET /health: persistence health

Authentication:
  - issued_at (Unix seconds) must be within replayWindow of the server clock
    and not earlier than the server's start
  - Nonces are single-use per signer while their payload is fresh
*/

const (
	maxBodyBytes = 8 << 20
	replayWindow = 10 * time.Minute
)

// Server handles HTTP requests for the relay
type Server struct {
	relay      *relay.Relay
	store      persistence.IRelayPersistence
	nonces     *nonceCache
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(r *relay.Relay, store persistence.IRelayPersistence, port int, logger *zap.Logger) *Server {
	s := &Server{
		relay:  r,
		store:  store,
		nonces: newNonceCache(replayWindow),
		logger: logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/signatures", s.handleRequestSignatures)

	// Owner-only endpoints
	mux.HandleFunc("/admin/authorized-caller", s.handleUpdateAuthorizedCaller)
	mux.HandleFunc("/admin/owner", s.handleUpdateOwner)

	mux.HandleFunc("/config", s.handleGetConfig)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           withRequestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "relay_account", s.relay.RelayAccount().Hex(), "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "relay_account", s.relay.RelayAccount().Hex(), "error", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
