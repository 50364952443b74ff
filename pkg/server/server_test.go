package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/clients/mpcSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/relay"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

var (
	testRelayAccount  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testSignerAccount = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

type testEnv struct {
	server   *Server
	store    *memory.MemoryPersistence
	stub     *mpcSigner.StubSigningService
	owner    *inMemoryTransportSigner.InMemoryTransportSigner
	caller   *inMemoryTransportSigner.InMemoryTransportSigner
	stranger *inMemoryTransportSigner.InMemoryTransportSigner
}

func newSigner(t *testing.T) *inMemoryTransportSigner.InMemoryTransportSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return inMemoryTransportSigner.NewInMemoryTransportSigner(key, zaptest.NewLogger(t))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	env := &testEnv{
		store:    memory.NewMemoryPersistence(),
		owner:    newSigner(t),
		caller:   newSigner(t),
		stranger: newSigner(t),
	}

	var err error
	env.stub, err = mpcSigner.NewStubSigningService()
	require.NoError(t, err)

	r, err := relay.NewRelay(&relay.Config{
		RelayAccount:     testRelayAccount,
		SignerAccount:    testSignerAccount,
		Owner:            env.owner.Address(),
		AuthorizedCaller: env.caller.Address(),
		SignTimeout:      time.Second,
	}, env.stub, env.store, logger)
	require.NoError(t, err)

	env.server = NewServer(r, env.store, 0, logger)
	return env
}

func signedBody(t *testing.T, signer *inMemoryTransportSigner.InMemoryTransportSigner, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	msg, err := signer.CreateAuthenticatedMessage(data)
	require.NoError(t, err)
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func (env *testEnv) post(t *testing.T, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.server.GetHandler().ServeHTTP(w, req)
	return w
}

func (env *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	env.server.GetHandler().ServeHTTP(w, req)
	return w
}

func sigRequests(n int) []types.SignRequest {
	reqs := make([]types.SignRequest, n)
	for i := range reqs {
		reqs[i] = types.SignRequest{
			Path:    fmt.Sprintf("m/%d", i),
			Payload: crypto.Keccak256([]byte(fmt.Sprintf("payload-%d", i))),
			Scheme:  types.SchemeECDSA,
		}
	}
	return reqs
}

func signaturesPayload(n int, prepaid budget.Gas) *types.RequestSignaturesPayload {
	return &types.RequestSignaturesPayload{
		Requests:   sigRequests(n),
		PrepaidGas: uint64(prepaid),
		Nonce:      uuid.NewString(),
		IssuedAt:   time.Now().Unix(),
	}
}

func TestHandleRequestSignatures(t *testing.T) {
	t.Run("Success with partial failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.stub.FailIndex(1)

		w := env.post(t, "/signatures", signedBody(t, env.caller, signaturesPayload(3, budget.Calculate(3).Total)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp types.RequestSignaturesResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.Successful)
		assert.Equal(t, 1, resp.Failed)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "m/0", resp.Results[0].Request.Path)
		assert.True(t, resp.Results[0].Result.Success)
		assert.False(t, resp.Results[1].Result.Success)
		assert.Equal(t, w.Header().Get(HeaderRequestID), resp.RequestID)
	})

	t.Run("Unauthorized caller", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.post(t, "/signatures", signedBody(t, env.stranger, signaturesPayload(1, budget.MaxGas)))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, env.stub.Calls())
	})

	t.Run("Insufficient gas", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.post(t, "/signatures", signedBody(t, env.caller, signaturesPayload(2, budget.Calculate(2).Total-1)))
		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("Invalid payload", func(t *testing.T) {
		env := newTestEnv(t)
		payload := signaturesPayload(2, budget.MaxGas)
		payload.Requests[1].Payload = make([]byte, 31)

		w := env.post(t, "/signatures", signedBody(t, env.caller, payload))
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, env.stub.Calls())
	})

	t.Run("Empty batch", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.post(t, "/signatures", signedBody(t, env.caller, signaturesPayload(0, budget.MaxGas)))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Replayed nonce", func(t *testing.T) {
		env := newTestEnv(t)
		body := signedBody(t, env.caller, signaturesPayload(1, budget.MaxGas))

		require.Equal(t, http.StatusOK, env.post(t, "/signatures", body).Code)
		require.Equal(t, http.StatusConflict, env.post(t, "/signatures", body).Code)
	})

	t.Run("Missing nonce", func(t *testing.T) {
		env := newTestEnv(t)
		payload := signaturesPayload(1, budget.MaxGas)
		payload.Nonce = ""
		require.Equal(t, http.StatusBadRequest, env.post(t, "/signatures", signedBody(t, env.caller, payload)).Code)
	})

	t.Run("Tampered envelope", func(t *testing.T) {
		env := newTestEnv(t)
		var msg transportSigner.SignedMessage
		require.NoError(t, json.Unmarshal(signedBody(t, env.caller, signaturesPayload(1, budget.MaxGas)), &msg))
		msg.Payload = []byte(`{"requests":[],"prepaid_gas":1,"nonce":"x"}`)
		body, err := json.Marshal(msg)
		require.NoError(t, err)

		require.Equal(t, http.StatusUnauthorized, env.post(t, "/signatures", body).Code)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		env := newTestEnv(t)
		require.Equal(t, http.StatusBadRequest, env.post(t, "/signatures", []byte("invalid json")).Code)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		env := newTestEnv(t)
		require.Equal(t, http.StatusMethodNotAllowed, env.get(t, "/signatures").Code)
	})
}

func TestHandleIdentityUpdates(t *testing.T) {
	t.Run("Non-owner is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		body := signedBody(t, env.caller, &types.UpdateIdentityPayload{NewIdentity: env.caller.Address(), Nonce: uuid.NewString(), IssuedAt: time.Now().Unix()})
		require.Equal(t, http.StatusForbidden, env.post(t, "/admin/owner", body).Code)
	})

	t.Run("Owner replaces authorized caller", func(t *testing.T) {
		env := newTestEnv(t)
		body := signedBody(t, env.owner, &types.UpdateIdentityPayload{NewIdentity: env.stranger.Address(), Nonce: uuid.NewString(), IssuedAt: time.Now().Unix()})
		w := env.post(t, "/admin/authorized-caller", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp types.ConfigResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, env.stranger.Address(), resp.AuthorizedCaller)

		// the old caller is rejected straight away
		w = env.post(t, "/signatures", signedBody(t, env.caller, signaturesPayload(1, budget.MaxGas)))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		w = env.post(t, "/signatures", signedBody(t, env.stranger, signaturesPayload(1, budget.MaxGas)))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Owner transfers ownership", func(t *testing.T) {
		env := newTestEnv(t)
		body := signedBody(t, env.owner, &types.UpdateIdentityPayload{NewIdentity: env.stranger.Address(), Nonce: uuid.NewString(), IssuedAt: time.Now().Unix()})
		require.Equal(t, http.StatusOK, env.post(t, "/admin/owner", body).Code)

		body = signedBody(t, env.owner, &types.UpdateIdentityPayload{NewIdentity: env.owner.Address(), Nonce: uuid.NewString(), IssuedAt: time.Now().Unix()})
		require.Equal(t, http.StatusForbidden, env.post(t, "/admin/owner", body).Code)
	})
}

func TestHandleGetConfig(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/config")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ConfigResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, testRelayAccount, resp.RelayAccount)
	assert.Equal(t, testSignerAccount, resp.SignerAccount)
	assert.Equal(t, env.owner.Address(), resp.Owner)
	assert.Equal(t, env.caller.Address(), resp.AuthorizedCaller)

	require.Equal(t, http.StatusMethodNotAllowed, env.post(t, "/config", nil).Code)
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get(t, "/health").Code)

	require.NoError(t, env.store.Close())
	require.Equal(t, http.StatusServiceUnavailable, env.get(t, "/health").Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/health")
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	require.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, id)
	w = httptest.NewRecorder()
	env.server.GetHandler().ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(HeaderRequestID))
}

func TestNonceCache_Freshness(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	now := start
	c := newNonceCache(time.Minute)
	c.notBefore = start
	c.now = func() time.Time { return now }
	signer := common.HexToAddress("0x01")

	require.NoError(t, c.use(signer, "a", now))
	assert.ErrorIs(t, c.use(signer, "a", now), errReplayedNonce)
	require.NoError(t, c.use(common.HexToAddress("0x02"), "a", now))

	// once the window has passed the nonce is forgotten, but so is the payload
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.use(signer, "a", start), errStalePayload)
	assert.Empty(t, c.seen)

	assert.ErrorIs(t, c.use(signer, "b", now.Add(2*time.Minute)), errStalePayload)
	assert.ErrorIs(t, c.use(signer, "c", start.Add(-time.Second)), errStalePayload)
	require.NoError(t, c.use(signer, "d", now.Add(-30*time.Second)))
}

func TestHandleRequestSignatures_StaleEnvelopeIsRejected(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.server.nonces.now = func() time.Time { return now }

	payload := signaturesPayload(1, budget.MaxGas)
	payload.IssuedAt = now.Unix()
	body := signedBody(t, env.caller, payload)

	require.Equal(t, http.StatusOK, env.post(t, "/signatures", body).Code)
	require.Equal(t, http.StatusConflict, env.post(t, "/signatures", body).Code)

	now = now.Add(replayWindow + time.Minute)
	w := env.post(t, "/signatures", body)
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "replay window")
	assert.Len(t, env.stub.Calls(), 1)
}

func TestHandleRequestSignatures_IssuedAtBounds(t *testing.T) {
	tests := []struct {
		name     string
		issuedAt func() int64
	}{
		{"missing", func() int64 { return 0 }},
		{"too far in the future", func() int64 { return time.Now().Add(replayWindow + time.Minute).Unix() }},
		{"before server start", func() int64 { return time.Now().Add(-time.Minute).Unix() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			payload := signaturesPayload(1, budget.MaxGas)
			payload.IssuedAt = tt.issuedAt()

			require.Equal(t, http.StatusUnauthorized, env.post(t, "/signatures", signedBody(t, env.caller, payload)).Code)
			assert.Empty(t, env.stub.Calls())
		})
	}
}

func TestHandleIdentityUpdates_StaleEnvelopeCannotRevert(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.server.nonces.now = func() time.Time { return now }

	revert := signedBody(t, env.owner, &types.UpdateIdentityPayload{
		NewIdentity: env.caller.Address(),
		Nonce:       uuid.NewString(),
		IssuedAt:    now.Unix(),
	})
	require.Equal(t, http.StatusOK, env.post(t, "/admin/authorized-caller", revert).Code)

	rotate := signedBody(t, env.owner, &types.UpdateIdentityPayload{
		NewIdentity: env.stranger.Address(),
		Nonce:       uuid.NewString(),
		IssuedAt:    now.Unix(),
	})
	require.Equal(t, http.StatusOK, env.post(t, "/admin/authorized-caller", rotate).Code)

	now = now.Add(replayWindow + time.Minute)
	require.Equal(t, http.StatusUnauthorized, env.post(t, "/admin/authorized-caller", revert).Code)
	assert.Equal(t, env.stranger.Address(), env.server.relay.Identities().AuthorizedCaller)
}
