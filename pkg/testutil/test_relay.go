package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/clients/mpcSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/relay"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/server"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner/inMemoryTransportSigner"
)

var (
	TestRelayAccount  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	TestSignerAccount = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// TestRelay is a relay served over HTTP, backed by a stub signing service
// reached through the real mpcSigner HTTP client.
type TestRelay struct {
	Relay     *relay.Relay
	Store     persistence.IRelayPersistence
	Stub      *mpcSigner.StubSigningService
	Owner     *inMemoryTransportSigner.InMemoryTransportSigner
	Caller    *inMemoryTransportSigner.InMemoryTransportSigner
	URL       string
	SignerURL string

	relayServer   *httptest.Server
	signingServer *httptest.Server
	logger        *zap.Logger
}

// TestRelayOptions customizes NewTestRelay
type TestRelayOptions struct {
	// Store defaults to in-memory persistence
	Store       persistence.IRelayPersistence
	SignTimeout time.Duration
	Owner       *inMemoryTransportSigner.InMemoryTransportSigner
	Caller      *inMemoryTransportSigner.InMemoryTransportSigner
}

// NewTestRelay starts a signing service and a relay server. Both are closed on test cleanup.
func NewTestRelay(t *testing.T, opts *TestRelayOptions) *TestRelay {
	t.Helper()
	if opts == nil {
		opts = &TestRelayOptions{}
	}

	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	stub, err := mpcSigner.NewStubSigningService()
	if err != nil {
		t.Fatalf("Failed to create stub signing service: %v", err)
	}
	signingServer := NewSigningServiceServer(stub)

	signer, err := mpcSigner.NewClient(&mpcSigner.Config{
		BaseURL:      signingServer.URL,
		RelayAccount: TestRelayAccount,
	}, l)
	if err != nil {
		signingServer.Close()
		t.Fatalf("Failed to create signing service client: %v", err)
	}

	tr := &TestRelay{
		Store:         opts.Store,
		Stub:          stub,
		Owner:         opts.Owner,
		Caller:        opts.Caller,
		SignerURL:     signingServer.URL,
		signingServer: signingServer,
		logger:        l,
	}
	if tr.Store == nil {
		tr.Store = memory.NewMemoryPersistence()
	}
	if tr.Owner == nil {
		tr.Owner = CreateTestSigner(t, l)
	}
	if tr.Caller == nil {
		tr.Caller = CreateTestSigner(t, l)
	}

	tr.Relay, err = relay.NewRelay(&relay.Config{
		RelayAccount:     TestRelayAccount,
		SignerAccount:    TestSignerAccount,
		Owner:            tr.Owner.Address(),
		AuthorizedCaller: tr.Caller.Address(),
		SignTimeout:      opts.SignTimeout,
	}, signer, tr.Store, l)
	if err != nil {
		signingServer.Close()
		t.Fatalf("Failed to create relay: %v", err)
	}

	tr.relayServer = httptest.NewServer(server.NewServer(tr.Relay, tr.Store, 0, l).GetHandler())
	tr.URL = tr.relayServer.URL
	l.Sugar().Debugw("Started test relay", "url", tr.URL, "signer_url", tr.SignerURL)

	t.Cleanup(tr.Close)
	return tr
}

// Close shuts down both servers. Safe to call more than once.
func (tr *TestRelay) Close() {
	tr.relayServer.Close()
	tr.signingServer.Close()
}
