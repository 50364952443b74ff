package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/clients/mpcSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// NewSigningServiceServer serves POST /sign from stub, speaking the same wire
// format the mpcSigner HTTP client sends. The dispatch index is not on the
// wire, so stub index-based failures do not apply; use path-based ones.
func NewSigningServiceServer(stub *mpcSigner.StubSigningService) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/sign", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body mpcSigner.SignCallBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := stub.Sign(r.Context(), &types.SignCall{
			Index:     -1,
			Target:    common.HexToAddress(r.Header.Get(mpcSigner.HeaderSignerAccount)),
			StaticGas: budget.Gas(body.StaticGas),
			Deposit:   body.Deposit,
			Request:   body.Request,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	return httptest.NewServer(mux)
}
