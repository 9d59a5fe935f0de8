package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/donorchain/ledger/app/services/ledger/handlers"
	"github.com/donorchain/ledger/business/web/errs"
	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/donorchain/ledger/foundation/blockchain/state"
	"github.com/donorchain/ledger/foundation/blockchain/storage/memory"
	"github.com/donorchain/ledger/foundation/events"
	"github.com/donorchain/ledger/foundation/logger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// origin is the browser origin allowed on the public routes.
const origin = "http://localhost:3000"

type ledgerTest struct {
	t       *testing.T
	public  http.Handler
	private http.Handler
	debug   http.Handler
	state   *state.State
	strg    *memory.Memory
}

func newLedgerTest(t *testing.T) *ledgerTest {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("load key: %v", err)
	}

	signer, err := signature.NewECDSASigner(pk)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	strg := memory.New()
	st, err := state.New(state.Config{
		Storage:  strg,
		Signer:   signer,
		Verifier: signer.Verifier(),
	})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	log := logger.NewNop()
	shutdown := make(chan os.Signal, 1)

	return &ledgerTest{
		t: t,
		public: handlers.PublicMux(handlers.MuxConfig{
			Shutdown:   shutdown,
			Log:        log,
			State:      st,
			Evts:       events.New(),
			CORSOrigin: origin,
		}),
		private: handlers.PrivateMux(handlers.MuxConfig{
			Shutdown: shutdown,
			Log:      log,
			State:    st,
		}),
		debug: handlers.DebugMux("test", log, st),
		state: st,
		strg:  strg,
	}
}

func (lt *ledgerTest) call(h http.Handler, method string, path string, body any, resp any) int {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			lt.t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if resp != nil {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			lt.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}

	return w.Code
}

func donation(id string, amount string) database.Tx {
	return database.Tx{
		TransactionID: id,
		FirstName:     "Juan",
		LastName:      "Dela Cruz",
		Email:         "juan@example.com",
		Amount:        decimal.RequireFromString(amount),
		Date:          "2026-01-02",
		PaymentMethod: database.PaymentGCash,
		Status:        database.StatusCompleted,
	}
}

// =============================================================================

func TestLedgerAPI(t *testing.T) {
	lt := newLedgerTest(t)

	t.Log("Given the need to operate the ledger over HTTP.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting an unsigned donation.", testID)
		{
			var resp errs.Response
			status := lt.call(lt.private, http.MethodPost, "/v1/tx/submit", donation("TX-1", "1000"), &resp)
			if status != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould be rejected with a 400: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould be rejected with a 400.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a signed donation and committing.", testID)
		{
			tx, err := lt.state.SignTransaction(donation("TX-1", "1000"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %v", failed, testID, err)
			}

			if status := lt.call(lt.private, http.MethodPost, "/v1/tx/submit", tx, nil); status != http.StatusAccepted {
				t.Fatalf("\t%s\tTest %d:\tShould be accepted: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould be accepted.", success, testID)

			var pool struct {
				Length int `json:"length"`
			}
			lt.call(lt.public, http.MethodGet, "/v1/tx/uncommitted/list", nil, &pool)
			if pool.Length != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould list one pending donation: got %d.", failed, testID, pool.Length)
			}
			t.Logf("\t%s\tTest %d:\tShould list one pending donation.", success, testID)

			var blockData database.BlockData
			if status := lt.call(lt.private, http.MethodPost, "/v1/chain/commit", nil, &blockData); status != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould commit a block: got %d.", failed, testID, status)
			}
			if blockData.Index != 2 || len(blockData.Transactions) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould commit block 2 holding the donation: got %d.", failed, testID, blockData.Index)
			}
			t.Logf("\t%s\tTest %d:\tShould commit block 2 holding the donation.", success, testID)

			var resp errs.Response
			if status := lt.call(lt.private, http.MethodPost, "/v1/chain/commit", nil, &resp); status != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to commit an empty pool: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to commit an empty pool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading the chain back.", testID)
		{
			var chain struct {
				Length int `json:"length"`
			}
			lt.call(lt.public, http.MethodGet, "/v1/chain/list", nil, &chain)
			if chain.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould list two blocks: got %d.", failed, testID, chain.Length)
			}
			t.Logf("\t%s\tTest %d:\tShould list two blocks.", success, testID)

			var tx struct {
				Index       uint64           `json:"index"`
				Transaction database.BlockTx `json:"transaction"`
			}
			if status := lt.call(lt.public, http.MethodGet, "/v1/tx/committed/TX-1", nil, &tx); status != http.StatusOK || tx.Index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould find the donation in block 2: got %d.", failed, testID, tx.Index)
			}
			t.Logf("\t%s\tTest %d:\tShould find the donation in block 2.", success, testID)

			if status := lt.call(lt.public, http.MethodGet, "/v1/tx/committed/TX-9", nil, &errs.Response{}); status != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould get a 404 for an unknown donation: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 404 for an unknown donation.", success, testID)

			if status := lt.call(lt.public, http.MethodGet, "/v1/chain/block/abc", nil, &errs.Response{}); status != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould get a 400 for a bad block index: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 400 for a bad block index.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking a receipt.", testID)
		{
			var receipt database.Receipt
			if status := lt.call(lt.public, http.MethodGet, "/v1/receipt/TX-1", nil, &receipt); status != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould get a receipt: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould get a receipt.", success, testID)

			var v struct {
				Valid bool `json:"valid"`
			}
			lt.call(lt.public, http.MethodPost, "/v1/receipt/verify", receipt, &v)
			if !v.Valid {
				t.Fatalf("\t%s\tTest %d:\tShould verify the receipt.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the receipt.", success, testID)

			receipt.Transaction.Amount = "2000.00"
			lt.call(lt.public, http.MethodPost, "/v1/receipt/verify", receipt, &v)
			if v.Valid {
				t.Fatalf("\t%s\tTest %d:\tShould not verify an altered receipt.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not verify an altered receipt.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the stored chain is altered.", testID)
		{
			var v struct {
				Valid  bool `json:"valid"`
				Halted bool `json:"halted"`
			}
			lt.call(lt.public, http.MethodGet, "/v1/chain/validate", nil, &v)
			if !v.Valid || v.Halted {
				t.Fatalf("\t%s\tTest %d:\tShould report a valid chain first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report a valid chain first.", success, testID)

			blockData, err := lt.strg.GetBlock(2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read block 2: %v", failed, testID, err)
			}
			blockData.Transactions[0].Amount = "2000.00"
			if err := lt.strg.Tamper(blockData); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to tamper with block 2: %v", failed, testID, err)
			}

			var bad struct {
				Valid      bool                      `json:"valid"`
				Halted     bool                      `json:"halted"`
				Corruption *database.CorruptionError `json:"corruption"`
			}
			lt.call(lt.public, http.MethodGet, "/v1/chain/validate", nil, &bad)
			if bad.Valid || !bad.Halted || bad.Corruption == nil || bad.Corruption.Index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould report corruption at block 2: %+v", failed, testID, bad)
			}
			t.Logf("\t%s\tTest %d:\tShould report corruption at block 2.", success, testID)

			if status := lt.call(lt.debug, http.MethodGet, "/debug/readiness", nil, nil); status != http.StatusServiceUnavailable {
				t.Fatalf("\t%s\tTest %d:\tShould fail readiness: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould fail readiness.", success, testID)

			tx, _ := lt.state.SignTransaction(donation("TX-2", "10"))
			if status := lt.call(lt.private, http.MethodPost, "/v1/tx/submit", tx, &errs.Response{}); status != http.StatusServiceUnavailable {
				t.Fatalf("\t%s\tTest %d:\tShould refuse new donations: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse new donations.", success, testID)
		}
	}
}

func TestRecordAPI(t *testing.T) {
	lt := newLedgerTest(t)

	t.Log("Given the need to record a completed donation in one call.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen recording a donation.", testID)
		{
			var resp struct {
				Transaction database.Tx        `json:"transaction"`
				Block       database.BlockData `json:"block"`
			}
			if status := lt.call(lt.private, http.MethodPost, "/v1/tx/record", donation("TX-1", "250"), &resp); status != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould record the donation: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould record the donation.", success, testID)

			if resp.Transaction.Signature == "" || resp.Block.Index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould return the signed donation in block 2.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return the signed donation in block 2.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen recording an invalid donation.", testID)
		{
			var resp errs.Response
			status := lt.call(lt.private, http.MethodPost, "/v1/tx/record", donation("TX-2", "-5"), &resp)
			if status != http.StatusBadRequest || resp.Fields["amount"] == "" {
				t.Fatalf("\t%s\tTest %d:\tShould get a field error for amount: got %d %+v.", failed, testID, status, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould get a field error for amount.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen recording the same donation twice.", testID)
		{
			status := lt.call(lt.private, http.MethodPost, "/v1/tx/record", donation("TX-1", "250"), &errs.Response{})
			if status != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould get a conflict: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould get a conflict.", success, testID)
		}
	}
}

func TestRouteSplit(t *testing.T) {
	lt := newLedgerTest(t)

	t.Log("Given the need to keep ledger writes off the public host.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing through the public host.", testID)
		{
			for _, path := range []string{"/v1/tx/submit", "/v1/tx/record", "/v1/chain/commit"} {
				status := lt.call(lt.public, http.MethodPost, path, donation("TX-1", "250"), nil)
				if status != http.StatusNotFound && status != http.StatusMethodNotAllowed {
					t.Fatalf("\t%s\tTest %d:\tShould not serve %s: got %d.", failed, testID, path, status)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould not serve the write routes.", success, testID)

			if _, _, err := lt.state.QueryTransaction("TX-1"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
			}
			if n := lt.state.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the pool empty: got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the ledger untouched.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading through the private host.", testID)
		{
			if status := lt.call(lt.private, http.MethodGet, "/v1/chain/list", nil, nil); status != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould not serve the read routes: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould not serve the read routes.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking the CORS headers.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/chain/list", nil)
			w := httptest.NewRecorder()
			lt.public.ServeHTTP(w, r)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
				t.Fatalf("\t%s\tTest %d:\tShould allow only the configured origin: got %q.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould allow only the configured origin.", success, testID)

			r = httptest.NewRequest(http.MethodPost, "/v1/tx/record", bytes.NewBufferString("{}"))
			w = httptest.NewRecorder()
			lt.private.ServeHTTP(w, r)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Fatalf("\t%s\tTest %d:\tShould not allow cross origin writes: got %q.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould not allow cross origin writes.", success, testID)
		}
	}
}
