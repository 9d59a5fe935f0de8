package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/donorchain/ledger/business/web/errs"
	"github.com/donorchain/ledger/business/web/mid"
	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/logger"
	"github.com/donorchain/ledger/foundation/validate"
	"github.com/donorchain/ledger/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newApp(h web.Handler) *web.App {
	log := logger.NewNop()
	app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())
	app.Handle(http.MethodGet, "v1", "/test", h, mid.Cors("*"))
	return app
}

func call(t *testing.T, app *web.App) (int, errs.Response, http.Header) {
	r := httptest.NewRequest(http.MethodGet, "/v1/test", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	var resp errs.Response
	if w.Code != http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the error response: %v", failed, err)
		}
	}

	return w.Code, resp, w.Header()
}

func TestErrors(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
		msg    string
	}

	tt := []table{
		{"trusted", errs.FromLedger(database.ErrNoTransactions), http.StatusConflict, "no transactions waiting to be committed"},
		{"fields", validate.FieldErrors{{Field: "amount", Error: "amount must be greater than zero"}}, http.StatusBadRequest, "data validation error"},
		{"untrusted", errors.New("database password is hunter2"), http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}

	t.Log("Given the need to respond to handler errors in a uniform way.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen a handler fails with a %s error.", testID, tst.name)
				{
					app := newApp(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						return tst.err
					})

					status, resp, _ := call(t, app)
					if status != tst.status {
						t.Logf("\t\tTest %d:\tgot: %d", testID, status)
						t.Logf("\t\tTest %d:\texp: %d", testID, tst.status)
						t.Fatalf("\t%s\tTest %d:\tShould get back the expected status.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected status.", success, testID)

					if resp.Error != tst.msg {
						t.Logf("\t\tTest %d:\tgot: %s", testID, resp.Error)
						t.Logf("\t\tTest %d:\texp: %s", testID, tst.msg)
						t.Fatalf("\t%s\tTest %d:\tShould get back the expected message.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected message.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestPanics(t *testing.T) {
	t.Log("Given the need to survive a handler panic.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a handler panics.", testID)
		{
			app := newApp(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			})

			status, _, hdr := call(t, app)
			if status != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest %d:\tShould respond with a 500: got %d.", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould respond with a 500.", success, testID)

			if hdr.Get("Access-Control-Allow-Origin") != "*" {
				t.Fatalf("\t%s\tTest %d:\tShould set the CORS headers.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould set the CORS headers.", success, testID)
		}
	}
}
