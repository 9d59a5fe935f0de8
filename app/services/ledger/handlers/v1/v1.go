// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/donorchain/ledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/donorchain/ledger/foundation/blockchain/state"
	"github.com/donorchain/ledger/foundation/events"
	"github.com/donorchain/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes. These only read the
// ledger, so they are safe to expose to browsers.
func PublicRoutes(app *web.App, cfg Config) {
	lgr := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", lgr.Events)
	app.Handle(http.MethodGet, version, "/chain/list", lgr.Chain)
	app.Handle(http.MethodGet, version, "/chain/block/:index", lgr.Block)
	app.Handle(http.MethodGet, version, "/chain/validate", lgr.Validate)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", lgr.Mempool)
	app.Handle(http.MethodGet, version, "/tx/committed/:id", lgr.Transaction)
	app.Handle(http.MethodGet, version, "/receipt/:id", lgr.Receipt)
	app.Handle(http.MethodPost, version, "/receipt/verify", lgr.VerifyReceipt)
}

// PrivateRoutes binds all the version 1 private routes. These write to the
// ledger and are only served on the private host.
func PrivateRoutes(app *web.App, cfg Config) {
	lgr := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/tx/submit", lgr.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/record", lgr.RecordDonation)
	app.Handle(http.MethodPost, version, "/chain/commit", lgr.CommitBlock)
}
