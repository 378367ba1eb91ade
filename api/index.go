package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/app"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/config"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)

	// Note: On Vercel, db.sqlite is ephemeral unless DATABASE_URL points at Turso or Postgres
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}
	mux = a.Router
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
