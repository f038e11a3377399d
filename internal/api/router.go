package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/queue"
	"github.com/SohamSachinDhore/bet-v2/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	q *queue.Queue,
	custRepo *repository.CustomerRepo,
	bazarRepo *repository.BazarRepo,
	ledgerRepo *repository.LedgerRepo,
	allowedGroups []string,
	log *logrus.Logger,
) http.Handler {
	h := NewHandlers(q, custRepo, bazarRepo, ledgerRepo, allowedGroups, log)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	// Ingestion.
	r.Post("/message", h.PostMessage)
	r.Post("/batch", h.PostBatch)
	r.Post("/ping", h.Ping)

	// Review.
	r.Get("/status", h.GetStatus)
	r.Get("/pending", h.ListPending)
	r.Get("/pending/{id}", h.GetPending)
	r.Post("/pending/{id}", h.UpdatePending)
	r.Post("/pending/{id}/decide", h.DecidePending)

	// Reference data.
	r.Get("/config", h.GetConfig)
	r.Get("/customers", h.ListCustomers)
	r.Get("/bazars", h.ListBazars)

	// Ledger.
	r.Get("/ledger", h.ListLedger)
	r.Get("/ledger/summary", h.GetLedgerSummary)

	return r
}
