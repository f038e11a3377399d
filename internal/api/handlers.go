package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
	"github.com/SohamSachinDhore/bet-v2/internal/queue"
	"github.com/SohamSachinDhore/bet-v2/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	queue      *queue.Queue
	custRepo   *repository.CustomerRepo
	bazarRepo  *repository.BazarRepo
	ledgerRepo *repository.LedgerRepo
	allowed    map[string]bool
	groups     []string // configured spelling, for display
	validate   *validator.Validate
	log        *logrus.Entry
}

func NewHandlers(
	q *queue.Queue,
	custRepo *repository.CustomerRepo,
	bazarRepo *repository.BazarRepo,
	ledgerRepo *repository.LedgerRepo,
	allowedGroups []string,
	log *logrus.Logger,
) *Handlers {
	allowed := make(map[string]bool, len(allowedGroups))
	groups := make([]string, 0, len(allowedGroups))
	for _, g := range allowedGroups {
		g = strings.TrimSpace(g)
		allowed[strings.ToLower(g)] = true
		groups = append(groups, g)
	}
	return &Handlers{
		queue:      q,
		custRepo:   custRepo,
		bazarRepo:  bazarRepo,
		ledgerRepo: ledgerRepo,
		allowed:    allowed,
		groups:     groups,
		validate:   validator.New(),
		log:        log.WithField("component", "api"),
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// groupAllowed applies the allow-list; an empty list admits every group.
func (h *Handlers) groupAllowed(group string) bool {
	if len(h.allowed) == 0 {
		return true
	}
	return h.allowed[strings.ToLower(strings.TrimSpace(group))]
}

// --- ingestion ---

type messageRequest struct {
	SenderName  string `json:"sender_name" validate:"required"`
	SenderPhone string `json:"sender_phone"`
	GroupName   string `json:"group_name" validate:"required"`
	Message     string `json:"message" validate:"required"`
	Timestamp   string `json:"timestamp"`
}

type messageResponse struct {
	Success   bool               `json:"success"`
	ID        string             `json:"id,omitempty"`
	Duplicate bool               `json:"duplicate,omitempty"`
	Errors    []domain.LineIssue `json:"errors,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (req messageRequest) toMessage() domain.RawMessage {
	receivedAt := time.Now().UTC()
	if t := parseTime(req.Timestamp); t != nil {
		receivedAt = *t
	}
	return domain.RawMessage{
		SenderName:  req.SenderName,
		SenderPhone: req.SenderPhone,
		GroupName:   req.GroupName,
		Body:        req.Message,
		ReceivedAt:  receivedAt,
	}
}

// ingest runs one message through allow-list, dedup and staging. The
// returned status is what a single-message response would use; batch items
// reuse the body and ignore the status.
func (h *Handlers) ingest(req messageRequest) (messageResponse, int) {
	if err := h.validate.Struct(req); err != nil {
		return messageResponse{Success: false, Error: "sender_name, group_name and message are required"}, http.StatusBadRequest
	}
	if !h.groupAllowed(req.GroupName) {
		return messageResponse{Success: false, Error: "group not allowed: " + req.GroupName}, http.StatusForbidden
	}

	rec, err := h.queue.Enqueue(req.toMessage())
	if errors.Is(err, domain.ErrDuplicate) {
		return messageResponse{Success: true, ID: rec.ID, Duplicate: true}, http.StatusOK
	}
	if err != nil {
		return messageResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError
	}
	return messageResponse{Success: true, ID: rec.ID, Errors: rec.Issues}, http.StatusCreated
}

func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	resp, status := h.ingest(req)
	writeJSON(w, status, resp)
}

type batchRequest struct {
	Messages []messageRequest `json:"messages"`
}

func (h *Handlers) PostBatch(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := make([]messageResponse, 0, len(body))
	for _, req := range body {
		resp, _ := h.ingest(req)
		results = append(results, resp)
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeBatch accepts both the wrapped {"messages": [...]} shape and a
// bare array.
func decodeBatch(r *http.Request) ([]messageRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.New("invalid JSON body: " + err.Error())
	}

	var bare []messageRequest
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	var wrapped batchRequest
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Messages == nil {
		return nil, errors.New("body must be an array of messages or {\"messages\": [...]}")
	}
	return wrapped.Messages, nil
}

func (h *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- review ---

func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"pending_count": h.queue.PendingCount(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := queue.Filter{Group: q.Get("group")}
	if s := q.Get("status"); s != "" {
		f.Statuses = []domain.Status{domain.Status(strings.ToUpper(s))}
	}
	writeJSON(w, http.StatusOK, h.queue.List(f))
}

func (h *Handlers) GetPending(w http.ResponseWriter, r *http.Request) {
	rec, err := h.queue.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type updateRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *Handlers) UpdatePending(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	rec, err := h.queue.Update(chi.URLParam(r, "id"), req.Message)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

type decideRequest struct {
	Verdict  string `json:"verdict" validate:"required,oneof=APPROVE REJECT"`
	Customer string `json:"customer"`
	Bazar    string `json:"bazar"`
}

func (h *Handlers) DecidePending(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.Verdict = strings.ToUpper(req.Verdict)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "verdict must be APPROVE or REJECT")
		return
	}
	verdict := domain.Verdict(req.Verdict)
	if verdict == domain.VerdictApprove && (req.Customer == "" || req.Bazar == "") {
		writeError(w, http.StatusBadRequest, "approval requires customer and bazar")
		return
	}

	rec, err := h.queue.Decide(r.Context(), chi.URLParam(r, "id"), verdict, req.Customer, req.Bazar)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNoEntries):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.log.WithError(err).Error("decide failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

// --- reference data ---

func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed_groups": h.groups,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) ListCustomers(w http.ResponseWriter, _ *http.Request) {
	customers, err := h.custRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handlers) ListBazars(w http.ResponseWriter, _ *http.Request) {
	bazars, err := h.bazarRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bazars)
}

// --- ledger ---

func (h *Handlers) ListLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.LedgerFilter{
		Customer: q.Get("customer"),
		Bazar:    q.Get("bazar"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	entries, total, err := h.ledgerRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

func (h *Handlers) GetLedgerSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := parseTime(q.Get("from")), parseTime(q.Get("to"))

	volumes, err := h.ledgerRepo.VolumeByBazar()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totals, err := h.ledgerRepo.TotalsByCustomer(from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	count, err := h.ledgerRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry_count":   count,
		"pending_count": h.queue.PendingCount(),
		"by_bazar":      volumes,
		"by_customer":   totals,
	})
}
