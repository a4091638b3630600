package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/offer-oven/internal/config"
	"github.com/iwvelando/offer-oven/internal/crm"
	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/internal/metrics"
	"github.com/iwvelando/offer-oven/internal/optimizer"
	"github.com/iwvelando/offer-oven/internal/oven"
	"github.com/iwvelando/offer-oven/internal/subscription"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/optimization"
	"github.com/iwvelando/offer-oven/pkg/output"
	"github.com/iwvelando/offer-oven/pkg/validation"
	"go.uber.org/zap"
)

// Services are the stateful backends behind the API. Nil services are
// replaced with in-memory ones.
type Services struct {
	Leads         *crm.Service
	Subscriptions *subscription.Service
	WebhookSecret string
}

type handler struct {
	logger        *zap.Logger
	maxBodySize   int64
	version       string
	leads         *crm.Service
	subscriptions *subscription.Service
	webhookSecret string
}

// offerRequest is one deal book entry plus the defaults it resolves against.
type offerRequest struct {
	config.Deal
	Defaults config.Defaults `json:"defaults"`
}

type offerResponse struct {
	Name         string                `json:"name,omitempty"`
	Strategy     deal.Strategy         `json:"strategy"`
	Result       deal.OfferResult      `json:"result"`
	Scorecard    deal.Scorecard        `json:"scorecard"`
	Notes        []string              `json:"notes,omitempty"`
	BalloonDue   string                `json:"balloonDue,omitempty"`
	Optimization *optimization.Summary `json:"optimization,omitempty"`
}

type compareResponse struct {
	Offers []offerResponse `json:"offers"`
}

type bookResponse struct {
	Results  []oven.Result `json:"results"`
	CSV      string        `json:"csv"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration string        `json:"duration"`
}

type leadsResponse struct {
	Leads []crm.Lead        `json:"leads"`
	Stats crm.PipelineStats `json:"stats"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// NewHandler constructs the HTTP handler that serves the offer, pipeline, and
// webhook API.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, services Services) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if services.Leads == nil {
		services.Leads = crm.NewService(crm.NewMemoryStore(), logger)
	}
	if services.Subscriptions == nil {
		services.Subscriptions = subscription.NewService(subscription.NewMemoryStore(), logger)
	}

	h := &handler{
		logger:        logger,
		maxBodySize:   maxBodySize,
		version:       trimmedVersion,
		leads:         services.Leads,
		subscriptions: services.Subscriptions,
		webhookSecret: services.WebhookSecret,
	}

	mux := http.NewServeMux()

	// Offer calculators
	h.route(mux, "POST /api/offer", h.handleOffer)
	h.route(mux, "POST /api/offers/compare", h.handleCompare)
	h.route(mux, "POST /api/optimize", h.handleOptimize)

	// Deal book upload
	h.route(mux, "POST /api/book", h.handleBook)

	// Lead pipeline
	h.route(mux, "POST /api/leads", h.handleCreateLead)
	h.route(mux, "GET /api/leads", h.handleListLeads)
	h.route(mux, "GET /api/leads/{id}", h.handleGetLead)
	h.route(mux, "PATCH /api/leads/{id}", h.handleUpdateLead)
	h.route(mux, "DELETE /api/leads/{id}", h.handleDeleteLead)
	h.route(mux, "POST /api/leads/{id}/dispo", h.handlePushToDispo)
	h.route(mux, "GET /api/dispos", h.handleListDispos)

	// Subscriptions
	h.route(mux, "POST /api/webhooks/whop", h.handleWebhook)
	h.route(mux, "GET /api/subscriptions/{purchaseId}", h.handleGetSubscription)

	h.route(mux, "GET /api/version", h.handleVersion)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

func (h *handler) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, metrics.Instrument(pattern, fn))
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleOffer(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOffer"

	var req offerRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	result, err := h.bake(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, newOfferResponse(result))
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"

	var req offerRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	req.Optimizer = nil

	response := compareResponse{Offers: make([]offerResponse, 0, len(deal.Strategies))}
	for _, strategy := range deal.Strategies {
		req.Strategy = string(strategy)
		result, err := h.bake(req)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		response.Offers = append(response.Offers, newOfferResponse(result))
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"

	var req offerRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Optimizer == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "optimizer directive is required", op)
		return
	}
	if err := req.Defaults.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	dealReq, err := req.Deal.Request(req.Defaults)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := validation.ValidateRequest(dealReq); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	summary, err := optimizer.Optimize(optimizer.Target{Name: req.Name, Request: dealReq, Config: req.Optimizer})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("optimizer execution failed: %v", err), op)
		return
	}

	h.logger.Info("optimizer search completed",
		zap.String("op", op),
		zap.String("field", summary.Field),
		zap.Float64("value", summary.Value),
		zap.Bool("converged", summary.Converged),
	)

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleBook(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBook"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing deal book file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read deal book: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	results, err := oven.Bake(h.logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	csvData, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("deal book baked",
		zap.String("op", op),
		zap.Int("deals", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, bookResponse{
		Results:  results,
		CSV:      csvData,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateLead"

	var req offerRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	req.Optimizer = nil

	result, err := h.bake(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	lead, err := h.leads.CreateLead(r.Context(), req.Name, req.Address, result.Offer)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, lead)
}

func (h *handler) handleListLeads(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListLeads"

	leads, err := h.leads.Leads(r.Context())
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, leadsResponse{Leads: leads, Stats: crm.Stats(leads)})
}

func (h *handler) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.Lead(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondStoreError(w, err, "server.handleGetLead")
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

func (h *handler) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateLead"

	var req statusRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	status, err := crm.ParseLeadStatus(req.Status)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	lead, err := h.leads.UpdateLeadStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

func (h *handler) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.DeleteLead(r.Context(), r.PathValue("id")); err != nil {
		h.respondStoreError(w, err, "server.handleDeleteLead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handlePushToDispo(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePushToDispo"

	var buyer crm.Buyer
	if !h.decodeJSON(w, r, &buyer, op) {
		return
	}
	if err := validation.ValidateStruct("buyer", buyer); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if buyer.AssignedPrice.IsNegative() {
		h.respondErrorWithOp(w, http.StatusBadRequest, "assigned price must not be negative", op)
		return
	}

	dispo, err := h.leads.PushToDispo(r.Context(), r.PathValue("id"), buyer)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, dispo)
}

func (h *handler) handleListDispos(w http.ResponseWriter, r *http.Request) {
	dispos, err := h.leads.Dispos(r.Context())
	if err != nil {
		h.respondStoreError(w, err, "server.handleListDispos")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]crm.Dispo{"dispos": dispos})
}

func (h *handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWebhook"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read webhook: %v", err), op)
		return
	}

	if err := subscription.VerifySignature(h.webhookSecret, body, r.Header.Get(subscription.SignatureHeader)); err != nil {
		metrics.ObserveWebhook("unverified", "unauthorized")
		h.respondErrorWithOp(w, http.StatusUnauthorized, err.Error(), op)
		return
	}

	event, err := subscription.ParseEvent(body)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if _, err := h.subscriptions.Handle(r.Context(), event); err != nil {
		h.logger.Error("webhook handler failed",
			zap.String("op", op),
			zap.String("action", event.Action),
			zap.Error(err),
		)
		h.respondErrorWithOp(w, http.StatusInternalServerError, "webhook handler failed", op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSubscription"

	sub, err := h.subscriptions.Get(r.Context(), r.PathValue("purchaseId"))
	if errors.Is(err, subscription.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

func (h *handler) bake(req offerRequest) (oven.Result, error) {
	if err := req.Defaults.Validate(); err != nil {
		return oven.Result{}, err
	}
	return oven.BakeDeal(h.logger, req.Defaults, req.Deal)
}

func newOfferResponse(result oven.Result) offerResponse {
	return offerResponse{
		Name:         result.Name,
		Strategy:     result.Strategy,
		Result:       result.Offer,
		Scorecard:    result.Scorecard,
		Notes:        result.Notes,
		BalloonDue:   result.BalloonDue,
		Optimization: result.Optimization,
	}
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, crm.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case errors.Is(err, crm.ErrAlreadyInDispo):
		h.respondErrorWithOp(w, http.StatusConflict, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	level := zap.WarnLevel
	if status >= http.StatusInternalServerError {
		level = zap.ErrorLevel
	}
	h.logger.Log(level, "request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
