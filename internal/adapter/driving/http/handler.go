// Package httphandler serves the JSON REST API of the review workflow.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ericfisherdev/pointspanel/internal/application"
	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// BalanceRefresher triggers an immediate balance refresh.
type BalanceRefresher interface {
	RefreshNow(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	reviewSvc *application.ReviewService
	healthSvc *application.HealthService
	refresher BalanceRefresher
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	reviewSvc *application.ReviewService,
	healthSvc *application.HealthService,
	refresher BalanceRefresher,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reviewSvc: reviewSvc,
		healthSvc: healthSvc,
		refresher: refresher,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers the /api/v1 routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/balance", h.GetBalance)
	mux.HandleFunc("POST /api/v1/balance/refresh", h.RefreshBalance)
	mux.HandleFunc("POST /api/v1/sessions", h.OpenSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.CloseSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/involvement", h.GetInvolvement)
	mux.HandleFunc("GET /api/v1/sessions/{id}/reviews", h.ListReviews)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reviews", h.SubmitReview)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health reports ledger reachability and local state. It always answers 200
// so process liveness checks do not depend on the ledger; callers inspect
// the status field.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toHealthResponse(h.healthSvc.Check(r.Context())))
}

// GetBalance returns the cached budget of the acting user.
func (h *Handler) GetBalance(w http.ResponseWriter, _ *http.Request) {
	budget := h.reviewSvc.Budget()
	writeJSON(w, http.StatusOK, toBalanceResponse(budget.CurrentBalance(), budget.Loaded()))
}

// RefreshBalance refreshes the budget from the ledger and returns it.
func (h *Handler) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshNow(r.Context()); err != nil {
		h.logger.Warn("manual balance refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not reach the points ledger")
		return
	}
	h.GetBalance(w, r)
}

// OpenSession opens a document view and returns its session.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref := model.DocumentRef{
		Type: strings.TrimSpace(req.DocumentType),
		Name: strings.TrimSpace(req.DocumentName),
	}
	if ref.Type == "" || ref.Name == "" {
		writeError(w, http.StatusBadRequest, "document_type and document_name are required")
		return
	}

	session, err := h.reviewSvc.OpenDocument(r.Context(), ref)
	if err != nil {
		if errors.Is(err, model.ErrSchemaNotFound) || errors.Is(err, model.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to open document", "document", ref.String(), "error", err)
		writeError(w, http.StatusBadGateway, "could not load document")
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// GetSession returns an open session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// CloseSession discards an open session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	h.reviewSvc.CloseDocument(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// GetInvolvement returns the eligible recipients of the session's document.
func (h *Handler) GetInvolvement(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	users := session.Involvement()
	if users == nil {
		users = model.InvolvementSet{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"users": users})
}

// ListReviews returns the session's review pills, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	pills, err := h.reviewSvc.Pills(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, toPillResponses(pills))
}

// SubmitReview submits a review from the session's dialog.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	polarity, ok := model.ParsePolarity(req.Polarity)
	if !ok {
		polarity = model.Polarity(req.Polarity)
	}

	id := r.PathValue("id")
	result, err := h.reviewSvc.Submit(r.Context(), id, application.SubmitRequest{
		ToUser:   strings.TrimSpace(req.ToUser),
		Polarity: polarity,
		Points:   req.Points,
		Reason:   req.Reason,
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if !result.OK() {
		writeJSON(w, statusForKind(result.Kind), errorResponse{
			Error: errors.Unwrap(result.Err).Error(),
			Kind:  result.Kind.String(),
		})
		return
	}

	session, err := h.reviewSvc.Session(id)
	if err != nil {
		// Closed concurrently; the review itself was recorded.
		writeJSON(w, http.StatusCreated, SubmitResponse{Review: toReviewResponse(result.Record)})
		return
	}

	budget := h.reviewSvc.Budget()
	writeJSON(w, http.StatusCreated, SubmitResponse{
		Review:  toReviewResponse(result.Record),
		Pills:   toPillResponses(session.Pills()),
		Balance: toBalanceResponse(budget.CurrentBalance(), budget.Loaded()),
	})
}

// session resolves the {id} path value, writing a 404 when it is unknown.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*application.DocumentSession, bool) {
	session, err := h.reviewSvc.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindBusy, model.KindInvariant:
		return http.StatusConflict
	case model.KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
