// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/pointspanel/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/pointspanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pointspanel/internal/application"
	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// fragmentHeader marks requests from panel.js that want only the panel.
const fragmentHeader = "X-Requested-With"

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	reviewSvc *application.ReviewService
	names     *application.DisplayNames
	events    *application.TimelineEvents
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	reviewSvc *application.ReviewService,
	names *application.DisplayNames,
	events *application.TimelineEvents,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reviewSvc: reviewSvc,
		names:     names,
		events:    events,
		logger:    logger,
	}
}

// DocumentPage opens a view session for the document and renders the full
// page with its review panel.
func (h *Handler) DocumentPage(w http.ResponseWriter, r *http.Request) {
	ref := model.DocumentRef{Type: r.PathValue("type"), Name: r.PathValue("name")}

	session, err := h.reviewSvc.OpenDocument(r.Context(), ref)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, model.ErrDocumentNotFound) || errors.Is(err, model.ErrSchemaNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Error("failed to open document", "document", ref.String(), "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	panel := h.panel(r, session, csrfToken(w, r))
	h.render(w, r, http.StatusOK, templates.Layout(ref.Name, templates.DocumentPage(panel)))
}

// SubmitReview handles the dialog form. On success the panel is re-rendered
// with a cleared form; on failure the form stays open with the user's input
// and an inline error.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	session, err := h.reviewSvc.Session(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	form := readReviewForm(r)
	req, err := toSubmitRequest(form)
	if err != nil {
		h.respondPanel(w, r, session, http.StatusUnprocessableEntity, form, err.Error())
		return
	}

	result, err := h.reviewSvc.Submit(r.Context(), id, req)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if !result.OK() {
		h.respondPanel(w, r, session, statusForKind(result.Kind), form, errorText(result.Err))
		return
	}

	panel := h.panel(r, session, csrfToken(w, r))
	panel.Message = &vm.MessageViewModel{Kind: "success", Text: "Review submitted"}
	h.respondWithPanel(w, r, http.StatusOK, panel)
}

// Pills renders the session's current pill list.
func (h *Handler) Pills(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pills, err := h.reviewSvc.Pills(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.render(w, r, http.StatusOK, templates.PillList(id, toPillViewModels(pills)))
}

// Events streams timeline refresh notifications for the session's document
// as server-sent events until the client disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	session, err := h.reviewSvc.Session(r.PathValue("id"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	rc := http.NewResponseController(w)
	// The server's write timeout would otherwise end the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := h.events.Subscribe(session.Ref)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream not supported", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: timeline\ndata: %s\n\n", ev.ReviewID); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// CloseSession discards the session when its page is left.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if _, err := h.reviewSvc.Session(id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.reviewSvc.CloseDocument(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) panel(r *http.Request, session *application.DocumentSession, csrf string) vm.ReviewPanelViewModel {
	budget := h.reviewSvc.Budget()
	return toReviewPanelViewModel(r.Context(), session, budget.CurrentBalance(), budget.Loaded(), h.names, csrf)
}

// respondPanel re-renders the panel after a rejected submission, keeping the
// dialog open with the submitted input.
func (h *Handler) respondPanel(
	w http.ResponseWriter,
	r *http.Request,
	session *application.DocumentSession,
	status int,
	form vm.ReviewFormViewModel,
	message string,
) {
	panel := h.panel(r, session, csrfToken(w, r))
	form.Open = true
	panel.Form = form
	panel.Message = &vm.MessageViewModel{Kind: "error", Text: message}
	h.respondWithPanel(w, r, status, panel)
}

func (h *Handler) respondWithPanel(w http.ResponseWriter, r *http.Request, status int, panel vm.ReviewPanelViewModel) {
	if r.Header.Get(fragmentHeader) != "" {
		h.render(w, r, status, templates.ReviewPanel(panel))
		return
	}
	h.render(w, r, status, templates.Layout(panel.DocumentName, templates.DocumentPage(panel)))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := component.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render component", "path", r.URL.Path, "error", err)
	}
}

// readReviewForm captures the dialog input as typed.
func readReviewForm(r *http.Request) vm.ReviewFormViewModel {
	points, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("points")))
	return vm.ReviewFormViewModel{
		ToUser:   r.FormValue("to_user"),
		Polarity: r.FormValue("polarity"),
		Points:   points,
		Reason:   r.FormValue("reason"),
	}
}

// toSubmitRequest maps the form to a submission. Polarity is the only field
// checked here; the submitter validates everything else.
func toSubmitRequest(form vm.ReviewFormViewModel) (application.SubmitRequest, error) {
	polarity, ok := model.ParsePolarity(form.Polarity)
	if !ok || !polarity.IsReview() {
		return application.SubmitRequest{}, model.ErrInvalidPolarity
	}
	return application.SubmitRequest{
		ToUser:   form.ToUser,
		Polarity: polarity,
		Points:   form.Points,
		Reason:   form.Reason,
	}, nil
}

// errorText strips the kind prefix from a submission error.
func errorText(err error) string {
	if err == nil {
		return "Review could not be submitted"
	}
	var se *model.SubmitError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindBusy, model.KindInvariant:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
