package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/application"
	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Kind is set for failed
// review submissions.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// DocumentResponse identifies a document.
type DocumentResponse struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// BalanceResponse is the JSON representation of the acting user's budget.
type BalanceResponse struct {
	User         string `json:"user"`
	ReviewPoints int    `json:"review_points"`
	EnergyPoints int    `json:"energy_points"`
	Loaded       bool   `json:"loaded"`
	CanReview    bool   `json:"can_review"`
	RefreshedAt  string `json:"refreshed_at,omitempty"`
}

// PillResponse is the JSON representation of one review pill.
type PillResponse struct {
	ReviewID  string `json:"review_id"`
	Points    int    `json:"points"`
	Magnitude int    `json:"magnitude"`
	Class     string `json:"class"`
	Polarity  string `json:"polarity"`
	FromUser  string `json:"from_user"`
	ToUser    string `json:"to_user"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
	Detail    string `json:"detail"`
}

// SessionResponse is the JSON representation of an open document view.
type SessionResponse struct {
	ID          string           `json:"id"`
	Document    DocumentResponse `json:"document"`
	OpenedAt    string           `json:"opened_at"`
	Involvement []string         `json:"involvement"`
	Pills       []PillResponse   `json:"pills"`
	Submitting  bool             `json:"submitting"`
}

// ReviewResponse is the JSON representation of a created review.
type ReviewResponse struct {
	ID        string           `json:"id"`
	Document  DocumentResponse `json:"document"`
	FromUser  string           `json:"from_user"`
	ToUser    string           `json:"to_user"`
	Polarity  string           `json:"polarity"`
	Points    int              `json:"points"`
	Reason    string           `json:"reason"`
	CreatedAt string           `json:"created_at"`
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	Review  ReviewResponse  `json:"review"`
	Pills   []PillResponse  `json:"pills"`
	Balance BalanceResponse `json:"balance"`
}

// HealthResponse is the JSON representation of the health report.
type HealthResponse struct {
	Status          string `json:"status"`
	LedgerReachable bool   `json:"ledger_reachable"`
	LedgerError     string `json:"ledger_error,omitempty"`
	BalanceLoaded   bool   `json:"balance_loaded"`
	OpenSessions    int    `json:"open_sessions"`
	Time            string `json:"time"`
}

// openSessionRequest is the request body for POST /api/v1/sessions.
type openSessionRequest struct {
	DocumentType string `json:"document_type"`
	DocumentName string `json:"document_name"`
}

// submitReviewRequest is the request body for POST /api/v1/sessions/{id}/reviews.
type submitReviewRequest struct {
	ToUser   string `json:"to_user"`
	Polarity string `json:"polarity"`
	Points   int    `json:"points"`
	Reason   string `json:"reason"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toDocumentResponse(ref model.DocumentRef) DocumentResponse {
	return DocumentResponse{Type: ref.Type, Name: ref.Name}
}

func toBalanceResponse(b model.PointsBalance, loaded bool) BalanceResponse {
	return BalanceResponse{
		User:         b.User,
		ReviewPoints: b.ReviewPoints,
		EnergyPoints: b.EnergyPoints,
		Loaded:       loaded,
		CanReview:    loaded && !b.Exhausted(),
		RefreshedAt:  formatTime(b.RefreshedAt),
	}
}

func toPillResponses(pills []application.ReviewPill) []PillResponse {
	out := make([]PillResponse, 0, len(pills))
	for _, p := range pills {
		out = append(out, PillResponse{
			ReviewID:  p.ReviewID,
			Points:    p.Points,
			Magnitude: p.Magnitude,
			Class:     p.Class,
			Polarity:  string(p.Polarity),
			FromUser:  p.FromUser,
			ToUser:    p.ToUser,
			Reason:    p.Reason,
			CreatedAt: formatTime(p.CreatedAt),
			Detail:    p.Detail,
		})
	}
	return out
}

func toSessionResponse(s *application.DocumentSession) SessionResponse {
	involvement := s.Involvement()
	if involvement == nil {
		involvement = model.InvolvementSet{}
	}
	return SessionResponse{
		ID:          s.ID,
		Document:    toDocumentResponse(s.Ref),
		OpenedAt:    formatTime(s.OpenedAt),
		Involvement: involvement,
		Pills:       toPillResponses(s.Pills()),
		Submitting:  s.Control().Disabled(),
	}
}

func toReviewResponse(r model.ReviewRecord) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		Document:  toDocumentResponse(r.Document),
		FromUser:  r.FromUser,
		ToUser:    r.ToUser,
		Polarity:  string(r.Polarity),
		Points:    r.Points,
		Reason:    r.Reason,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

func toHealthResponse(r application.HealthReport) HealthResponse {
	return HealthResponse{
		Status:          r.Status,
		LedgerReachable: r.LedgerReachable,
		LedgerError:     r.LedgerError,
		BalanceLoaded:   r.BalanceLoaded,
		OpenSessions:    r.OpenSessions,
		Time:            formatTime(r.CheckedAt),
	}
}
