// Package ledger implements the Ledger port against the remote points ledger's
// HTTP method API.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Ledger = (*Client)(nil)

const (
	methodGetBalance   = "points.get_balance"
	methodCreateReview = "points.create_review"
	methodListReviews  = "points.list_reviews"
	methodPing         = "ping"
)

// StatusError is returned for non-2xx ledger responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("ledger returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the ledger over HTTP JSON.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	token   string
}

// NewClient creates a ledger client. GET responses go through an in-memory
// httpcache transport so unchanged histories revalidate with conditional
// requests. Balance reads bypass the cache.
func NewClient(baseURL, token string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	return NewClientWithHTTPClient(&http.Client{
		Transport: cacheTransport,
		Timeout:   30 * time.Second,
	}, baseURL, token)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client. Tests use
// it to point at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing ledger URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing ledger URL: %q is not absolute", baseURL)
	}
	return &Client{
		http:    httpClient,
		baseURL: u,
		token:   token,
	}, nil
}

// wireRecord is the ledger's JSON shape of one point log entry.
type wireRecord struct {
	Name             string `json:"name"`
	ReferenceDoctype string `json:"reference_doctype"`
	ReferenceName    string `json:"reference_name"`
	Owner            string `json:"owner"`
	User             string `json:"user"`
	Points           int    `json:"points"`
	Type             string `json:"type"`
	Reason           string `json:"reason"`
	Creation         string `json:"creation"`
}

type wireBalance struct {
	User         string `json:"user"`
	ReviewPoints int    `json:"review_points"`
	EnergyPoints int    `json:"energy_points"`
}

type createReviewBody struct {
	ToDocumentType string `json:"to_document_type"`
	ToDocumentName string `json:"to_document_name"`
	ToUser         string `json:"to_user"`
	Points         int    `json:"points"`
	Polarity       string `json:"polarity"`
	Reason         string `json:"reason"`
}

// envelope wraps every method response.
type envelope[T any] struct {
	Message T `json:"message"`
}

// GetBalance fetches the review and energy points of user.
func (c *Client) GetBalance(ctx context.Context, user string) (model.PointsBalance, error) {
	var resp envelope[wireBalance]
	q := url.Values{"user": {user}}
	// Balances gate spending and must never be answered from the cache.
	h := http.Header{"Cache-Control": {"no-cache"}}
	if err := c.do(ctx, http.MethodGet, methodGetBalance, q, h, nil, &resp); err != nil {
		return model.PointsBalance{}, fmt.Errorf("getting balance for %s: %w", user, err)
	}

	balance := model.PointsBalance{
		User:         resp.Message.User,
		ReviewPoints: resp.Message.ReviewPoints,
		EnergyPoints: resp.Message.EnergyPoints,
		RefreshedAt:  time.Now().UTC(),
	}
	if balance.User == "" {
		balance.User = user
	}
	return balance, nil
}

// CreateReview asks the ledger to record a review and returns the created
// record. The ledger derives the reviewer from the token.
func (c *Client) CreateReview(ctx context.Context, req driven.CreateReviewRequest) (model.ReviewRecord, error) {
	body := createReviewBody{
		ToDocumentType: req.Document.Type,
		ToDocumentName: req.Document.Name,
		ToUser:         req.ToUser,
		Points:         req.Points,
		Polarity:       string(req.Polarity),
		Reason:         req.Reason,
	}

	var resp envelope[wireRecord]
	if err := c.do(ctx, http.MethodPost, methodCreateReview, nil, nil, body, &resp); err != nil {
		return model.ReviewRecord{}, fmt.Errorf("creating review on %s: %w", req.Document, err)
	}

	record, err := mapRecord(resp.Message)
	if err != nil {
		return model.ReviewRecord{}, fmt.Errorf("creating review on %s: %w", req.Document, err)
	}
	if record.Document == (model.DocumentRef{}) {
		record.Document = req.Document
	}
	return record, nil
}

// ListReviews returns the point history of a document, newest first.
func (c *Client) ListReviews(ctx context.Context, ref model.DocumentRef) ([]model.ReviewRecord, error) {
	var resp envelope[[]wireRecord]
	q := url.Values{
		"document_type": {ref.Type},
		"document_name": {ref.Name},
	}
	if err := c.do(ctx, http.MethodGet, methodListReviews, q, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing reviews for %s: %w", ref, err)
	}

	records := make([]model.ReviewRecord, 0, len(resp.Message))
	for _, w := range resp.Message {
		r, err := mapRecord(w)
		if err != nil {
			slog.Warn("skipping unreadable ledger entry", "document", ref.String(), "entry", w.Name, "error", err)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Ping checks that the ledger answers.
func (c *Client) Ping(ctx context.Context) error {
	var resp envelope[string]
	if err := c.do(ctx, http.MethodGet, methodPing, nil, nil, nil, &resp); err != nil {
		return fmt.Errorf("pinging ledger: %w", err)
	}
	return nil
}

func (c *Client) methodURL(method string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/method/" + method
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do performs one method call and decodes a 2xx body into out. header is
// added to the request and may be nil.
func (c *Client) do(ctx context.Context, httpMethod, method string, q url.Values, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.methodURL(method, q), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("ledger call",
		"method", method,
		"status", resp.StatusCode,
		"cached", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

// errorMessage extracts a readable message from an error body. The ledger
// reports errors as {"exception": "...", "message": "..."}; anything else is
// returned trimmed.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Message   json.RawMessage `json:"message"`
		Exception string          `json:"exception"`
		Exc       string          `json:"exc_type"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		var msg string
		if json.Unmarshal(payload.Message, &msg) == nil && msg != "" {
			return msg
		}
		if payload.Exception != "" {
			return payload.Exception
		}
		if payload.Exc != "" {
			return payload.Exc
		}
	}
	return strings.TrimSpace(string(raw))
}

// mapRecord converts a ledger entry into a normalized domain record.
func mapRecord(w wireRecord) (model.ReviewRecord, error) {
	polarity, ok := model.ParsePolarity(w.Type)
	if !ok {
		return model.ReviewRecord{}, fmt.Errorf("unknown entry type %q", w.Type)
	}

	created, err := parseTime(w.Creation)
	if err != nil {
		return model.ReviewRecord{}, err
	}

	r := model.ReviewRecord{
		ID: w.Name,
		Document: model.DocumentRef{
			Type: w.ReferenceDoctype,
			Name: w.ReferenceName,
		},
		FromUser:  w.Owner,
		ToUser:    w.User,
		Polarity:  polarity,
		Points:    w.Points,
		Reason:    w.Reason,
		CreatedAt: created,
	}
	return r.Normalize(), nil
}

// creationLayouts are the timestamp formats the ledger is known to emit.
var creationLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTime parses a ledger creation timestamp. Timestamps without a zone are
// taken as UTC. An empty value yields the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range creationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing creation time %q", s)
}
