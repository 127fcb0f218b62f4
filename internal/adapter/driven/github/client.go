// Package github exposes GitHub pull requests as reviewable documents and
// resolves GitHub logins to display names, using the go-github library.
package github

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.DocumentSource = (*Client)(nil)
	_ driven.UserDirectory  = (*Client)(nil)
)

// DocumentType is the document type under which pull requests are served.
// Document names have the form "owner/repo#number".
const DocumentType = "GitHub Pull Request"

// Client reads pull requests and users from the GitHub REST API.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, PAT auth when token is set)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// PullRequestSchema describes the user fields of a pull request document.
func PullRequestSchema() model.Schema {
	return model.Schema{
		DocumentType: DocumentType,
		Fields: []model.FieldDescriptor{
			{FieldName: "title", FieldType: "Data"},
			{FieldName: "state", FieldType: "Select"},
			{FieldName: "assignee", FieldType: "Link", ReferencedEntity: "User", ReferencesUser: true},
			{FieldName: "merged_by", FieldType: "Link", ReferencedEntity: "User", ReferencesUser: true},
		},
	}
}

// pullRef identifies one pull request.
type pullRef struct {
	owner  string
	repo   string
	number int
}

func (p pullRef) String() string {
	return fmt.Sprintf("%s/%s#%d", p.owner, p.repo, p.number)
}

// parsePullRef parses a document name of the form "owner/repo#number".
func parsePullRef(name string) (pullRef, error) {
	repoFullName, num, ok := strings.Cut(name, "#")
	if !ok {
		return pullRef{}, fmt.Errorf("invalid pull request %q: expected owner/repo#number", name)
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return pullRef{}, err
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return pullRef{}, fmt.Errorf("invalid pull request number in %q", name)
	}

	return pullRef{owner: owner, repo: repo, number: n}, nil
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
