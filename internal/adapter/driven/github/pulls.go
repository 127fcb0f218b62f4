package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// reviewStatePending marks a review the author has not submitted yet.
const reviewStatePending = "PENDING"

// GetDocument returns the pull request as a document: the author is the owner
// and the assignee and merger are user fields.
func (c *Client) GetDocument(ctx context.Context, ref model.DocumentRef) (*model.Document, error) {
	p, err := parsePullRef(ref.Name)
	if err != nil {
		return nil, err
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, p.owner, p.repo, p.number)
	if err != nil {
		return nil, wrapNotFound(resp, fmt.Errorf("getting pull request %s: %w", p, err))
	}
	logRateLimit(resp, "pulls.get", 0, 1)

	state := pr.GetState()
	if !pr.GetMergedAt().IsZero() {
		state = "merged"
	}

	return &model.Document{
		Ref:   ref,
		Owner: pr.GetUser().GetLogin(),
		Values: map[string]string{
			"title":     pr.GetTitle(),
			"state":     state,
			"assignee":  pr.GetAssignee().GetLogin(),
			"merged_by": pr.GetMergedBy().GetLogin(),
		},
	}, nil
}

// GetHistory maps the pull request's activity onto the history feeds:
// submitted reviews are communications, issue comments are comments, commits
// are versions and assignees are assignments.
func (c *Client) GetHistory(ctx context.Context, ref model.DocumentRef) (*model.DocumentHistory, error) {
	p, err := parsePullRef(ref.Name)
	if err != nil {
		return nil, err
	}

	communications, err := c.listReviews(ctx, p)
	if err != nil {
		return nil, err
	}
	comments, err := c.listComments(ctx, p)
	if err != nil {
		return nil, err
	}
	versions, err := c.listCommits(ctx, p)
	if err != nil {
		return nil, err
	}
	assignments, err := c.listAssignees(ctx, p)
	if err != nil {
		return nil, err
	}

	return &model.DocumentHistory{
		Communications: communications,
		Comments:       comments,
		Versions:       versions,
		Assignments:    assignments,
	}, nil
}

func (c *Client) listReviews(ctx context.Context, p pullRef) ([]model.Communication, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var out []model.Communication

	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, p.owner, p.repo, p.number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing reviews for %s (page %d): %w", p, opts.Page, err)
		}
		logRateLimit(resp, "pulls.reviews", opts.Page, len(reviews))

		for _, r := range reviews {
			status := model.DeliveryStatusSent
			if r.GetState() == reviewStatePending {
				status = "Draft"
			}
			out = append(out, model.Communication{
				Sender:         r.GetUser().GetLogin(),
				DeliveryStatus: status,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

func (c *Client) listComments(ctx context.Context, p pullRef) ([]model.HistoryEntry, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var out []model.HistoryEntry

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, p.owner, p.repo, p.number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s (page %d): %w", p, opts.Page, err)
		}
		logRateLimit(resp, "issues.comments", opts.Page, len(comments))

		for _, cm := range comments {
			out = append(out, model.HistoryEntry{
				Owner:     cm.GetUser().GetLogin(),
				CreatedAt: cm.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

func (c *Client) listCommits(ctx context.Context, p pullRef) ([]model.HistoryEntry, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var out []model.HistoryEntry

	for {
		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, p.owner, p.repo, p.number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commits for %s (page %d): %w", p, opts.Page, err)
		}
		logRateLimit(resp, "pulls.commits", opts.Page, len(commits))

		for _, rc := range commits {
			// Commits by emails not linked to an account have no author login.
			out = append(out, model.HistoryEntry{
				Owner:     rc.GetAuthor().GetLogin(),
				CreatedAt: rc.GetCommit().GetAuthor().GetDate().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}

func (c *Client) listAssignees(ctx context.Context, p pullRef) ([]model.HistoryEntry, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, p.owner, p.repo, p.number)
	if err != nil {
		return nil, fmt.Errorf("getting assignees for %s: %w", p, err)
	}
	logRateLimit(resp, "issues.get", 0, len(issue.Assignees))

	out := make([]model.HistoryEntry, 0, len(issue.Assignees))
	for _, u := range issue.Assignees {
		out = append(out, model.HistoryEntry{Owner: u.GetLogin()})
	}
	return out, nil
}

// wrapNotFound tags 404 responses with model.ErrDocumentNotFound.
func wrapNotFound(resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return errors.Join(model.ErrDocumentNotFound, err)
	}
	return err
}
