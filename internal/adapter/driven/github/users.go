package github

import (
	"context"
	"fmt"
	"net/http"
)

// FullName returns the profile name of a GitHub login. Logins without a
// profile name, and unknown logins, yield "".
func (c *Client) FullName(ctx context.Context, login string) (string, error) {
	u, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("getting user %s: %w", login, err)
	}
	logRateLimit(resp, "users.get", 0, 1)
	return u.GetName(), nil
}
