package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// UserProfile is the slice of the IAM user record the list view needs.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName joins the profile's names for the list view.
func (p UserProfile) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// UserClient resolves screener IDs to display names via the IAM service.
type UserClient struct {
	*Client
}

// NewUserClient wraps the shared transport.
func NewUserClient(c *Client) *UserClient {
	return &UserClient{Client: c}
}

// Get fetches one user profile.
func (c *UserClient) Get(ctx context.Context, id string) (UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, "user", "get", http.MethodGet, "/iam/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return UserProfile{}, err
	}
	return out, nil
}
