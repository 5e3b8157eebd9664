package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Place is one address suggestion from the autocomplete collaborator.
type Place struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

// Label renders the suggestion: both parts joined when both are present,
// else whichever one is.
func (p Place) Label() string {
	switch {
	case p.Name != "" && p.FormattedAddress != "":
		return p.Name + ", " + p.FormattedAddress
	case p.Name != "":
		return p.Name
	default:
		return p.FormattedAddress
	}
}

// PlacesClient talks to the address-autocomplete collaborator.
type PlacesClient struct {
	*Client
}

// NewPlacesClient wraps a transport pointed at the places base URL.
func NewPlacesClient(c *Client) *PlacesClient {
	return &PlacesClient{Client: c}
}

// Autocomplete returns suggestions for a free-text address query.
func (c *PlacesClient) Autocomplete(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("q", query)
	var out struct {
		Predictions []Place `json:"predictions"`
	}
	if err := c.do(ctx, "places", "autocomplete", http.MethodGet, "/autocomplete", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}
