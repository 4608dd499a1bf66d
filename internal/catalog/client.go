package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/freshbowl/cart/internal/cart"
)

// Client looks up menu products and custom-meal ingredients from the menu
// service. The cart never trusts prices or nutrition coming from the
// customer; everything is refetched by id.
type Client interface {
	Product(ctx context.Context, id int64) (*cart.Product, error)
	Ingredient(ctx context.Context, id int64) (*cart.IngredientLine, error)
}

// HTTPClient implements the catalog Client against the menu service REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP catalog client
func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://localhost:8081" // Default menu service URL
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Product fetches a product by id.
func (c *HTTPClient) Product(ctx context.Context, id int64) (*cart.Product, error) {
	var envelope struct {
		Data cart.Product `json:"data"`
	}
	path := fmt.Sprintf("/products/%d", id)
	if err := c.get(ctx, path, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.ID == 0 {
		envelope.Data.ID = id
	}
	return &envelope.Data, nil
}

// Ingredient fetches an ingredient by id.
func (c *HTTPClient) Ingredient(ctx context.Context, id int64) (*cart.IngredientLine, error) {
	var envelope struct {
		Data cart.IngredientLine `json:"data"`
	}
	path := fmt.Sprintf("/ingredients/%d", id)
	if err := c.get(ctx, path, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.ID == 0 {
		envelope.Data.ID = id
	}
	return &envelope.Data, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("menu service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("menu service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
