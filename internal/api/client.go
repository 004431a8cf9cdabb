package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhfrrkqt/shoppingmall/internal/models"
)

const defaultTimeout = 10 * time.Second

// Client captures the HTTP calls the storefront issues toward the admin API.
// All responses are expected to carry the {success, data, message} envelope;
// success:false is surfaced as an error carrying the server's message so the
// stores can treat it uniformly with transport failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient configures a client with sane defaults.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the wire format every admin endpoint responds with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// RemoteError reports a well-formed response whose success flag was false.
type RemoteError struct {
	Endpoint string
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server reported failure", e.Endpoint)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// do issues one request and decodes the envelope. A nil body means no payload;
// a nil out means the caller only cares about the success flag.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: server responded with %s", method, path, resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if !env.Success {
		return &RemoteError{Endpoint: method + " " + path, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s payload: %w", method, path, err)
		}
	}
	return nil
}

// Login checks admin credentials and returns the admin identity.
func (c *Client) Login(ctx context.Context, email, password string) (models.AdminUser, error) {
	payload := map[string]string{"email": email, "password": password}
	var admin models.AdminUser
	if err := c.do(ctx, http.MethodPost, "/api/admin/auth", nil, payload, &admin); err != nil {
		return models.AdminUser{}, err
	}
	return admin, nil
}

// DashboardStats fetches the server-computed dashboard aggregate.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, nil, &stats); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}

// Users lists user accounts; a non-empty search narrows the result server-side.
func (c *Client) Users(ctx context.Context, search string) ([]models.User, error) {
	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", query, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserActive toggles one account's active flag.
func (c *Client) SetUserActive(ctx context.Context, userID string, active bool) error {
	payload := map[string]any{"userId": userID, "isActive": active}
	return c.do(ctx, http.MethodPatch, "/api/admin/users", nil, payload, nil)
}

// Products lists the product catalog.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/admin/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct registers a product and returns the server-assigned record,
// including id, sales counter and creation timestamp.
func (c *Client) CreateProduct(ctx context.Context, input models.ProductInput) (models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodPost, "/api/admin/products", nil, input, &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

type productUpdateRequest struct {
	ID int64 `json:"id"`
	models.ProductUpdate
}

// UpdateProduct applies a partial update to one product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) error {
	payload := productUpdateRequest{ID: id, ProductUpdate: update}
	return c.do(ctx, http.MethodPut, "/api/admin/products", nil, payload, nil)
}

// DeleteProduct removes one product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	query := url.Values{"id": {strconv.FormatInt(id, 10)}}
	return c.do(ctx, http.MethodDelete, "/api/admin/products", query, nil, nil)
}

// Orders lists all orders.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetOrderStatus moves one order to the given status. The transition graph is
// not checked here; the server owns that decision.
func (c *Client) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	payload := map[string]any{"orderId": orderID, "status": status}
	return c.do(ctx, http.MethodPatch, "/api/admin/orders", nil, payload, nil)
}
