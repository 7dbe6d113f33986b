package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// SubmitError carries the upstream rejection of a booking submission.
// Message holds the server-provided reason when the response body had
// one, otherwise it is empty and the caller picks a fallback.
type SubmitError struct {
	StatusCode int
	Message    string
}

// Error returns the error description.
func (e *SubmitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("booking rejected (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("booking rejected (%d)", e.StatusCode)
}

// Client consumes the upstream vehicle catalog and booking REST
// backend. All list responses pass through the policy filters before
// being returned.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     Policy
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, policy Policy) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		policy:     policy,
	}
}

// ListVehicleTypes fetches all vehicle categories, with the excluded
// categories removed and duplicates collapsed by id.
func (c *Client) ListVehicleTypes(ctx context.Context) ([]VehicleType, error) {
	var types []VehicleType
	if err := c.getJSON(ctx, "/api/vehicle-types", &types); err != nil {
		return nil, fmt.Errorf("failed to list vehicle types: %w", err)
	}
	return c.policy.FilterTypes(types), nil
}

// ListVehicleModels fetches the rentable models of one category, with
// block-listed names removed and duplicates collapsed by name.
func (c *Client) ListVehicleModels(ctx context.Context, typeID string) ([]VehicleModel, error) {
	var models []VehicleModel
	path := "/api/vehicles/" + url.PathEscape(typeID)
	if err := c.getJSON(ctx, path, &models); err != nil {
		return nil, fmt.Errorf("failed to list vehicle models: %w", err)
	}
	return c.policy.FilterModels(models), nil
}

// CreateBooking submits a booking request. A non-2xx response is
// returned as a *SubmitError carrying the server message if present;
// transport failures surface as plain errors.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode booking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to submit booking: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var rejection struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&rejection)
	return &SubmitError{StatusCode: resp.StatusCode, Message: rejection.Message}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
