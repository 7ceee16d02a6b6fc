package cli

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

	"github.com/ehr/enrollment/internal/domain/enrollment"
	"github.com/ehr/enrollment/internal/domain/validation"
)

// APIError is a non-2xx answer from the enrollment API.
type APIError struct {
	Status  int
	Message string
	// View is set when the server returned the session alongside the error,
	// as it does for an invalid submission.
	View *enrollment.View
}

func (e *APIError) Error() string {
	return fmt.Sprintf("enrollment api: %d %s", e.Status, e.Message)
}

// Client calls the enrollment HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Start(ctx context.Context, registrant validation.Registrant) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, "/enrollments", map[string]string{"registrant": string(registrant)})
}

func (c *Client) Input(ctx context.Context, id string, key validation.Key, value string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPut, c.path(id, "fields", string(key)), map[string]string{"value": value})
}

func (c *Client) ChooseBranch(ctx context.Context, id string, accessCode bool) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "branch"), map[string]bool{"access_code": accessCode})
}

func (c *Client) Search(ctx context.Context, id, query string) (enrollment.View, error) {
	return c.do(ctx, http.MethodGet, c.path(id, "practitioners")+"?q="+url.QueryEscape(query), nil)
}

func (c *Client) SelectPractitioner(ctx context.Context, id, practitionerID string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "practitioners", practitionerID), nil)
}

func (c *Client) ToggleNewPractitioner(ctx context.Context, id string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "new-practitioner"), nil)
}

func (c *Client) Next(ctx context.Context, id string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "next"), nil)
}

func (c *Client) Back(ctx context.Context, id string, step int) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "back")+"?step="+strconv.Itoa(step), nil)
}

func (c *Client) DismissModal(ctx context.Context, id string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "modal", "dismiss"), nil)
}

func (c *Client) Submit(ctx context.Context, id string) (enrollment.View, error) {
	return c.do(ctx, http.MethodPost, c.path(id, "submit"), nil)
}

func (c *Client) path(id string, parts ...string) string {
	segs := append([]string{"/enrollments", url.PathEscape(id)}, parts...)
	return strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (enrollment.View, error) {
	var v enrollment.View

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return v, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return v, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return v, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return v, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return v, decodeError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode view: %w", err)
	}
	return v, nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Message string           `json:"message"`
		View    *enrollment.View `json:"view"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
	}
	return &APIError{Status: status, Message: body.Message, View: body.View}
}
