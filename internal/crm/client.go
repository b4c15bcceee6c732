// Package crm talks to the GoHighLevel v2 REST API on behalf of the
// estimator: contact upserts, opportunities, custom field discovery.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultBaseURL = "https://services.leadconnectorhq.com"
	apiVersion     = "2021-07-28"

	defaultRetryBase  = time.Second
	defaultMaxRetries = 3
)

var (
	ErrMissingToken    = errors.New("crm: GHL_ACCESS_TOKEN is not set")
	ErrMissingLocation = errors.New("crm: GHL_LOCATION_ID is not set")
	ErrNoContactID     = errors.New("crm: upsert succeeded but no contact id was returned")
)

// APIError is a non-2xx response from the CRM.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("crm: status %d: %s", e.Status, body)
}

// Temporary reports whether the request may succeed if sent again.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type Client struct {
	baseURL    string
	token      string
	locationID string
	http       *http.Client

	retryBase  time.Duration
	maxRetries uint64
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the first backoff delay and how many times a request is
// retried after the initial attempt.
func WithRetry(base time.Duration, maxRetries uint64) Option {
	return func(c *Client) {
		c.retryBase = base
		c.maxRetries = maxRetries
	}
}

func NewClient(token, locationID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		locationID: locationID,
		http:       &http.Client{Timeout: 20 * time.Second},
		retryBase:  defaultRetryBase,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) LocationID() string { return c.locationID }

// Configured returns ErrMissingToken or ErrMissingLocation when the client
// cannot make requests.
func (c *Client) Configured() error {
	if c.token == "" {
		return ErrMissingToken
	}
	if c.locationID == "" {
		return ErrMissingLocation
	}
	return nil
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.retryBase)
	return retry.WithMaxRetries(c.maxRetries, b)
}

// do sends one API request, retrying transport failures, 429 and 5xx. The
// decoded response is written to out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.Configured(); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var raw []byte
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Version", apiVersion)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{Status: resp.StatusCode, Body: string(data)}
			if apiErr.Temporary() {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}
		raw = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ContactRequest is the upsert body. The location id is filled in by the client.
type ContactRequest struct {
	LocationID  string         `json:"locationId"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	CompanyName string         `json:"companyName"`
	Tags        []string       `json:"tags"`
	CustomField map[string]any `json:"customField"`
}

// UpsertContact creates or updates a contact keyed by email or phone and
// returns its id.
func (c *Client) UpsertContact(ctx context.Context, req ContactRequest) (string, error) {
	req.LocationID = c.locationID
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if req.CustomField == nil {
		req.CustomField = map[string]any{}
	}

	var resp struct {
		Contact *struct {
			ID  string `json:"id"`
			UID string `json:"_id"`
		} `json:"contact"`
		ID  string `json:"id"`
		UID string `json:"_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts/upsert", nil, req, &resp); err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}

	var candidates []string
	if resp.Contact != nil {
		candidates = append(candidates, resp.Contact.ID, resp.Contact.UID)
	}
	candidates = append(candidates, resp.ID, resp.UID)
	for _, id := range candidates {
		if id != "" {
			return id, nil
		}
	}
	return "", ErrNoContactID
}

type OpportunityRequest struct {
	LocationID      string  `json:"locationId"`
	ContactID       string  `json:"contactId"`
	PipelineID      string  `json:"pipelineId"`
	PipelineStageID string  `json:"pipelineStageId"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	MonetaryValue   float64 `json:"monetaryValue"`
}

// CreateOpportunity opens an opportunity and returns the created record's id.
func (c *Client) CreateOpportunity(ctx context.Context, req OpportunityRequest) (string, error) {
	req.LocationID = c.locationID
	if req.Status == "" {
		req.Status = "open"
	}

	var resp struct {
		Opportunity struct {
			ID string `json:"id"`
		} `json:"opportunity"`
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/opportunities/", nil, req, &resp); err != nil {
		return "", fmt.Errorf("create opportunity: %w", err)
	}
	if resp.Opportunity.ID != "" {
		return resp.Opportunity.ID, nil
	}
	return resp.ID, nil
}

// CustomField is a location custom field. Key is the raw field key as the
// API returns it, for example "contact.estimate_min".
type CustomField struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Key     string          `json:"key"`
	Type    string          `json:"type,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`
}

// UnmarshalJSON accepts both the id/_id and fieldKey/key spellings.
func (f *CustomField) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		UID      string          `json:"_id"`
		Name     string          `json:"name"`
		FieldKey string          `json:"fieldKey"`
		Key      string          `json:"key"`
		Type     string          `json:"dataType"`
		AltType  string          `json:"type"`
		Options  json.RawMessage `json:"options"`
		Values   json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = CustomField{
		ID:      firstNonEmpty(raw.ID, raw.UID),
		Name:    raw.Name,
		Key:     firstNonEmpty(raw.FieldKey, raw.Key),
		Type:    firstNonEmpty(raw.Type, raw.AltType),
		Options: raw.Options,
	}
	if len(f.Options) == 0 || string(f.Options) == "null" {
		f.Options = raw.Values
	}
	if string(f.Options) == "null" {
		f.Options = nil
	}
	return nil
}

// CustomFields lists the location's custom fields.
func (c *Client) CustomFields(ctx context.Context) ([]CustomField, error) {
	var resp struct {
		CustomFields []CustomField `json:"customFields"`
		Fields       []CustomField `json:"fields"`
	}
	path := "/locations/" + url.PathEscape(c.locationID) + "/customFields"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	if resp.CustomFields != nil {
		return resp.CustomFields, nil
	}
	if resp.Fields != nil {
		return resp.Fields, nil
	}
	return []CustomField{}, nil
}

// Pipelines returns the location's opportunity pipelines as the API sent them.
func (c *Client) Pipelines(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	q := url.Values{"locationId": {c.locationID}}
	if err := c.do(ctx, http.MethodGet, "/opportunities/pipelines", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	if resp == nil {
		resp = json.RawMessage("null")
	}
	return resp, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
