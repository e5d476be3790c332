// Package loginclient starts remote login flows against the account console API and follows
// the resulting login job until it finishes.
package loginclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrMissingAccountID is returned when a successful login response carries no account_id.
var ErrMissingAccountID = errors.New("login response has no account_id")

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.StatusCode)
}

// LoginRequest is the body of POST /api/login. Either AccountID is set, or the
// proxy/profile/label triple describing a new account.
type LoginRequest struct {
	AccountID  string `json:"-"`
	Proxy      string `json:"proxy,omitempty"`
	IOSProfile string `json:"ios_profile,omitempty"`
	Label      string `json:"label,omitempty"`
}

// MarshalJSON sends account_id as a number when it is numeric, as the backend stores integer ids.
func (r LoginRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if r.AccountID != "" {
		if n, err := strconv.ParseInt(r.AccountID, 10, 64); err == nil {
			body["account_id"] = n
		} else {
			body["account_id"] = r.AccountID
		}
	}
	if r.Proxy != "" {
		body["proxy"] = r.Proxy
	}
	if r.IOSProfile != "" {
		body["ios_profile"] = r.IOSProfile
	}
	if r.Label != "" {
		body["label"] = r.Label
	}
	return json.Marshal(body)
}

// AccountID accepts both JSON strings and numbers.
type AccountID string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AccountID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = AccountID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("account_id: %w", err)
	}
	*a = AccountID(n.String())
	return nil
}

// LoginResponse is the body returned by POST /api/login.
type LoginResponse struct {
	Status    string    `json:"status"`
	AccountID AccountID `json:"account_id"`
	JobID     string    `json:"job_id"`
	LoginURL  string    `json:"login_url"`
}

// JobView is the read-only view of a login job returned by GET /api/login-jobs/{account_id}.
type JobView struct {
	JobID     string    `json:"job_id"`
	AccountID AccountID `json:"account_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Account is one row of GET /api/accounts.
type Account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	AgeDays    int    `json:"age_days"`
	Proxy      string `json:"proxy"`
	IOSProfile string `json:"ios_profile"`
	Notes      string `json:"notes"`
}

// Message is one row of GET /api/messages.
type Message struct {
	ID           int64  `json:"id"`
	AccountID    int64  `json:"account_id"`
	ListingTitle string `json:"listing_title"`
	Sender       string `json:"sender"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
}

// Reply is the body of POST /api/messages.
type Reply struct {
	AccountID    int64  `json:"account_id"`
	ListingTitle string `json:"listing_title"`
	Text         string `json:"text"`
}

// Client calls the account console HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a Client for baseURL (e.g. http://localhost:8080). token may be empty;
// when set it is sent as a bearer token. httpClient may be nil to use http.DefaultClient.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// StartLogin posts req to /api/login.
func (c *Client) StartLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", payload, &out); err != nil {
		return nil, err
	}
	if out.AccountID == "" {
		return nil, ErrMissingAccountID
	}
	return &out, nil
}

// JobStatus fetches the latest login job of accountID.
func (c *Client) JobStatus(ctx context.Context, accountID string) (*JobView, error) {
	var out JobView
	if err := c.do(ctx, http.MethodGet, "/api/login-jobs/"+url.PathEscape(accountID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accounts lists all accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages lists all stored messages.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	var out []Message
	if err := c.do(ctx, http.MethodGet, "/api/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendReply posts a company reply and returns the stored message.
func (c *Client) SendReply(ctx context.Context, reply Reply) (*Message, error) {
	payload, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	var out Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
