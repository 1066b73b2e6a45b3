// Package client is the Go front end of Applitrack: an HTTP client for the
// gateway plus the session state the CLI renders.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"applitrack/internal/models"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the gateway address of a local development setup.
const DefaultBaseURL = "http://localhost:8375"

// APIError is a non-2xx gateway response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("applitrack api: status %d", e.Status)
	}
	return fmt.Sprintf("applitrack api: %s (status %d)", e.Message, e.Status)
}

// Client calls the gateway routes.
type Client struct {
	http *resty.Client
}

// New returns a client for the gateway at baseURL.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path, token string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetBody(body).SetError(&errorBody{})
	if result != nil {
		req.SetResult(result)
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post(path)
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("applitrack api: %w", err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if body, ok := resp.Error().(*errorBody); ok {
			apiErr.Message = body.Error
		}
		return apiErr
	}
	return nil
}

// Signup creates an account and returns the new user.
func (c *Client) Signup(ctx context.Context, email, password, passwordConfirm string) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.post(ctx, "/signup", "", map[string]string{
		"email":           email,
		"password":        password,
		"passwordConfirm": passwordConfirm,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and returns the token with the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthData, error) {
	var out struct {
		AuthData models.AuthData `json:"authData"`
	}
	err := c.post(ctx, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.AuthData, nil
}

// Posts lists the caller's job applications.
func (c *Client) Posts(ctx context.Context, token string) ([]models.JobApplication, error) {
	var out struct {
		Posts []models.JobApplication `json:"posts"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/posts")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// CreatePost records a job application.
func (c *Client) CreatePost(ctx context.Context, token string, job models.JobApplication) (*models.JobApplication, error) {
	var out struct {
		Post models.JobApplication `json:"post"`
	}
	if err := c.post(ctx, "/createPost", token, job, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// RequestPasswordReset asks for a reset email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/requestPasswordReset", "", map[string]string{"email": email}, nil)
}

// userID extracts the id of a raw user record.
func userID(record json.RawMessage) string {
	var u struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(record, &u)
	return u.ID
}
