// Package pocketbase implements baas.Backend against the PocketBase REST API.
package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"applitrack/internal/baas"
	"applitrack/internal/models"
	"applitrack/internal/observability"

	"github.com/go-resty/resty/v2"
)

// fullListBatch is the page size used to drain a collection.
const fullListBatch = 500

// Client talks to a PocketBase instance. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// apiError is the error envelope PocketBase returns.
type apiError struct {
	Status  int                        `json:"status"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

type listPage struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
	Items      []json.RawMessage `json:"items"`
}

// New returns a client for the PocketBase instance at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &Client{http: r}
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

// request starts a call carrying ctx and, when set, the caller's token.
// PocketBase expects the raw token in Authorization.
func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&apiError{})
	if token != "" {
		req.SetHeader("Authorization", token)
	}
	return req
}

// do runs one instrumented call and converts transport and API failures into *baas.Error.
func (c *Client) do(ctx context.Context, op string, call func(ctx context.Context) (*resty.Response, error)) (err error) {
	ctx, span := observability.TraceUpstreamCall(ctx, "pocketbase", op)
	done := observability.TrackUpstream(op)
	defer func() {
		done(err)
		observability.EndSpan(span, err)
	}()

	resp, err := call(ctx)
	if err != nil {
		return &baas.Error{Op: op, Err: err}
	}
	if resp.IsError() {
		be := &baas.Error{Op: op, Status: resp.StatusCode()}
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr != nil {
			be.Message = apiErr.Message
		}
		return be
	}
	return nil
}

// CreateUser creates a record in the users collection.
func (c *Client) CreateUser(ctx context.Context, fields map[string]any) (json.RawMessage, error) {
	var user json.RawMessage
	err := c.do(ctx, baas.OpCreateUser, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx, "").
			SetBody(fields).
			SetResult(&user).
			Post(recordsPath(models.UsersCollection))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate performs auth-with-password on the users collection.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*models.AuthData, error) {
	var auth models.AuthData
	err := c.do(ctx, baas.OpAuthenticate, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx, "").
			SetBody(map[string]string{"identity": email, "password": password}).
			SetResult(&auth).
			Post("/api/collections/" + models.UsersCollection + "/auth-with-password")
	})
	if err != nil {
		return nil, err
	}
	if auth.Token == "" {
		return nil, &baas.Error{Op: baas.OpAuthenticate, Message: "response carries no token"}
	}
	return &auth, nil
}

// ListRecords pages through collection until a short page is returned.
func (c *Client) ListRecords(ctx context.Context, token, collection string) ([]json.RawMessage, error) {
	items := make([]json.RawMessage, 0)
	for page := 1; ; page++ {
		var result listPage
		err := c.do(ctx, baas.OpListRecords, func(ctx context.Context) (*resty.Response, error) {
			return c.request(ctx, token).
				SetQueryParams(map[string]string{
					"page":      strconv.Itoa(page),
					"perPage":   strconv.Itoa(fullListBatch),
					"skipTotal": "1",
				}).
				SetResult(&result).
				Get(recordsPath(collection))
		})
		if err != nil {
			return nil, err
		}

		items = append(items, result.Items...)
		if len(result.Items) < fullListBatch {
			return items, nil
		}
	}
}

// CreateRecord creates a record in collection on behalf of token.
func (c *Client) CreateRecord(ctx context.Context, token, collection string, fields map[string]any) (json.RawMessage, error) {
	var record json.RawMessage
	err := c.do(ctx, baas.OpCreateRecord, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx, token).
			SetBody(fields).
			SetResult(&record).
			Post(recordsPath(collection))
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RequestPasswordReset asks PocketBase to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, baas.OpPasswordReset, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx, "").
			SetBody(map[string]string{"email": email}).
			Post("/api/collections/" + models.UsersCollection + "/request-password-reset")
	})
}

// Ping calls the PocketBase health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, baas.OpPing, func(ctx context.Context) (*resty.Response, error) {
		return c.request(ctx, "").Get("/api/health")
	})
}

func (c *Client) String() string {
	return fmt.Sprintf("pocketbase(%s)", c.http.BaseURL)
}
