// Package baas defines the capability the gateway forwards to: a hosted
// Backend-as-a-Service offering password auth and per-collection records.
package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"applitrack/internal/models"
)

// Backend is implemented by every BaaS the gateway can front.
// Implementations must be safe for concurrent use.
type Backend interface {
	// CreateUser creates an auth record from the signup fields and returns it.
	CreateUser(ctx context.Context, fields map[string]any) (json.RawMessage, error)
	// Authenticate checks the credentials and returns a token with its record.
	Authenticate(ctx context.Context, email, password string) (*models.AuthData, error)
	// ListRecords returns every record of collection visible to token.
	ListRecords(ctx context.Context, token, collection string) ([]json.RawMessage, error)
	// CreateRecord creates a record in collection on behalf of token.
	CreateRecord(ctx context.Context, token, collection string, fields map[string]any) (json.RawMessage, error)
	// RequestPasswordReset asks the BaaS to send a reset email.
	RequestPasswordReset(ctx context.Context, email string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// ErrUpstream matches every error returned by a Backend.
var ErrUpstream = errors.New("baas: upstream failure")

// Error describes a failed backend operation.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("baas %s", e.Op)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstream) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrUpstream
}

// Op names used in errors, logs and metrics.
const (
	OpCreateUser    = "create_user"
	OpAuthenticate  = "authenticate"
	OpListRecords   = "list_records"
	OpCreateRecord  = "create_record"
	OpPasswordReset = "password_reset"
	OpPing          = "ping"
)
