// Package local is an in-process stand-in for the hosted BaaS, backed by GORM.
// It reproduces the PocketBase contract the gateway relies on: password auth
// with bearer tokens, a users auth collection and owner-scoped records.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"applitrack/internal/baas"
	"applitrack/internal/middleware"
	"applitrack/internal/models"
	"applitrack/internal/observability"
	"applitrack/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	usersCollectionID = "_pb_users_auth_"
	timeLayout        = "2006-01-02 15:04:05.000Z"
	tokenTTL          = 7 * 24 * time.Hour
)

// systemFields are set by the backend and ignored on input.
var systemFields = []string{"id", "collectionId", "collectionName", "created", "updated"}

// userRow is an auth record.
type userRow struct {
	ID           string `gorm:"primaryKey;size:15"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Verified     bool
	Data         string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "baas_users" }

// recordRow is a record of any non-auth collection.
type recordRow struct {
	ID         string `gorm:"primaryKey;size:15"`
	Collection string `gorm:"index:idx_records_owner,priority:1;not null"`
	OwnerID    string `gorm:"index:idx_records_owner,priority:2"`
	Data       string `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (recordRow) TableName() string { return "baas_records" }

// Backend implements baas.Backend on a SQL database.
type Backend struct {
	db     *gorm.DB
	tokens *tokenIssuer
	now    func() time.Time
}

// New returns a backend storing into db and signing tokens with secret.
func New(db *gorm.DB, secret string) *Backend {
	return &Backend{
		db:     db,
		tokens: &tokenIssuer{secret: []byte(secret), ttl: tokenTTL},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the backend tables.
func (b *Backend) Migrate(ctx context.Context) error {
	return b.db.WithContext(ctx).AutoMigrate(&userRow{}, &recordRow{})
}

// newID returns a 15 character lowercase id like the hosted BaaS uses.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
}

func failure(op string, status int, message string) *baas.Error {
	return &baas.Error{Op: op, Status: status, Message: message}
}

// observe instruments one backend operation the same way the remote backend is.
func observe(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	ctx, span := observability.TraceUpstreamCall(ctx, "local", op)
	done := observability.TrackUpstream(op)
	defer func() {
		done(err)
		observability.EndSpan(span, err)
	}()
	return fn(ctx)
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// userData keeps the caller-supplied extras of a signup body.
func userData(fields map[string]any) map[string]any {
	extra := make(map[string]any)
	for k, v := range fields {
		switch k {
		case "email", "password", "passwordConfirm", "verified":
			continue
		}
		extra[k] = v
	}
	for _, k := range systemFields {
		delete(extra, k)
	}
	return extra
}

func decodeData(raw string) map[string]any {
	out := make(map[string]any)
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

func (u *userRow) record() (json.RawMessage, error) {
	out := decodeData(u.Data)
	out["id"] = u.ID
	out["collectionId"] = usersCollectionID
	out["collectionName"] = models.UsersCollection
	out["email"] = u.Email
	out["emailVisibility"] = false
	out["verified"] = u.Verified
	out["created"] = u.CreatedAt.UTC().Format(timeLayout)
	out["updated"] = u.UpdatedAt.UTC().Format(timeLayout)
	return json.Marshal(out)
}

func (r *recordRow) record() (json.RawMessage, error) {
	out := decodeData(r.Data)
	out["id"] = r.ID
	out["collectionId"] = "pbc_" + r.Collection
	out["collectionName"] = r.Collection
	out["created"] = r.CreatedAt.UTC().Format(timeLayout)
	out["updated"] = r.UpdatedAt.UTC().Format(timeLayout)
	return json.Marshal(out)
}

// CreateUser validates the signup fields and stores a new auth record.
func (b *Backend) CreateUser(ctx context.Context, fields map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := observe(ctx, baas.OpCreateUser, func(ctx context.Context) error {
		email := strings.ToLower(strings.TrimSpace(stringField(fields, "email")))
		password := stringField(fields, "password")

		if err := validation.ValidateEmail(email); err != nil {
			return failure(baas.OpCreateUser, 400, err.Error())
		}
		if err := validation.ValidatePassword(password); err != nil {
			return failure(baas.OpCreateUser, 400, err.Error())
		}
		if password != stringField(fields, "passwordConfirm") {
			return failure(baas.OpCreateUser, 400, "passwords don't match")
		}

		var count int64
		if err := b.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return &baas.Error{Op: baas.OpCreateUser, Err: err}
		}
		if count > 0 {
			return failure(baas.OpCreateUser, 400, "email already in use")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return &baas.Error{Op: baas.OpCreateUser, Err: err}
		}
		data, err := json.Marshal(userData(fields))
		if err != nil {
			return failure(baas.OpCreateUser, 400, "invalid fields")
		}

		now := b.now()
		user := &userRow{
			ID:           newID(),
			Email:        email,
			PasswordHash: string(hash),
			Data:         string(data),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := b.db.WithContext(ctx).Create(user).Error; err != nil {
			return &baas.Error{Op: baas.OpCreateUser, Err: err}
		}

		middleware.Logger.InfoContext(ctx, "local baas user created", slog.String("record_id", user.ID))
		out, err = user.record()
		return err
	})
	return out, err
}

// Authenticate checks email and password and issues a token.
func (b *Backend) Authenticate(ctx context.Context, email, password string) (*models.AuthData, error) {
	var out *models.AuthData
	err := observe(ctx, baas.OpAuthenticate, func(ctx context.Context) error {
		var user userRow
		err := b.db.WithContext(ctx).
			Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(baas.OpAuthenticate, 400, "Failed to authenticate.")
		}
		if err != nil {
			return &baas.Error{Op: baas.OpAuthenticate, Err: err}
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return failure(baas.OpAuthenticate, 400, "Failed to authenticate.")
		}

		token, err := b.tokens.issue(user.ID, b.now())
		if err != nil {
			return &baas.Error{Op: baas.OpAuthenticate, Err: err}
		}
		record, err := user.record()
		if err != nil {
			return &baas.Error{Op: baas.OpAuthenticate, Err: err}
		}

		out = &models.AuthData{Token: token, Record: record}
		return nil
	})
	return out, err
}

// authenticate resolves token to an existing user id.
func (b *Backend) authenticate(ctx context.Context, op, token string) (string, error) {
	userID, err := b.tokens.verify(token, b.now())
	if err != nil {
		return "", failure(op, 401, "The request requires valid record authorization token.")
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return "", &baas.Error{Op: op, Err: err}
	}
	if count == 0 {
		return "", failure(op, 401, "The request requires valid record authorization token.")
	}
	return userID, nil
}

// ListRecords returns the caller's records of collection, oldest first.
// Listing the users collection yields the caller's own record.
func (b *Backend) ListRecords(ctx context.Context, token, collection string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0)
	err := observe(ctx, baas.OpListRecords, func(ctx context.Context) error {
		userID, err := b.authenticate(ctx, baas.OpListRecords, token)
		if err != nil {
			return err
		}

		if collection == models.UsersCollection {
			var user userRow
			if err := b.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
				return &baas.Error{Op: baas.OpListRecords, Err: err}
			}
			rec, err := user.record()
			if err != nil {
				return &baas.Error{Op: baas.OpListRecords, Err: err}
			}
			out = append(out, rec)
			return nil
		}

		var rows []recordRow
		if err := b.db.WithContext(ctx).
			Where("collection = ? AND owner_id = ?", collection, userID).
			Order("created_at ASC, id ASC").
			Find(&rows).Error; err != nil {
			return &baas.Error{Op: baas.OpListRecords, Err: err}
		}

		for i := range rows {
			rec, err := rows[i].record()
			if err != nil {
				return &baas.Error{Op: baas.OpListRecords, Err: err}
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRecord stores fields in collection owned by the caller.
// The user field defaults to the caller and must match it when given.
func (b *Backend) CreateRecord(ctx context.Context, token, collection string, fields map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := observe(ctx, baas.OpCreateRecord, func(ctx context.Context) error {
		userID, err := b.authenticate(ctx, baas.OpCreateRecord, token)
		if err != nil {
			return err
		}
		if collection == models.UsersCollection {
			return failure(baas.OpCreateRecord, 403, "Only signup can create auth records.")
		}

		data := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			data[k] = v
		}
		for _, k := range systemFields {
			delete(data, k)
		}

		switch owner := data["user"].(type) {
		case nil:
			data["user"] = userID
		case string:
			if owner == "" {
				data["user"] = userID
			} else if owner != userID {
				return failure(baas.OpCreateRecord, 400, "Failed to create record.")
			}
		default:
			return failure(baas.OpCreateRecord, 400, "Failed to create record.")
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return failure(baas.OpCreateRecord, 400, "Failed to create record.")
		}

		now := b.now()
		row := &recordRow{
			ID:         newID(),
			Collection: collection,
			OwnerID:    userID,
			Data:       string(raw),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := b.db.WithContext(ctx).Create(row).Error; err != nil {
			return &baas.Error{Op: baas.OpCreateRecord, Err: err}
		}

		out, err = row.record()
		return err
	})
	return out, err
}

// RequestPasswordReset succeeds for any well-formed email so callers cannot probe accounts.
// No mail is sent; the request is only logged.
func (b *Backend) RequestPasswordReset(ctx context.Context, email string) error {
	return observe(ctx, baas.OpPasswordReset, func(ctx context.Context) error {
		email = strings.ToLower(strings.TrimSpace(email))
		if err := validation.ValidateEmail(email); err != nil {
			return failure(baas.OpPasswordReset, 400, err.Error())
		}

		var user userRow
		err := b.db.WithContext(ctx).Select("id").Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		case err != nil:
			return &baas.Error{Op: baas.OpPasswordReset, Err: err}
		}

		middleware.Logger.InfoContext(ctx, "local baas password reset requested", slog.String("record_id", user.ID))
		return nil
	})
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return &baas.Error{Op: baas.OpPing, Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &baas.Error{Op: baas.OpPing, Err: err}
	}
	return nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("local(%s)", b.db.Dialector.Name())
}
