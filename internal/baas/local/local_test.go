package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"applitrack/internal/baas"
	"applitrack/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupBackend(t *testing.T) *Backend {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	b := New(db, "test-secret")
	require.NoError(t, b.Migrate(context.Background()))
	return b
}

func signupFields(email, password string) map[string]any {
	return map[string]any{
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
	}
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func login(t *testing.T, b *Backend, email, password string) (string, string) {
	t.Helper()
	_, err := b.CreateUser(context.Background(), signupFields(email, password))
	require.NoError(t, err)
	auth, err := b.Authenticate(context.Background(), email, password)
	require.NoError(t, err)
	return auth.Token, decode(t, auth.Record)["id"].(string)
}

func TestCreateUser(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	fields := signupFields("Jane@Example.com", "pw123456")
	fields["name"] = "Jane"

	raw, err := b.CreateUser(ctx, fields)
	require.NoError(t, err)

	user := decode(t, raw)
	assert.Len(t, user["id"], 15)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Equal(t, "Jane", user["name"])
	assert.Equal(t, models.UsersCollection, user["collectionName"])
	assert.Equal(t, usersCollectionID, user["collectionId"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordConfirm")

	_, err = time.Parse(timeLayout, user["created"].(string))
	assert.NoError(t, err)
}

func TestCreateUser_Rejections(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	_, err := b.CreateUser(ctx, signupFields("taken@example.com", "pw123456"))
	require.NoError(t, err)

	mismatch := signupFields("other@example.com", "pw123456")
	mismatch["passwordConfirm"] = "pw654321"

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"Invalid email", signupFields("not-an-email", "pw123456")},
		{"Short password", signupFields("short@example.com", "pw1")},
		{"Password mismatch", mismatch},
		{"Duplicate email", signupFields("TAKEN@example.com", "pw123456")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.CreateUser(ctx, tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, baas.ErrUpstream))

			var be *baas.Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, 400, be.Status)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := b.CreateUser(ctx, signupFields(email, "pw123456"))
	require.NoError(t, err)

	t.Run("Valid credentials", func(t *testing.T) {
		auth, err := b.Authenticate(ctx, email, "pw123456")
		require.NoError(t, err)
		assert.NotEmpty(t, auth.Token)

		record := decode(t, auth.Record)
		userID, err := b.tokens.verify(auth.Token, time.Now())
		require.NoError(t, err)
		assert.Equal(t, record["id"], userID)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := b.Authenticate(ctx, email, "wrong-password")
		assert.True(t, errors.Is(err, baas.ErrUpstream))
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := b.Authenticate(ctx, "nobody@example.com", "pw123456")
		assert.True(t, errors.Is(err, baas.ErrUpstream))
	})
}

func TestTokenIssuer(t *testing.T) {
	issuer := &tokenIssuer{secret: []byte("secret"), ttl: time.Hour}
	now := time.Now()

	token, err := issuer.issue("abc123def456ghi", now)
	require.NoError(t, err)

	id, err := issuer.verify(token, now)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456ghi", id)

	_, err = issuer.verify(token, now.Add(2*time.Hour))
	assert.Error(t, err, "expired token must be rejected")

	other := &tokenIssuer{secret: []byte("other"), ttl: time.Hour}
	_, err = other.verify(token, now)
	assert.Error(t, err, "token signed with another secret must be rejected")

	_, err = issuer.verify("", now)
	assert.Error(t, err)
}

func TestRecords_OwnerScoped(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	aliceToken, aliceID := login(t, b, "alice@example.com", "pw123456")
	bobToken, _ := login(t, b, "bob@example.com", "pw123456")

	posts, err := b.ListRecords(ctx, aliceToken, models.PostsCollection)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	raw, err := b.CreateRecord(ctx, aliceToken, models.PostsCollection, map[string]any{
		"company":  gofakeit.Company(),
		"position": gofakeit.JobTitle(),
		"status":   1,
	})
	require.NoError(t, err)
	created := decode(t, raw)
	assert.Equal(t, aliceID, created["user"], "owner defaults to the caller")
	assert.Equal(t, models.PostsCollection, created["collectionName"])

	alicePosts, err := b.ListRecords(ctx, aliceToken, models.PostsCollection)
	require.NoError(t, err)
	require.Len(t, alicePosts, 1)
	assert.Equal(t, created["id"], decode(t, alicePosts[0])["id"])

	bobPosts, err := b.ListRecords(ctx, bobToken, models.PostsCollection)
	require.NoError(t, err)
	assert.Empty(t, bobPosts)
}

func TestCreateRecord_OwnerMismatch(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	_, aliceID := login(t, b, "alice@example.com", "pw123456")
	bobToken, _ := login(t, b, "bob@example.com", "pw123456")

	_, err := b.CreateRecord(ctx, bobToken, models.PostsCollection, map[string]any{
		"user":     aliceID,
		"company":  "Acme",
		"position": "Engineer",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, baas.ErrUpstream))
}

func TestRecords_InvalidToken(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	_, err := b.ListRecords(ctx, "garbage", models.PostsCollection)
	var be *baas.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 401, be.Status)

	_, err = b.CreateRecord(ctx, "", models.PostsCollection, map[string]any{"company": "Acme"})
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 401, be.Status)
}

func TestListRecords_UsersCollection(t *testing.T) {
	b := setupBackend(t)
	token, id := login(t, b, "alice@example.com", "pw123456")
	login(t, b, "bob@example.com", "pw123456")

	users, err := b.ListRecords(context.Background(), token, models.UsersCollection)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, id, decode(t, users[0])["id"])
}

func TestRequestPasswordReset(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	login(t, b, "alice@example.com", "pw123456")

	assert.NoError(t, b.RequestPasswordReset(ctx, "alice@example.com"))
	assert.NoError(t, b.RequestPasswordReset(ctx, "unknown@example.com"))
	assert.Error(t, b.RequestPasswordReset(ctx, "not-an-email"))
}

func TestPing(t *testing.T) {
	b := setupBackend(t)
	assert.NoError(t, b.Ping(context.Background()))
	assert.Equal(t, "local(sqlite)", b.String())
}
