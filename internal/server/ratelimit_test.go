package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSignup_RateLimitedFromConfigEnv(t *testing.T) {
	// Production comes from config only; the process env says nothing.
	t.Setenv("APP_ENV", "")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	backend := new(MockBackend)
	backend.On("CreateUser", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"id":"abc123def456ghi","email":"a@b.com"}`), nil)

	cfg := testConfig()
	cfg.Env = "production"
	app := NewServer(cfg, backend, rdb).App()

	body := `{"email":"a@b.com","password":"pw123456","passwordConfirm":"pw123456"}`
	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		statuses = append(statuses, doRequest(t, app, http.MethodPost, "/signup", body, nil).status)
	}

	assert.Equal(t, []int{
		fiber.StatusCreated, fiber.StatusCreated, fiber.StatusCreated, fiber.StatusTooManyRequests,
	}, statuses)
	assert.True(t, mr.Exists("rl:signup:ip:0.0.0.0"))
	backend.AssertNumberOfCalls(t, "CreateUser", 3)
}

func TestSignup_NotRateLimitedInTestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	backend := new(MockBackend)
	backend.On("CreateUser", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"id":"abc123def456ghi"}`), nil)

	app := NewServer(testConfig(), backend, rdb).App()

	body := `{"email":"a@b.com","password":"pw123456","passwordConfirm":"pw123456"}`
	for i := 0; i < 5; i++ {
		resp := doRequest(t, app, http.MethodPost, "/signup", body, nil)
		assert.Equal(t, fiber.StatusCreated, resp.status)
	}
	assert.Empty(t, mr.Keys())
}
