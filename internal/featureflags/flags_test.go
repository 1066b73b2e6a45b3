package featureflags

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled_FixedValues(t *testing.T) {
	s := Parse("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, s.Enabled(name, "k"), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, s.Enabled(name, "k"), name)
	}
}

func TestEnabled_Rollout(t *testing.T) {
	s := Parse("always=100%,never=0%,canary=25%,broken=abc%")

	assert.True(t, s.Enabled("always", ""))
	assert.False(t, s.Enabled("never", "10.0.0.1"))
	assert.False(t, s.Enabled("broken", "10.0.0.1"))
	assert.False(t, s.Enabled("canary", ""), "partial rollout needs a key")

	first := s.Enabled("canary", "10.0.0.1")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Enabled("canary", "10.0.0.1"))
	}
}

func TestParse(t *testing.T) {
	s := Parse(" bad ,X=on, y = 20% ,z=off,=on,w= ")
	assert.Equal(t, []string{"x", "y", "z"}, s.Names())
	assert.True(t, s.Enabled("X", ""))

	var nilSet *Set
	assert.False(t, nilSet.Enabled("x", ""))
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status int
	}{
		{"Enabled", "password_reset=on", fiber.StatusOK},
		{"Disabled", "password_reset=off", fiber.StatusNotFound},
		{"Unset", "", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/x", Require(Parse(tt.raw), PasswordReset), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
