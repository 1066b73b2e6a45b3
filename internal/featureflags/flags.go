// Package featureflags toggles optional gateway routes from a key=value list,
// e.g. "password_reset=on,beta_dashboard=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PasswordReset gates POST /requestPasswordReset.
const PasswordReset = "password_reset"

// Set holds the parsed flag values.
type Set struct {
	values map[string]string
}

// Parse builds a Set from a comma separated list. Malformed pairs are skipped.
func Parse(raw string) *Set {
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		values[key] = value
	}
	return &Set{values: values}
}

// Enabled evaluates name for the caller identified by key.
// on/true/1 and off/false/0 are fixed; "N%" enables a stable N percent of keys.
// Unknown flags are off.
func (s *Set) Enabled(name, key string) bool {
	if s == nil {
		return false
	}
	value, ok := s.values[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := percentage(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case key == "":
		return false
	}
	return bucket(name, key) < pct
}

// Names lists the configured flags in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require responds 404 when name is off for the caller, as if the route did not exist.
// The rollout key is the client IP.
func Require(s *Set, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.Enabled(name, c.IP()) {
			return fiber.ErrNotFound
		}
		return c.Next()
	}
}

func percentage(value string) (int, bool) {
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + key))
	return int(h.Sum32() % 100)
}
