// Package guardware adapts auth.Guard to Fiber handlers: a declarative
// checkpoint in front of a route, with a caller-supplied fallback on deny.
package guardware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskdeck/go-auth"
)

// SessionSource provides the session snapshot the guard evaluates against.
// *auth.SessionController satisfies it.
type SessionSource interface {
	Snapshot() auth.SessionSnapshot
}

type Config struct {
	// Session is required
	Session SessionSource

	// Guard holds the role/permission requirements. The zero guard admits
	// any authenticated user.
	Guard auth.Guard

	// Fallback runs when the guard denies. Defaults to an empty 403, the
	// handler equivalent of rendering nothing.
	Fallback fiber.Handler

	// Filter skips the guard entirely when it returns true
	Filter func(c *fiber.Ctx) bool
}

// New returns a Fiber middleware enforcing the configured guard.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		snap := cfg.Session.Snapshot()
		if !cfg.Guard.Allows(snap.State, snap.User) {
			return cfg.Fallback(c)
		}

		return c.Next()
	}
}

func configDefault(config ...Config) Config {
	if len(config) == 0 {
		panic("guardware: missing configuration")
	}

	cfg := config[0]

	if cfg.Session == nil {
		panic("guardware: Config.Session is required")
	}

	if cfg.Fallback == nil {
		cfg.Fallback = func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusForbidden)
		}
	}

	return cfg
}
