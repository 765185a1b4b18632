package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newRoleGateApp(role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(RequireRole("admin", "teacher"))
	app.Get("/manual-scores", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	for _, role := range []string{"admin", "teacher", " Admin "} {
		app := newRoleGateApp(role)

		req := httptest.NewRequest(http.MethodGet, "/manual-scores", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "role %q", role)
	}
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	app := newRoleGateApp("student")

	req := httptest.NewRequest(http.MethodGet, "/manual-scores", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	app := newRoleGateApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/manual-scores", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
