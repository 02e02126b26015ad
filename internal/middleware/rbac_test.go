package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ssms-dev/ssms-api/internal/models"
)

func TestRequireRoleGrading(t *testing.T) {
	cases := []struct {
		name string
		role string
		want int
	}{
		{name: "teacher allowed", role: models.RoleTeacher, want: fiber.StatusOK},
		{name: "admin allowed", role: models.RoleAdmin, want: fiber.StatusOK},
		{name: "student rejected", role: models.RoleStudent, want: fiber.StatusForbidden},
		{name: "parent rejected", role: models.RoleParent, want: fiber.StatusForbidden},
		{name: "anonymous rejected", role: "", want: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != "" {
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Use(RequireRole(models.RoleTeacher, models.RoleAdmin))
			app.Get("/grades", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/grades", nil))
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestRequireRoleNormalizesCase(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", " Teacher ")
		return c.Next()
	})
	app.Use(RequireRole(models.RoleTeacher))
	app.Get("/grades", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/grades", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
