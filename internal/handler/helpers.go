package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ssms-dev/ssms-api/internal/middleware"
	"github.com/ssms-dev/ssms-api/internal/service"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

const defaultPageSize = 20

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parsePagination(c *fiber.Ctx) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize
	if value := strings.TrimSpace(c.Query("page")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if value := strings.TrimSpace(c.Query("limit")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}
	return page, pageSize
}

// queryValue reads the canonical key first and falls back to an alternate
// spelling, so both dateFrom (the composed-query key) and date_from work.
func queryValue(c *fiber.Ctx, key, alternate string) string {
	if value := strings.TrimSpace(c.Query(key)); value != "" {
		return value
	}
	return strings.TrimSpace(c.Query(alternate))
}

// queryUint parses an optional numeric query parameter; malformed values are
// treated as absent.
func queryUint(c *fiber.Ctx, key string) *uint {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	value := uint(parsed)
	return &value
}

func filtersFromQuery(c *fiber.Ctx) workflow.Filters {
	return workflow.Filters{
		Status:   strings.TrimSpace(c.Query("status")),
		Class:    strings.TrimSpace(c.Query("class")),
		Subject:  strings.TrimSpace(c.Query("subject")),
		Teacher:  strings.TrimSpace(c.Query("teacher")),
		Search:   strings.TrimSpace(c.Query("search")),
		DateFrom: queryValue(c, "dateFrom", "date_from"),
		DateTo:   queryValue(c, "dateTo", "date_to"),
	}
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}
