package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// The gateway is strictly read-only: SELECT and ASK go through, anything
// from the SPARQL Update grammar is refused before it reaches the store.
var updatePattern = regexp.MustCompile(`(?i)\b(insert|delete|load|clear|drop|create|copy|move|add)\b`)

type Config struct {
	MaxQueryLength      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 20000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{
			"application/json",
			"application/sparql-query",
			"application/x-www-form-urlencoded",
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/query") && c.Method() == "POST" {
			query, ok := extractQuery(c)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Query is required and must be a string",
				})
			}

			if len(query) > cfg.MaxQueryLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Query exceeds maximum length",
				})
			}

			if updatePattern.MatchString(query) {
				cfg.Logger.Warn("Update operation refused on read-only endpoint",
					zap.String("ip", c.IP()),
				)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "This endpoint only accepts read queries",
				})
			}

			c.Locals("sparql_query", sanitizeString(query))
		}

		return c.Next()
	}
}

// extractQuery pulls the query text from whichever body convention the
// client used: JSON {"query": ...} or a raw application/sparql-query body.
// Preset-key requests carry no query text and pass through untouched.
func extractQuery(c *fiber.Ctx) (string, bool) {
	contentType := c.Get("Content-Type")

	if strings.Contains(contentType, "application/sparql-query") {
		query := string(c.Body())
		if strings.TrimSpace(query) == "" {
			return "", false
		}
		return query, true
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return "", false
	}

	if _, hasPreset := req["preset"].(string); hasPreset {
		return "", true
	}

	query, ok := req["query"].(string)
	if !ok || query == "" {
		return "", false
	}

	return query, true
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
