package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"praxis/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func generateToken(userID uint, exp time.Duration) string {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(exp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, _ := token.SignedString([]byte(testSecret))
	return s
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret}, func(ctx context.Context, userID uint) (string, error) {
		return "user", nil
	})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{
			name:           "Happy Path",
			authHeader:     "Bearer " + generateToken(123, time.Hour),
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{
			name:           "Missing Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Format",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Token",
			authHeader:     "Bearer malformed.token.here",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateToken(123, -time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
					assert.Equal(t, float64(tt.expectedUserID), body["userID"])
				}
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret}, func(ctx context.Context, userID uint) (string, error) {
		return "user", nil
	})

	app.Get("/test", OptionalAuth, func(c *fiber.Ctx) error {
		if uid, ok := c.Locals("userID").(uint); ok {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": uid})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"anonymous": true})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		anonymous      bool
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(7, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "No Header Proceeds Anonymously",
			authHeader:     "",
			expectedStatus: http.StatusOK,
			anonymous:      true,
		},
		{
			name:           "Invalid Token Is Rejected",
			authHeader:     "Bearer garbage",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
					_, hasUser := body["userID"]
					assert.Equal(t, !tt.anonymous, hasUser)
				}
			}
		})
	}
}

func TestModeratorRequired(t *testing.T) {
	roles := map[uint]string{1: "admin", 2: "moderator", 3: "user"}
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret}, func(ctx context.Context, userID uint) (string, error) {
		return roles[userID], nil
	})

	app.Get("/mod", AuthRequired, ModeratorRequired, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"role": c.Locals("userRole")})
	})

	tests := []struct {
		name           string
		userID         uint
		expectedStatus int
	}{
		{name: "Admin Allowed", userID: 1, expectedStatus: http.StatusOK},
		{name: "Moderator Allowed", userID: 2, expectedStatus: http.StatusOK},
		{name: "Regular User Forbidden", userID: 3, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/mod", nil)
			req.Header.Set("Authorization", "Bearer "+generateToken(tt.userID, time.Hour))

			resp, err := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
