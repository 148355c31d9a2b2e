package handler

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const bearerPrefix = "Bearer "

// Sweeper runs one pass over due scheduled items.
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

type SweepHandler struct {
	sweeper Sweeper
	secret  string
}

func NewSweepHandler(sweeper Sweeper, secret string) (*SweepHandler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("cron secret is required")
	}
	return &SweepHandler{sweeper: sweeper, secret: secret}, nil
}

func RegisterSweepRoutes(router fiber.Router, sweeper Sweeper, secret string) error {
	h, err := NewSweepHandler(sweeper, secret)
	if err != nil {
		return err
	}

	// All methods mount here so non-POST yields 405 instead of 404.
	router.All("/internal/cron/sweep", h.Sweep)

	return nil
}

func (h *SweepHandler) Sweep(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "method not allowed")
	}

	if !h.authorized(c.Get(fiber.HeaderAuthorization)) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid cron secret")
	}

	processed, err := h.sweeper.RunOnce(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"processed": processed,
	})
}

func (h *SweepHandler) authorized(header string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
