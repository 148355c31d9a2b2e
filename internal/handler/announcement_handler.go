package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/famboard/dispatch-engine/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AnnouncementService interface {
	CreateAnnouncement(ctx context.Context, a *domain.Announcement, sendNow bool) (*domain.Announcement, error)
	CreateEvent(ctx context.Context, e *domain.Event) (*domain.Event, error)
	CreateEventReminder(ctx context.Context, r *domain.EventReminder, sendNow bool) (*domain.EventReminder, error)
	GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error)
}

type ProgressReporter interface {
	Progress(ctx context.Context, itemType domain.ItemType, itemID string) (*service.DeliveryProgress, error)
	Attempts(ctx context.Context, itemType domain.ItemType, itemID string, filter service.AttemptFilter) ([]domain.DeliveryAttempt, error)
}

type AnnouncementHandler struct {
	service  AnnouncementService
	progress ProgressReporter
}

func NewAnnouncementHandler(service AnnouncementService, progress ProgressReporter) (*AnnouncementHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("announcement service is required")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress reporter is required")
	}
	return &AnnouncementHandler{service: service, progress: progress}, nil
}

// RegisterAnnouncementRoutes mounts the triggering API. writeGuard and
// dispatchGuard are rate-limit middlewares; pass nil to mount unguarded (tests).
func RegisterAnnouncementRoutes(
	router fiber.Router,
	service AnnouncementService,
	progress ProgressReporter,
	dispatchGuard fiber.Handler,
	writeGuard fiber.Handler,
) error {
	h, err := NewAnnouncementHandler(service, progress)
	if err != nil {
		return err
	}

	noGuard := func(c *fiber.Ctx) error { return c.Next() }
	if dispatchGuard == nil {
		dispatchGuard = noGuard
	}
	if writeGuard == nil {
		writeGuard = noGuard
	}

	v1 := router.Group("/v1")
	v1.Post("/announcements", dispatchGuard, h.CreateAnnouncement)
	v1.Get("/announcements/:id", writeGuard, h.GetAnnouncement)
	v1.Get("/announcements/:id/delivery", writeGuard, h.GetAnnouncementDelivery)
	v1.Get("/announcements/:id/delivery/attempts", writeGuard, h.GetAnnouncementDeliveryAttempts)
	v1.Post("/events", dispatchGuard, h.CreateEvent)
	v1.Post("/events/:id/reminders", dispatchGuard, h.CreateEventReminder)
	v1.Get("/reminders/:id/delivery", writeGuard, h.GetReminderDelivery)
	v1.Get("/reminders/:id/delivery/attempts", writeGuard, h.GetReminderDeliveryAttempts)

	return nil
}

type createAnnouncementRequest struct {
	GroupID     string     `json:"groupId"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	SendNow     *bool      `json:"sendNow"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type createEventRequest struct {
	GroupID     string     `json:"groupId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"startsAt"`
}

type createEventReminderRequest struct {
	CustomMessage *string    `json:"customMessage"`
	Initial       bool       `json:"initial"`
	SendNow       *bool      `json:"sendNow"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
}

type announcementResponse struct {
	ID                string     `json:"id"`
	GroupID           string     `json:"groupId"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	ScheduledAt       *time.Time `json:"scheduledAt,omitempty"`
	ScheduledResendAt *time.Time `json:"scheduledResendAt,omitempty"`
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt,omitempty"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type eventReminderResponse struct {
	ID                string     `json:"id"`
	EventID           string     `json:"eventId"`
	GroupID           string     `json:"groupId"`
	CustomMessage     *string    `json:"customMessage,omitempty"`
	Initial           bool       `json:"initial"`
	ScheduledAt       *time.Time `json:"scheduledAt,omitempty"`
	ScheduledResendAt *time.Time `json:"scheduledResendAt,omitempty"`
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
}

type deliveryProgressResponse struct {
	ItemType string                   `json:"itemType"`
	ItemID   string                   `json:"itemId"`
	Total    int                      `json:"total"`
	Counts   []deliveryStatusCountRow `json:"counts"`
}

type deliveryStatusCountRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type deliveryAttemptsResponse struct {
	ItemType string               `json:"itemType"`
	ItemID   string               `json:"itemId"`
	Attempts []deliveryAttemptRow `json:"attempts"`
}

type deliveryAttemptRow struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Channel           string    `json:"channel"`
	Status            string    `json:"status"`
	ProviderMessageID *string   `json:"providerMessageId,omitempty"`
	Error             *string   `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (h *AnnouncementHandler) CreateAnnouncement(c *fiber.Ctx) error {
	var req createAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	announcement := domain.Announcement{
		GroupID:     strings.TrimSpace(req.GroupID),
		Title:       req.Title,
		Body:        req.Body,
		ScheduledAt: req.ScheduledAt,
	}

	created, err := h.service.CreateAnnouncement(c.Context(), &announcement, sendNowOrDefault(req.SendNow))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toAnnouncementResponse(created))
}

func (h *AnnouncementHandler) GetAnnouncement(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	announcement, err := h.service.GetAnnouncement(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toAnnouncementResponse(announcement))
}

func (h *AnnouncementHandler) GetAnnouncementDelivery(c *fiber.Ctx) error {
	return h.deliveryProgress(c, domain.ItemTypeAnnouncement)
}

func (h *AnnouncementHandler) GetReminderDelivery(c *fiber.Ctx) error {
	return h.deliveryProgress(c, domain.ItemTypeEventReminder)
}

func (h *AnnouncementHandler) GetAnnouncementDeliveryAttempts(c *fiber.Ctx) error {
	return h.deliveryAttempts(c, domain.ItemTypeAnnouncement)
}

func (h *AnnouncementHandler) GetReminderDeliveryAttempts(c *fiber.Ctx) error {
	return h.deliveryAttempts(c, domain.ItemTypeEventReminder)
}

// deliveryAttempts serves the per-attempt view of the ledger. Optional
// channel and status query params narrow the listing.
func (h *AnnouncementHandler) deliveryAttempts(c *fiber.Ctx, itemType domain.ItemType) error {
	id := strings.TrimSpace(c.Params("id"))

	var filter service.AttemptFilter
	if raw := c.Query("channel"); raw != "" {
		channel, err := domain.ParseChannelFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		filter.Channel = &channel
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseAttemptStatusFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		filter.Status = &status
	}

	attempts, err := h.progress.Attempts(c.Context(), itemType, id, filter)
	if err != nil {
		return toHTTPError(err)
	}

	rows := make([]deliveryAttemptRow, 0, len(attempts))
	for _, attempt := range attempts {
		rows = append(rows, deliveryAttemptRow{
			ID:                attempt.ID,
			UserID:            attempt.UserID,
			Channel:           attempt.Channel.String(),
			Status:            attempt.Status.String(),
			ProviderMessageID: attempt.ProviderMessageID,
			Error:             attempt.Error,
			CreatedAt:         attempt.CreatedAt,
			UpdatedAt:         attempt.UpdatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(deliveryAttemptsResponse{
		ItemType: itemType.String(),
		ItemID:   id,
		Attempts: rows,
	})
}

func (h *AnnouncementHandler) deliveryProgress(c *fiber.Ctx, itemType domain.ItemType) error {
	id := strings.TrimSpace(c.Params("id"))
	progress, err := h.progress.Progress(c.Context(), itemType, id)
	if err != nil {
		return toHTTPError(err)
	}

	counts := make([]deliveryStatusCountRow, 0, len(progress.Counts))
	for _, count := range progress.Counts {
		counts = append(counts, deliveryStatusCountRow{
			Status: count.Status.String(),
			Count:  count.Count,
		})
	}

	return c.Status(fiber.StatusOK).JSON(deliveryProgressResponse{
		ItemType: progress.ItemType.String(),
		ItemID:   progress.ItemID,
		Total:    progress.Total,
		Counts:   counts,
	})
}

func (h *AnnouncementHandler) CreateEvent(c *fiber.Ctx) error {
	var req createEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.StartsAt == nil {
		return toHTTPError(fmt.Errorf("%w: startsAt is required", domain.ErrValidation))
	}

	event := domain.Event{
		GroupID:     strings.TrimSpace(req.GroupID),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    *req.StartsAt,
	}

	created, err := h.service.CreateEvent(c.Context(), &event)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEventResponse(created))
}

func (h *AnnouncementHandler) CreateEventReminder(c *fiber.Ctx) error {
	var req createEventReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	reminder := domain.EventReminder{
		EventID:       strings.TrimSpace(c.Params("id")),
		CustomMessage: req.CustomMessage,
		Initial:       req.Initial,
		ScheduledAt:   req.ScheduledAt,
	}

	created, err := h.service.CreateEventReminder(c.Context(), &reminder, sendNowOrDefault(req.SendNow))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEventReminderResponse(created))
}

// sendNow defaults to true when omitted.
func sendNowOrDefault(sendNow *bool) bool {
	if sendNow == nil {
		return true
	}
	return *sendNow
}

func toAnnouncementResponse(a *domain.Announcement) announcementResponse {
	if a == nil {
		return announcementResponse{}
	}

	return announcementResponse{
		ID:                a.ID,
		GroupID:           a.GroupID,
		Title:             a.Title,
		Body:              a.Body,
		ScheduledAt:       a.ScheduledAt,
		ScheduledResendAt: a.ScheduledResendAt,
		PublishedAt:       a.PublishedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toEventResponse(e *domain.Event) eventResponse {
	if e == nil {
		return eventResponse{}
	}

	return eventResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toEventReminderResponse(r *domain.EventReminder) eventReminderResponse {
	if r == nil {
		return eventReminderResponse{}
	}

	return eventReminderResponse{
		ID:                r.ID,
		EventID:           r.EventID,
		GroupID:           r.GroupID,
		CustomMessage:     r.CustomMessage,
		Initial:           r.Initial,
		ScheduledAt:       r.ScheduledAt,
		ScheduledResendAt: r.ScheduledResendAt,
		PublishedAt:       r.PublishedAt,
		CreatedAt:         r.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return err
	}
}
