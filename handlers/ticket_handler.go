package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"

	"ticketdesk/internal/status"
	"ticketdesk/models"
	"ticketdesk/services"
)

// TicketHandler is the dispatch layer: it maps inbound actions onto
// coordinator entry points and turns outcomes into actor-facing responses.
// Actors only ever see generic failure text; the diagnostic detail goes to
// the operational log.
type TicketHandler struct {
	lifecycle *services.LifecycleService
	logger    zerolog.Logger
}

func NewTicketHandler(lifecycle *services.LifecycleService, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{lifecycle: lifecycle, logger: logger}
}

func (h *TicketHandler) CreateTicket(c echo.Context) error {
	var req struct {
		ActorID     string `json:"actor_id"`
		ActorName   string `json:"actor_name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.ActorID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "actor_id is required"})
	}

	result, err := h.lifecycle.CreateTicket(c.Request().Context(), req.ActorID, req.ActorName, req.Description)
	if err != nil {
		return h.fail(c, "create_ticket", err, result)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *TicketHandler) GetTicket(c echo.Context) error {
	ticket, err := h.lifecycle.FindTicket(c.Request().Context(), c.PathParam("channelId"))
	if err != nil {
		return h.fail(c, "get_ticket", err, nil)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) AddParticipant(c echo.Context) error {
	var req struct {
		SubjectID string `json:"subject_id"`
	}
	if err := c.Bind(&req); err != nil || req.SubjectID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "subject_id is required"})
	}

	channel := models.ChannelRef{ID: c.PathParam("channelId")}
	result, err := h.lifecycle.AddParticipant(c.Request().Context(), channel, req.SubjectID)
	if err != nil {
		return h.fail(c, "add_participant", err, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) RemoveParticipant(c echo.Context) error {
	channel := models.ChannelRef{ID: c.PathParam("channelId")}
	result, err := h.lifecycle.RemoveParticipant(c.Request().Context(), channel, c.PathParam("subjectId"))
	if err != nil {
		return h.fail(c, "remove_participant", err, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) RequestClose(c echo.Context) error {
	channel := models.ChannelRef{ID: c.PathParam("channelId")}
	prompt, err := h.lifecycle.RequestClose(c.Request().Context(), channel)
	if err != nil {
		return h.fail(c, "request_close", err, nil)
	}
	return c.JSON(http.StatusOK, prompt)
}

func (h *TicketHandler) ConfirmArchive(c echo.Context) error {
	var req struct {
		ChannelName string `json:"channel_name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	channel := models.ChannelRef{ID: c.PathParam("channelId"), Name: req.ChannelName}
	result, err := h.lifecycle.ConfirmArchive(c.Request().Context(), channel)
	if err != nil {
		return h.fail(c, "confirm_archive", err, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) ConfirmDelete(c echo.Context) error {
	var req struct {
		ActorID string `json:"actor_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	channel := models.ChannelRef{ID: c.PathParam("channelId")}
	result, err := h.lifecycle.ConfirmDelete(c.Request().Context(), channel, req.ActorID)
	if err != nil {
		return h.fail(c, "confirm_delete", err, result)
	}
	return c.JSON(http.StatusOK, result)
}

// fail logs the full diagnostic and answers the actor with a generic body.
// The partial result rides along so the dispatch layer can tell "external
// effect happened but record is stale" from "nothing happened"; the error
// taxonomy itself never reaches the actor.
func (h *TicketHandler) fail(c echo.Context, op string, err error, partial any) error {
	h.logger.Error().Err(err).
		Str("operation", op).
		Str("path", c.Request().URL.Path).
		Msg("ticket operation failed")

	code := http.StatusInternalServerError
	message := "The requested ticket action could not be completed."

	var externalErr *status.ExternalError
	switch {
	case errors.Is(err, status.ErrTicketNotFound):
		code = http.StatusNotFound
		message = "Ticket not found."
	case errors.Is(err, status.ErrTicketDeleted):
		code = http.StatusGone
		message = "This ticket has been deleted."
	case errors.Is(err, status.ErrDuplicateTicket):
		code = http.StatusConflict
		message = "A ticket already exists for this channel."
	case errors.As(err, &externalErr):
		code = http.StatusBadGateway
	}

	body := map[string]any{"error": message}
	if partial != nil {
		body["outcome"] = partial
	}
	return c.JSON(code, body)
}
