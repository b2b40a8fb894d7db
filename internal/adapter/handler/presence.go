package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/errors"
	huddledto "github.com/huddleplan/huddle-pipeline/internal/adapter/dto/huddle"
	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	presenceUsecase "github.com/huddleplan/huddle-pipeline/internal/usecase/presence"
)

// Presence handles heartbeat and participant list requests
type Presence struct {
	presenceService presenceUsecase.Service
	logger          *zap.Logger
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(presenceService presenceUsecase.Service, logger *zap.Logger) *Presence {
	return &Presence{
		presenceService: presenceService,
		logger:          logger,
	}
}

// Heartbeat handles PUT /huddles/:id/presence
func (h *Presence) Heartbeat(c echo.Context) error {
	huddleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("huddle id must be a valid UUID"))
	}

	participantID, ok := c.Get(ctxParticipantID).(uuid.UUID)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	tokenHuddle, ok := c.Get(ctxHuddleID).(uuid.UUID)
	if !ok || tokenHuddle != huddleID {
		return HandleError(h.logger, c, errors.ErrForbidden("token is not valid for this huddle"))
	}

	var req huddledto.HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName, _ = c.Get(ctxDisplayName).(string)
	}
	role := entities.ParticipantRole(req.Role)
	if role == "" {
		tokenRole, _ := c.Get(ctxRole).(string)
		role = entities.ParticipantRole(tokenRole)
	}

	if err := h.presenceService.Heartbeat(c.Request().Context(), huddleID, participantID, displayName, role); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"message": "heartbeat recorded",
	})
}

// ListParticipants handles GET /huddles/:id/presence
func (h *Presence) ListParticipants(c echo.Context) error {
	huddleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("huddle id must be a valid UUID"))
	}

	participants, err := h.presenceService.ListParticipants(c.Request().Context(), huddleID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &huddledto.PresenceListResponse{
		Participants: participants,
		Total:        len(participants),
	})
}
