package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/errors"
	huddledto "github.com/huddleplan/huddle-pipeline/internal/adapter/dto/huddle"
	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
	"github.com/huddleplan/huddle-pipeline/pkg/jwt"
)

// Huddle handles huddle lifecycle requests
type Huddle struct {
	huddles      repositories.HuddleRepository
	tokens       *jwt.Manager
	accessExpiry time.Duration
	logger       *zap.Logger
}

// NewHuddleHandler creates a new huddle handler
func NewHuddleHandler(huddles repositories.HuddleRepository, tokens *jwt.Manager, accessExpiry time.Duration, logger *zap.Logger) *Huddle {
	return &Huddle{
		huddles:      huddles,
		tokens:       tokens,
		accessExpiry: accessExpiry,
		logger:       logger,
	}
}

// CreateHuddle handles POST /huddles
func (h *Huddle) CreateHuddle(c echo.Context) error {
	var req huddledto.CreateHuddleRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	huddle := entities.NewHuddle(req.Title)
	if err := h.huddles.Create(c.Request().Context(), huddle); err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, huddledto.ToHuddleResponse(huddle))
}

// GetHuddle handles GET /huddles/:id
func (h *Huddle) GetHuddle(c echo.Context) error {
	huddleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("huddle id must be a valid UUID"))
	}

	huddle, err := h.huddles.FindByID(c.Request().Context(), huddleID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}
	if huddle == nil {
		return HandleError(h.logger, c, errors.ErrHuddleNotFound(huddleID.String()))
	}

	return HandleSuccess(h.logger, c, huddledto.ToHuddleResponse(huddle))
}

// JoinHuddle handles POST /huddles/:id/join, issuing a huddle-scoped access
// token for a new participant.
func (h *Huddle) JoinHuddle(c echo.Context) error {
	huddleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("huddle id must be a valid UUID"))
	}

	var req huddledto.JoinHuddleRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	huddle, err := h.huddles.FindByID(c.Request().Context(), huddleID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}
	if huddle == nil {
		return HandleError(h.logger, c, errors.ErrHuddleNotFound(huddleID.String()))
	}
	if !huddle.IsActive() {
		return HandleError(h.logger, c, errors.ErrHuddleClosed(huddleID.String()))
	}

	role := req.Role
	if role == "" {
		role = string(entities.RoleSpeaker)
	}

	participantID := uuid.New()
	token, err := h.tokens.GenerateAccessToken(participantID, huddleID, req.DisplayName, role)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, &huddledto.JoinHuddleResponse{
		ParticipantID: participantID,
		AccessToken:   token,
		ExpiresIn:     int64(h.accessExpiry.Seconds()),
	})
}
