package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/pkg/jwt"
)

// Context keys set by the auth middleware
const (
	ctxParticipantID = "participant_id"
	ctxHuddleID      = "huddle_id"
	ctxDisplayName   = "display_name"
	ctxRole          = "role"
)

// JWTAuth validates the bearer token and stores the participant identity on
// the echo context. Tokens are huddle-scoped: the handler still has to check
// that the claim matches the huddle in the path.
func JWTAuth(manager *jwt.Manager, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearer(c)
			if token == "" {
				return HandleError(logger, c, errors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				return HandleError(logger, c, errors.ErrInvalidToken())
			}

			c.Set(ctxParticipantID, claims.ParticipantID)
			c.Set(ctxHuddleID, claims.HuddleID)
			c.Set(ctxDisplayName, claims.DisplayName)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

func extractBearer(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
