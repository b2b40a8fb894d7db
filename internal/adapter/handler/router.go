package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huddleplan/huddle-pipeline/pkg/config"
	"github.com/huddleplan/huddle-pipeline/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	tokens          *jwt.Manager
	huddleHandler   *Huddle
	turnHandler     *Turn
	presenceHandler *Presence
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, tokens *jwt.Manager, huddleHandler *Huddle, turnHandler *Turn, presenceHandler *Presence) *Router {
	return &Router{
		cfg:             cfg,
		tokens:          tokens,
		huddleHandler:   huddleHandler,
		turnHandler:     turnHandler,
		presenceHandler: presenceHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	rt.setupHuddleRoutes(v1)
}

// setupHuddleRoutes configures the huddle pipeline routes. Creating and
// joining a huddle are open; everything inside a huddle requires a
// huddle-scoped token.
func (rt *Router) setupHuddleRoutes(g *echo.Group) {
	huddles := g.Group("/huddles")

	huddles.POST("", rt.huddleHandler.CreateHuddle)
	huddles.GET("/:id", rt.huddleHandler.GetHuddle)
	huddles.POST("/:id/join", rt.huddleHandler.JoinHuddle)

	guarded := huddles.Group("", JWTAuth(rt.tokens, rt.huddleHandler.logger))
	guarded.POST("/:id/turns", rt.turnHandler.SubmitTurn)
	guarded.GET("/:id/items", rt.turnHandler.ListItems)
	guarded.GET("/:id/transcript", rt.turnHandler.ListTranscript)
	guarded.PUT("/:id/presence", rt.presenceHandler.Heartbeat)
	guarded.GET("/:id/presence", rt.presenceHandler.ListParticipants)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
