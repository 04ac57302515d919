package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arenalabs/debate-arena/internal/arena"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorContextKey = "arena_actor_address"

var (
	errMissingSessionIssuer = errors.New("session issuer dependency required")
	errMissingArenaService  = errors.New("arena service dependency required")
	errMissingActor         = errors.New("acting address required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SessionIssuer mints and validates the API's bearer tokens.
type SessionIssuer interface {
	IssueSessionToken(address string) (string, int64, error)
	ValidateSessionToken(token string) (string, error)
}

// Dependencies wires the HTTP surface.
type Dependencies struct {
	Sessions SessionIssuer
	Arena    *arena.Service
	Actor    string
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin router for the debate API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionIssuer
	}
	if deps.Arena == nil {
		return nil, errMissingArenaService
	}
	if deps.Actor == "" {
		return nil, errMissingActor
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions: deps.Sessions,
		arena:    deps.Arena,
		actor:    deps.Actor,
		logger:   logger,
	}

	router.POST("/session", handler.handleSession)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/debates", handler.handleListDebates)
	protected.GET("/debates/status", handler.handleStatus)
	protected.POST("/debates", handler.handleCreateDebate)
	protected.POST("/debates/:id/join", handler.handleJoinDebate)

	return router, nil
}

type httpHandler struct {
	sessions SessionIssuer
	arena    *arena.Service
	actor    string
	logger   *zap.Logger
}

type sessionRequestPayload struct {
	Address string `json:"address"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleSession(c *gin.Context) {
	var request sessionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Address) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if request.Address != h.actor {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown_address"})
		return
	}

	token, expiresIn, err := h.sessions.IssueSessionToken(request.Address)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

type viewResponsePayload struct {
	Debates []arena.Debate `json:"debates"`
}

func (h *httpHandler) handleListDebates(c *gin.Context) {
	c.JSON(http.StatusOK, viewResponsePayload{Debates: h.arena.View()})
}

type statusResponsePayload struct {
	Status arena.Status `json:"status"`
}

func (h *httpHandler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponsePayload{Status: h.arena.Status()})
}

type createDebateRequestPayload struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

func (h *httpHandler) handleCreateDebate(c *gin.Context) {
	var request createDebateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.arena.CreateDebate(c.Request.Context(), request.Topic, request.Description); err != nil {
		h.respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, statusResponsePayload{Status: h.arena.Status()})
}

type joinDebateRequestPayload struct {
	Side int8 `json:"side"`
}

func (h *httpHandler) handleJoinDebate(c *gin.Context) {
	var request joinDebateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.arena.JoinDebate(c.Request.Context(), c.Param("id"), request.Side); err != nil {
		h.respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, statusResponsePayload{Status: h.arena.Status()})
}

func (h *httpHandler) respondSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, arena.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission_in_flight"})
	case errors.Is(err, arena.ErrInvalidTopic),
		errors.Is(err, arena.ErrInvalidDescription),
		errors.Is(err, arena.ErrInvalidSide),
		errors.Is(err, arena.ErrInvalidDebateID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		h.logger.Error("debate submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submission_failed"})
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	address, err := h.sessions.ValidateSessionToken(token)
	if err != nil {
		h.logger.Warn("session token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if address != h.actor {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown_address"})
		return
	}
	c.Set(actorContextKey, address)
	c.Next()
}
