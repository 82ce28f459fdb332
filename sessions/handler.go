package sessions

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/jakekang28/GenAIHCI-sub001/room"
	"github.com/rs/zerolog/log"
)

type sessionHandler struct {
	service SessionService
}

func NewSessionHandler(service SessionService) *sessionHandler {
	return &sessionHandler{service: service}
}

func (sh *sessionHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", sh.CreateSessionHandler)
	group.GET("/:id", sh.GetSessionHandler)
	group.POST("/:id/participants", sh.AddParticipantHandler)
	group.PUT("/:id/voting-policy", sh.SetVotingPolicyHandler)
}

// respondError maps service errors onto status codes and logs the unexpected ones.
func respondError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		ctx.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		ctx.String(http.StatusNotFound, ErrSessionNotFoundStr)
	case errors.Is(err, context.DeadlineExceeded):
		ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
	case errors.Is(err, context.Canceled):
		ctx.Status(499)
	default:
		log.Error().Err(err).Str("op", op).Str("ip", ctx.ClientIP()).Msg("session request failed")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
	}
	ctx.Abort()
}

func (sh *sessionHandler) CreateSessionHandler(ctx *gin.Context) {
	var body struct {
		HostUserID string `json:"hostUserId"`
		HostName   string `json:"hostName"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	session, err := sh.service.Create(ctx.Request.Context(), body.HostUserID, body.HostName)
	if err != nil {
		respondError(ctx, "create-session", err)
		return
	}

	log.Info().Str("session_id", session.ID).Str("code", session.Code).Str("host", body.HostUserID).Msg("session created")
	ctx.JSON(http.StatusCreated, session)
}

func (sh *sessionHandler) GetSessionHandler(ctx *gin.Context) {
	session, err := sh.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, "get-session", err)
		return
	}
	ctx.JSON(http.StatusOK, session)
}

func (sh *sessionHandler) AddParticipantHandler(ctx *gin.Context) {
	var body struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	p, err := sh.service.AddParticipant(ctx.Request.Context(), ctx.Param("id"), body.UserID, body.DisplayName)
	if err != nil {
		respondError(ctx, "add-participant", err)
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

func (sh *sessionHandler) SetVotingPolicyHandler(ctx *gin.Context) {
	var policy room.VotingPolicy
	if err := ctx.ShouldBindJSON(&policy); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	if err := sh.service.SetVotingPolicy(ctx.Request.Context(), ctx.Param("id"), policy); err != nil {
		respondError(ctx, "set-voting-policy", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
