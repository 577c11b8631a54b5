package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wavechat/internal/directory"
	"wavechat/internal/middleware"
	"wavechat/internal/services"
	"wavechat/internal/transport/httpdto"
)

type ConversationHandler struct {
	service  *services.ConversationService
	messages *services.MessageService
	dir      directory.Directory
}

func NewConversationHandler(service *services.ConversationService, messages *services.MessageService, dir directory.Directory) *ConversationHandler {
	return &ConversationHandler{service: service, messages: messages, dir: dir}
}

// OpenOrCreate resolves or lazily creates the conversation with a peer.
func (h *ConversationHandler) OpenOrCreate(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
		return
	}

	var req httpdto.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	peerID, err := parseUUID(req.PeerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid peer_id", "INVALID_REQUEST"))
		return
	}

	conv, err := h.service.ResolveOrCreate(c.Request.Context(), userID, peerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.decorate(c, httpdto.ToConversationDTO(conv)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	conversations, total, err := h.service.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := httpdto.ConversationListResponse{Total: total}
	for _, conv := range conversations {
		dto := h.decorate(c, httpdto.ToConversationDTO(conv))
		if h.messages != nil {
			if latest, err := h.messages.Latest(c.Request.Context(), conv.ID, userID); err == nil {
				preview := httpdto.ToMessageDTO(latest)
				dto.LastMessage = &preview
			}
		}
		resp.Conversations = append(resp.Conversations, dto)
	}
	c.JSON(http.StatusOK, resp)
}

// decorate fills in display metadata from the profile directory. A directory
// miss never fails the request, the UI just renders without a name.
func (h *ConversationHandler) decorate(c *gin.Context, dto httpdto.ConversationDTO) httpdto.ConversationDTO {
	if h.dir == nil {
		return dto
	}
	for i, p := range dto.Participants {
		id, err := parseUUID(p.UserID)
		if err != nil {
			continue
		}
		profile, err := h.dir.Profile(c.Request.Context(), id)
		if err != nil {
			continue
		}
		dto.Participants[i].DisplayName = profile.DisplayName
		dto.Participants[i].AvatarURL = profile.AvatarURL
	}
	return dto
}
