package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavechat/internal/middleware"
	"wavechat/internal/presence"
	"wavechat/internal/transport/httpdto"
)

type PresenceHandler struct {
	store *presence.Store
}

func NewPresenceHandler(store *presence.Store) *PresenceHandler {
	return &PresenceHandler{store: store}
}

func (h *PresenceHandler) Get(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
		return
	}
	userID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	status, err := h.store.Get(c.Request.Context(), userID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.PresenceDTO{
		UserID:   status.UserID,
		IsOnline: status.IsOnline,
		LastSeen: status.LastSeen,
	})
}

// Typing is the REST fallback for clients without a live stream: it writes the
// given typing edge directly, no debouncing on the server side.
func (h *PresenceHandler) Typing(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.store.SetTyping(c.Request.Context(), conversationID.String(), userID.String(), req.Typing); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
