package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wavechat/internal/transport/httpdto"
	wavechat_errors "wavechat/pkg/errors"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

// respondError maps domain sentinels to HTTP responses. Non-fatal errors are
// reported transiently; nothing here retries on the caller's behalf.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wavechat_errors.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
	case errors.Is(err, wavechat_errors.ErrDeleteUnauthorized):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "DELETE_UNAUTHORIZED"))
	case errors.Is(err, wavechat_errors.ErrNotParticipant), errors.Is(err, wavechat_errors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, wavechat_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, wavechat_errors.ErrEmptyContent),
		errors.Is(err, wavechat_errors.ErrReplyWrongConversation):
		c.JSON(http.StatusUnprocessableEntity, httpdto.NewErrorResponse(err.Error(), "SEND_FAILURE"))
	case errors.Is(err, wavechat_errors.ErrSelfConversation),
		errors.Is(err, wavechat_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, wavechat_errors.ErrConflict), errors.Is(err, wavechat_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CONFLICT"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}
