package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	wavechat_errors "wavechat/pkg/errors"
)

func TestOpenFailureResponse_NonParticipantIsForbidden(t *testing.T) {
	status, resp := openFailureResponse(wavechat_errors.ErrNotParticipant)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Code)

	status, resp = openFailureResponse(fmt.Errorf("seed list: %w", wavechat_errors.ErrNotParticipant))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Code)

	status, resp = openFailureResponse(wavechat_errors.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Code)
}

func TestOpenFailureResponse_StoreFailureIsBadGateway(t *testing.T) {
	status, resp := openFailureResponse(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "CONVERSATION_RESOLUTION_FAILURE", resp.Code)

	status, resp = openFailureResponse(wavechat_errors.ErrSubscriptionClosed)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "CONVERSATION_RESOLUTION_FAILURE", resp.Code)
}
