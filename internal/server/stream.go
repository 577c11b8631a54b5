package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wavechat/internal/events"
	"wavechat/internal/middleware"
	"wavechat/internal/presence"
	"wavechat/internal/services"
	"wavechat/internal/session"
	"wavechat/internal/transport/httpdto"
	wavechat_errors "wavechat/pkg/errors"
	"wavechat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler upgrades a conversation view to its live event stream: one
// WebSocket per actively-viewed conversation carrying the message and typing
// topics. Every exit path releases the session.
type StreamHandler struct {
	bus            events.Bus
	messageService *services.MessageService
	presenceStore  *presence.Store
	typingIdle     time.Duration
	log            *logger.Logger
}

func NewStreamHandler(bus events.Bus, messageService *services.MessageService, presenceStore *presence.Store, typingIdle time.Duration, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		bus:            bus,
		messageService: messageService,
		presenceStore:  presenceStore,
		typingIdle:     typingIdle,
		log:            log,
	}
}

// streamFrame is one server-to-client frame: either a merged change event or
// a full snapshot after a resync reload.
type streamFrame struct {
	Type     string               `json:"type"` // "event" or "snapshot"
	Event    *events.Event        `json:"event,omitempty"`
	Messages []httpdto.MessageDTO `json:"messages,omitempty"`
}

// clientFrame is one client-to-server frame.
type clientFrame struct {
	Type string `json:"type"` // "keystroke", "sent" or "read"
}

func (h *StreamHandler) Handle(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("must be logged in", "NOT_AUTHENTICATED"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	sess, err := session.Open(c.Request.Context(), h.bus, h.messageService, h.presenceStore, h.typingIdle, conversationID, userID, h.log)
	if err != nil {
		h.log.Errorf("failed to open session for %s: %v", conversationID, err)
		status, resp := openFailureResponse(err)
		c.JSON(status, resp)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sess.Close()
		return
	}

	if err := h.presenceStore.SetOnline(c.Request.Context(), userID.String()); err != nil {
		h.log.Warnf("failed to mark %s online: %v", userID, err)
	}

	client := &streamClient{
		handler: h,
		conn:    conn,
		sess:    sess,
		userID:  userID.String(),
	}
	go client.writePump()
	client.readPump()
}

// openFailureResponse separates the caller's own authorization failure from a
// genuine directory/store outage.
func openFailureResponse(err error) (int, httpdto.ErrorResponse) {
	if errors.Is(err, wavechat_errors.ErrNotParticipant) || errors.Is(err, wavechat_errors.ErrForbidden) {
		return http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN")
	}
	return http.StatusBadGateway, httpdto.NewErrorResponse("failed to open conversation stream", "CONVERSATION_RESOLUTION_FAILURE")
}

type streamClient struct {
	handler *StreamHandler
	conn    *websocket.Conn
	sess    *session.Session
	userID  string
}

// readPump consumes client frames until the connection dies, then runs the
// teardown: session release plus the offline presence transition.
func (c *streamClient) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// A live connection doubles as the presence heartbeat.
		if err := c.handler.presenceStore.Heartbeat(context.Background(), c.userID); err != nil {
			c.handler.log.Warnf("presence heartbeat failed for %s: %v", c.userID, err)
		}
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		ctx := context.Background()
		switch frame.Type {
		case "keystroke":
			if err := c.sess.Keystroke(ctx); err != nil {
				c.handler.log.Warnf("keystroke write failed for %s: %v", c.userID, err)
			}
		case "sent":
			if err := c.sess.MessageSent(ctx); err != nil {
				c.handler.log.Warnf("typing reset failed for %s: %v", c.userID, err)
			}
		case "read":
			if err := c.handler.messageService.MarkRead(ctx, c.sess.ConversationID, c.sess.UserID); err != nil {
				c.handler.log.Warnf("mark read failed for %s: %v", c.userID, err)
			}
		}
	}
}

// writePump forwards session updates and keeps the connection alive.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case update, ok := <-c.sess.Updates():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			frame := streamFrame{Type: "event", Event: update.Event}
			if update.Reloaded {
				frame = streamFrame{
					Type:     "snapshot",
					Messages: httpdto.ToMessageDTOs(c.sess.Messages()),
				}
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) teardown() {
	c.conn.Close()
	c.sess.Close()
	if err := c.handler.presenceStore.SetOffline(context.Background(), c.userID, time.Now()); err != nil {
		c.handler.log.Warnf("failed to mark %s offline: %v", c.userID, err)
	}
}
