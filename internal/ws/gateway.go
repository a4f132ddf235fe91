package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/concordapp/concord-backend/internal/hub"
	"github.com/concordapp/concord-backend/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Inbound frames carry at most a text body plus one base64 attachment.
	maxFrameSize = 8 << 20

	sendQueueSize = 64
)

// Inbound is one client request frame. Create/edit/delete mirror the HTTP
// surface; subscribe/unsubscribe manage live fan-out registration for a
// channel or conversation.
type Inbound struct {
	Op             string `json:"op"`
	ServerID       uint64 `json:"serverId,omitempty"`
	ChannelID      uint64 `json:"channelId,omitempty"`
	ConversationID uint64 `json:"conversationId,omitempty"`
	MessageID      uint64 `json:"messageId,omitempty"`
	Content        string `json:"content,omitempty"`
	File           []byte `json:"file,omitempty"`
	FileType       string `json:"fileType,omitempty"`
}

// Outbound is one server frame: a fan-out event, a mutation ack, or an error.
type Outbound struct {
	Op      string      `json:"op"`
	Topic   string      `json:"topic,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Gateway upgrades authenticated connections and bridges them to the hub and
// the two chat coordinators.
type Gateway struct {
	hub      *hub.Hub
	channels service.ChatService
	directs  service.ChatService
	upgrader websocket.Upgrader
}

func NewGateway(h *hub.Hub, channels, directs service.ChatService) *Gateway {
	return &Gateway{
		hub:      h,
		channels: channels,
		directs:  directs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle runs one websocket session. Auth middleware has already placed the
// verified uid in the echo context.
func (g *Gateway) Handle(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := hub.NewClient(uuid.NewString(), sendQueueSize)
	responses := make(chan Outbound, sendQueueSize)

	go g.writePump(conn, client, responses)
	g.readPump(c.Request().Context(), conn, client, responses, uid)

	g.hub.Drop(client)
	conn.Close()
	return nil
}

func (g *Gateway) readPump(ctx context.Context, conn *websocket.Conn, client *hub.Client, responses chan<- Outbound, uid string) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error for client %s: %v", client.ID, err)
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			g.respond(client, responses, Outbound{Op: "error", Code: "bad_request", Message: "invalid frame"})
			continue
		}
		g.dispatch(ctx, client, responses, uid, in)
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, client *hub.Client, responses <-chan Outbound) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Outbound{Op: "event", Topic: ev.Topic, Payload: ev.Payload}); err != nil {
				client.Close()
				return
			}
		case out := <-responses:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(out); err != nil {
				client.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		case <-client.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *hub.Client, responses chan<- Outbound, uid string, in Inbound) {
	switch in.Op {
	case "subscribe":
		parentID := in.ChannelID
		if parentID == 0 {
			parentID = in.ConversationID
		}
		if parentID == 0 {
			g.respond(client, responses, Outbound{Op: "error", Code: "bad_request", Message: "subscribe needs a channelId or conversationId"})
			return
		}
		g.hub.Subscribe(service.TopicMessages(parentID), client)
		g.hub.Subscribe(service.TopicMessageUpdates(parentID), client)
		g.respond(client, responses, Outbound{Op: "ack", Topic: service.TopicMessages(parentID)})

	case "unsubscribe":
		parentID := in.ChannelID
		if parentID == 0 {
			parentID = in.ConversationID
		}
		g.hub.Unsubscribe(service.TopicMessages(parentID), client.ID)
		g.hub.Unsubscribe(service.TopicMessageUpdates(parentID), client.ID)
		g.respond(client, responses, Outbound{Op: "ack"})

	case "message:create":
		parent := service.ParentRef{ID: in.ChannelID, ServerID: in.ServerID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.channels.Create(ctx, parent, uid, in.Content, in.File, in.FileType)
		})
	case "message:edit":
		parent := service.ParentRef{ID: in.ChannelID, ServerID: in.ServerID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.channels.Edit(ctx, parent, in.MessageID, uid, in.Content)
		})
	case "message:delete":
		parent := service.ParentRef{ID: in.ChannelID, ServerID: in.ServerID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.channels.Delete(ctx, parent, in.MessageID, uid)
		})

	case "direct:create":
		parent := service.ParentRef{ID: in.ConversationID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.directs.Create(ctx, parent, uid, in.Content, in.File, in.FileType)
		})
	case "direct:edit":
		parent := service.ParentRef{ID: in.ConversationID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.directs.Edit(ctx, parent, in.MessageID, uid, in.Content)
		})
	case "direct:delete":
		parent := service.ParentRef{ID: in.ConversationID}
		g.mutate(client, responses, func() (*service.MessageRecord, error) {
			return g.directs.Delete(ctx, parent, in.MessageID, uid)
		})

	default:
		g.respond(client, responses, Outbound{Op: "error", Code: "bad_request", Message: "unknown op"})
	}
}

func (g *Gateway) mutate(client *hub.Client, responses chan<- Outbound, fn func() (*service.MessageRecord, error)) {
	msg, err := fn()
	if err != nil {
		g.respond(client, responses, Outbound{Op: "error", Code: errorCode(err), Message: err.Error()})
		return
	}
	g.respond(client, responses, Outbound{Op: "ack", Payload: msg})
}

func (g *Gateway) respond(client *hub.Client, responses chan<- Outbound, out Outbound) {
	select {
	case responses <- out:
	case <-client.Done():
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, service.ErrValidation):
		return "bad_request"
	case errors.Is(err, service.ErrUploadFailed):
		return "upload_failed"
	default:
		return "internal_error"
	}
}
