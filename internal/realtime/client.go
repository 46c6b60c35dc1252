package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battlecode-go/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is
	// considered dead
	pongWait = 60 * time.Second

	// Ping interval; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 8192

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// ClientMessage is an inbound hub operation from a client
type ClientMessage struct {
	Action      string `json:"action"`
	MatchID     string `json:"match_id,omitempty"`
	ProblemID   string `json:"problem_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Inbound hub operation names
const (
	ActionJoinRoom           = "join-room"
	ActionJoinQueue          = "join-queue"
	ActionPlayerReady        = "player-ready"
	ActionRequestNextProblem = "request-next-problem"
)

// Client is one websocket connection belonging to a user. It
// implements Connection and owns the read/write pumps.
type Client struct {
	id     ConnectionID
	userID model.UserID
	ws     *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Connection = (*Client)(nil)

// NewClient wraps an upgraded websocket connection
func NewClient(id ConnectionID, userID model.UserID, ws *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(
			slog.String("conn_id", string(id)),
			slog.String("user_id", string(userID))),
		closed: make(chan struct{}),
	}
}

// ID returns the connection identifier
func (c *Client) ID() ConnectionID {
	return c.id
}

// UserID returns the owning user identity
func (c *Client) UserID() model.UserID {
	return c.userID
}

// Send queues an event for delivery. Sends to a closed connection or a
// full buffer are dropped; the caller treats delivery as best-effort.
func (c *Client) Send(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return nil
	default:
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("event dropped - client buffer full",
			slog.String("event", ev.Name))
	}
	return nil
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// ReadPump reads inbound frames and dispatches them to handle until
// the connection drops. It blocks; run it on the connection's
// goroutine. handle is called sequentially, one frame at a time.
func (c *Client) ReadPump(handle func(ClientMessage)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed client message", slog.String("error", err.Error()))
			continue
		}
		handle(msg)
	}
}

// WritePump drains the send buffer to the peer and keeps the
// connection alive with pings. Run it on its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
