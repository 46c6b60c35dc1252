package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battlecode-go/internal/api/middleware"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/realtime"
	"github.com/mcoot/battlecode-go/internal/services/matchmaking"
	"github.com/mcoot/battlecode-go/internal/services/ready"
	"github.com/mcoot/battlecode-go/internal/storage"
)

const connIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// WSHandler upgrades clients to websocket connections and dispatches
// their hub operations.
type WSHandler struct {
	storage    storage.Store
	conns      *realtime.ConnectionRegistry
	rooms      *realtime.RoomRegistry
	gateway    *realtime.Gateway
	matchmaker *matchmaking.Coordinator
	ready      *ready.Tracker
	random     random.Random
	logger     *slog.Logger

	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(
	store storage.Store,
	conns *realtime.ConnectionRegistry,
	rooms *realtime.RoomRegistry,
	gateway *realtime.Gateway,
	matchmaker *matchmaking.Coordinator,
	readyTracker *ready.Tracker,
	rand random.Random,
	logger *slog.Logger,
) *WSHandler {
	return &WSHandler{
		storage:    store,
		conns:      conns,
		rooms:      rooms,
		gateway:    gateway,
		matchmaker: matchmaker,
		ready:      readyTracker,
		random:     rand,
		logger:     logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The session token authenticates the upgrade; the API is
			// served cross-origin from the game frontend
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /api/v1/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed",
			slog.String("user_id", string(user.ID)),
			slog.Any("error", err),
		)
		return
	}

	connID := realtime.ConnectionID("c_" + h.random.String(12, connIDAlphabet))
	client := realtime.NewClient(connID, user.ID, ws, h.logger)
	h.conns.Add(client)

	h.logger.Info("websocket connected",
		slog.String("conn_id", string(connID)),
		slog.String("user_id", string(user.ID)),
	)

	go client.WritePump()
	client.ReadPump(func(msg realtime.ClientMessage) {
		h.dispatch(client, user, msg)
	})

	// ReadPump returned: the connection is gone
	h.matchmaker.HandleDisconnect(context.Background(), client)
	h.logger.Info("websocket disconnected",
		slog.String("conn_id", string(connID)),
		slog.String("user_id", string(user.ID)),
	)
}

// dispatch routes one inbound hub operation. It runs on the
// connection's read goroutine, one message at a time.
func (h *WSHandler) dispatch(client *realtime.Client, user *model.User, msg realtime.ClientMessage) {
	ctx := context.Background()

	switch msg.Action {
	case realtime.ActionJoinRoom:
		h.joinRoom(client, model.MatchID(msg.MatchID))

	case realtime.ActionJoinQueue:
		displayName := msg.DisplayName
		if displayName == "" {
			displayName = user.DisplayName
		}
		h.matchmaker.JoinQueue(ctx, user.ID, displayName)

	case realtime.ActionPlayerReady:
		if h.ready.MarkReady(model.MatchID(msg.MatchID), user.ID) == ready.QuorumReached {
			h.gateway.ToRoom(model.MatchID(msg.MatchID), realtime.StartCountdown())
		}

	case realtime.ActionRequestNextProblem:
		h.requestNextProblem(ctx, client, user.ID, model.MatchID(msg.MatchID), model.ProblemID(msg.ProblemID))

	default:
		h.logger.Warn("unknown hub action",
			slog.String("action", msg.Action),
			slog.String("user_id", string(user.ID)),
		)
	}
}

func (h *WSHandler) joinRoom(client *realtime.Client, matchID model.MatchID) {
	if matchID == "" {
		return
	}
	count, joined := h.rooms.Join(matchID, client)
	h.logger.Debug("joined room",
		slog.String("match_id", string(matchID)),
		slog.Int("members", count),
	)
	// Only a membership-changing join may observe the quorum, so a
	// client re-sending join-room cannot fire the countdown again
	if joined && count == realtime.RoomQuorum {
		h.gateway.ToRoom(matchID, realtime.StartCountdown())
	}
}

// requestNextProblem rebroadcasts a problem switch on behalf of the
// match owner. Only the owner may drive the switch; everyone else gets
// told off.
func (h *WSHandler) requestNextProblem(ctx context.Context, client *realtime.Client, userID model.UserID, matchID model.MatchID, problemID model.ProblemID) {
	match, err := h.storage.GetMatch(ctx, matchID)
	if err != nil {
		h.gateway.ToConnection(client, realtime.Notify("Match not found"))
		return
	}
	if match.Player1 != userID {
		h.gateway.ToConnection(client, realtime.Notify("Only the match owner can switch problems"))
		return
	}

	problem, err := h.storage.GetProblem(ctx, problemID)
	if err != nil || problem.MatchID != matchID {
		h.gateway.ToConnection(client, realtime.Notify("Problem not found"))
		return
	}

	h.gateway.ToRoom(matchID, realtime.NextProblem(string(problem.ID), problem.Order))
}
