package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		jsonOutput bool
		joinQueue  bool
		room       string
		name       string
		ready      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream realtime events over a websocket",
		Long: `Connect to the websocket endpoint and stream events in real-time.

Events include:
  - notify: Informational message
  - match-found: An opponent was bound to your match
  - start-countdown: Both participants are in the room and ready
  - next-problem: The battle moved to a new problem
  - start-battle: Free-queue pairing succeeded
  - match-finished: No more problems, check the result
  - redirect: Navigate to a URL

Use --queue to join the free matchmaking queue, or --room to enter a
match's battle room. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("a session token is required, create a user first")
			}
			return watchEvents(joinQueue, room, name, ready, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&joinQueue, "queue", false, "Join the matchmaking queue after connecting")
	cmd.Flags().StringVar(&room, "room", "", "Match ID of a battle room to join")
	cmd.Flags().StringVar(&name, "name", "", "Display name to queue under")
	cmd.Flags().BoolVar(&ready, "ready", false, "Declare ready after joining the room")

	return cmd
}

// wsEvent is a parsed server event
type wsEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func watchEvents(joinQueue bool, room, name string, ready, jsonOutput bool) error {
	wsURL, err := websocketURL(cfg.ServerURL, cfg.Token)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if !jsonOutput {
		fmt.Println("Connected")
	}

	// Fire the requested hub actions
	if joinQueue {
		msg := map[string]string{"action": "join-queue"}
		if name != "" {
			msg["display_name"] = name
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to join queue: %w", err)
		}
	}
	if room != "" {
		if err := conn.WriteJSON(map[string]string{"action": "join-room", "match_id": room}); err != nil {
			return fmt.Errorf("failed to join room: %w", err)
		}
		if ready {
			if err := conn.WriteJSON(map[string]string{"action": "player-ready", "match_id": room}); err != nil {
				return fmt.Errorf("failed to declare ready: %w", err)
			}
		}
	}

	// Handle interrupt by closing the connection, which unblocks the
	// read loop
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		var evt wsEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return err
		}
		evt.Time = time.Now()
		printWSEvent(evt, jsonOutput)
	}
}

// websocketURL converts the configured HTTP base URL into the ws
// endpoint, carrying the session token as a query parameter since
// websocket clients cannot set the Authorization header from browsers
// and the server accepts both.
func websocketURL(serverURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func printWSEvent(evt wsEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	display := string(evt.Data)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	if display == "" {
		fmt.Printf("[%s] %s\n", timestamp, evt.Event)
		return
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Event, display)
}
