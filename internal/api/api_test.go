package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battlecode-go/internal/api"
	"github.com/mcoot/battlecode-go/internal/api/response"
	"github.com/mcoot/battlecode-go/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// The test factory stubs out the AI backend; everything else is the
	// production wiring
	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Storage:        app.Storage,
		AuthService:    app.AuthService,
		Matchmaker:     app.Matchmaker,
		MatchService:   app.MatchService,
		ProblemService: app.ProblemService,
		Connections:    app.Connections,
		Rooms:          app.Rooms,
		Gateway:        app.Gateway,
		ReadyTracker:   app.ReadyTracker,
		Random:         app.Random,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuestUser(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Alice"}
	rr := ts.request(http.MethodPost, "/api/v1/users/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.User.DisplayName)
	assert.True(t, resp.User.IsGuest)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"display_name": "Alice",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &registerResp)
	require.NoError(t, err)
	assert.False(t, registerResp.User.IsGuest)

	// Login
	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/users/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	err = json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, registerResp.User.ID, loginResp.User.ID)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	token := createGuestUser(t, ts, "Bob")

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var meResp response.User
	err := json.Unmarshal(rr.Body.Bytes(), &meResp)
	require.NoError(t, err)
	assert.Equal(t, "Bob", meResp.DisplayName)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	// Try to get /me without token
	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Try to start a match without token
	rr = ts.request(http.MethodPost, "/api/v1/matches", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStartAndJoinMatch(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("match1", "pr1", "pr2", "pr3")

	token1 := createGuestUser(t, ts, "Alice")
	token2 := createGuestUser(t, ts, "Bob")

	// Alice starts a match and waits
	body := map[string]string{"difficulty": "Easy", "language": "python"}
	rr := ts.request(http.MethodPost, "/api/v1/matches", body, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var matchResp response.Match
	err := json.Unmarshal(rr.Body.Bytes(), &matchResp)
	require.NoError(t, err)
	assert.Equal(t, "waiting", matchResp.Status)
	assert.Empty(t, matchResp.Player2)

	// Bob starts with the same mode and gets paired into Alice's match
	rr = ts.request(http.MethodPost, "/api/v1/matches", body, token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	var joinResp response.Match
	err = json.Unmarshal(rr.Body.Bytes(), &joinResp)
	require.NoError(t, err)
	assert.Equal(t, matchResp.ID, joinResp.ID)
	assert.Equal(t, "running", joinResp.Status)
	assert.NotEmpty(t, joinResp.Player2)
	assert.NotNil(t, joinResp.StartedAt)

	// Problems were generated for the match
	rr = ts.request(http.MethodGet, "/api/v1/matches/"+matchResp.ID+"/problems", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var problemsResp response.ProblemList
	err = json.Unmarshal(rr.Body.Bytes(), &problemsResp)
	require.NoError(t, err)
	assert.Len(t, problemsResp.Problems, 3)
	assert.Equal(t, 1, problemsResp.Problems[0].Order)
}

func TestStartMatchValidation(t *testing.T) {
	ts := newTestServer(t)
	token := createGuestUser(t, ts, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/matches", map[string]string{"language": "python"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches", map[string]string{"difficulty": "Easy"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelWaitingMatch(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("match1")

	token1 := createGuestUser(t, ts, "Alice")
	token2 := createGuestUser(t, ts, "Bob")

	body := map[string]string{"difficulty": "Easy", "language": "python"}
	rr := ts.request(http.MethodPost, "/api/v1/matches", body, token1)
	require.Equal(t, http.StatusCreated, rr.Code)

	var matchResp response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matchResp))

	// Only the owner may cancel
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+matchResp.ID+"/cancel", nil, token2)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/"+matchResp.ID+"/cancel", nil, token1)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// The match is gone
	rr = ts.request(http.MethodGet, "/api/v1/matches/"+matchResp.ID, nil, token1)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitCodeAndScores(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("match1", "pr1", "pr2", "pr3", "sub1", "sub2")

	token1 := createGuestUser(t, ts, "Alice")
	token2 := createGuestUser(t, ts, "Bob")

	matchID := startRunningMatch(t, ts, token1, token2)

	rr := ts.request(http.MethodGet, "/api/v1/matches/"+matchID+"/problems", nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)
	var problemsResp response.ProblemList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problemsResp))
	problemID := problemsResp.Problems[0].ID

	// Alice submits a correct solution
	ts.app.Judge.Queue(true)
	submitBody := map[string]string{"code": "print(1)", "language": "python"}
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+matchID+"/problems/"+problemID+"/submissions", submitBody, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var outcome struct {
		IsCorrect bool   `json:"is_correct"`
		Result    string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.True(t, outcome.IsCorrect)
	assert.Equal(t, "Correct", outcome.Result)

	// Bob submits a wrong one
	ts.app.Judge.Queue(false)
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+matchID+"/problems/"+problemID+"/submissions", submitBody, token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Scores reflect the submissions
	rr = ts.request(http.MethodGet, "/api/v1/matches/"+matchID+"/scores", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var scores struct {
		Player1 int `json:"player1_score"`
		Player2 int `json:"player2_score"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &scores))
	assert.Equal(t, 1, scores.Player1)
	assert.Equal(t, 0, scores.Player2)
}

func TestSubmitToUnknownProblem(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("match1", "pr1", "pr2", "pr3")

	token1 := createGuestUser(t, ts, "Alice")
	token2 := createGuestUser(t, ts, "Bob")

	matchID := startRunningMatch(t, ts, token1, token2)

	submitBody := map[string]string{"code": "print(1)", "language": "python"}
	rr := ts.request(http.MethodPost, "/api/v1/matches/"+matchID+"/problems/nope/submissions", submitBody, token1)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// Helper functions

func createGuestUser(t *testing.T, ts *testServer, displayName string) string {
	t.Helper()

	body := map[string]string{"display_name": displayName}
	rr := ts.request(http.MethodPost, "/api/v1/users/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.SessionToken
}

func startRunningMatch(t *testing.T, ts *testServer, token1, token2 string) string {
	t.Helper()

	body := map[string]string{"difficulty": "Easy", "language": "python"}
	rr := ts.request(http.MethodPost, "/api/v1/matches", body, token1)
	require.Equal(t, http.StatusCreated, rr.Code)

	var matchResp response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matchResp))

	rr = ts.request(http.MethodPost, "/api/v1/matches", body, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	return matchResp.ID
}

func TestWebsocketQueuePairing(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("c1", "c2", "wsmatch", "pr1", "pr2", "pr3")

	token1 := createGuestUser(t, ts, "Alice")
	token2 := createGuestUser(t, ts, "Bob")

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token="

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+token1, nil)
	require.NoError(t, err)
	defer func() { _ = conn1.Close() }()

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+token2, nil)
	require.NoError(t, err)
	defer func() { _ = conn2.Close() }()

	// Both join the free queue; the second join triggers pairing
	require.NoError(t, conn1.WriteJSON(map[string]string{"action": "join-queue", "display_name": "Alice"}))

	expectEvent(t, conn1, "notify")

	require.NoError(t, conn2.WriteJSON(map[string]string{"action": "join-queue", "display_name": "Bob"}))

	// Each client is told to navigate and given its opponent
	events1 := collectEvents(t, conn1, 2)
	assert.Contains(t, events1, "redirect")
	assert.Contains(t, events1, "start-battle")

	events2 := collectEvents(t, conn2, 2)
	assert.Contains(t, events2, "redirect")
	assert.Contains(t, events2, "start-battle")
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// expectEvent reads one event and asserts its name
func expectEvent(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	events := collectEvents(t, conn, 1)
	require.Equal(t, []string{name}, events)
}

// collectEvents reads n events off the connection, returning their names
func collectEvents(t *testing.T, conn *websocket.Conn, n int) []string {
	t.Helper()

	var names []string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for len(names) < n {
		var evt struct {
			Event string `json:"event"`
		}
		require.NoError(t, conn.ReadJSON(&evt))
		names = append(names, evt.Event)
	}
	return names
}
