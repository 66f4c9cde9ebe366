package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/votingroom/internal/api"
	"github.com/mcoot/votingroom/internal/api/middleware"
	"github.com/mcoot/votingroom/internal/api/response"
	"github.com/mcoot/votingroom/internal/dependencies/clock"
	"github.com/mcoot/votingroom/internal/factory"
	"github.com/mcoot/votingroom/internal/model"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T, limiter *middleware.Limiter) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		Hubs:           app.Hubs,
		RateLimiter:    limiter,
		AllowedOrigin:  "*",
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, fingerprint string, headers ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if fingerprint != "" {
		req.Header.Set(middleware.FingerprintHeader, fingerprint)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeRoom(t *testing.T, rr *httptest.ResponseRecorder) response.Room {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.True(t, env.Success, rr.Body.String())

	var room response.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	return room
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
	return env
}

func createRoom(t *testing.T, ts *testServer, body map[string]any) response.Room {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/rooms", body, "fp-host")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeRoom(t, rr)
}

func roomPath(id string, action string) string {
	if action == "" {
		return "/api/rooms/" + id
	}
	return "/api/rooms/" + id + "/" + action
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok","rooms":0}}`, rr.Body.String())
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t, nil)

	room := createRoom(t, ts, map[string]any{
		"players":          []string{"A", "B"},
		"creator_username": "Host",
		"match_id":         42,
	})

	assert.NotEmpty(t, room.RoomID)
	assert.Equal(t, "created", room.State)
	assert.Equal(t, int64(1), room.Version)
	assert.Len(t, room.Players, 2)
	assert.False(t, room.Players[0].Claimed)
	assert.Equal(t, "Host", room.CreatorUsername)
	assert.True(t, room.IsCreator)
	assert.Equal(t, int64(42), room.MatchID)
	assert.True(t, room.Settings.ShowOnlyWinnerVotes)
	assert.Nil(t, room.MyVote)
}

func TestCreateRoomWithEmptyBody(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodPost, "/api/rooms", nil, "fp-host")
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateRoomCustomIDConflict(t *testing.T) {
	ts := newTestServer(t, nil)

	room := createRoom(t, ts, map[string]any{"room_id": "game-night"})
	assert.Equal(t, "game-night", room.RoomID)

	rr := ts.request(http.MethodPost, "/api/rooms", map[string]any{"room_id": "game-night"}, "fp-host")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ROOM_ALREADY_EXISTS", decodeError(t, rr).Error)
}

func TestCreateRoomInvalidID(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodPost, "/api/rooms", map[string]any{"room_id": "../etc"}, "fp-host")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString("{not json"))
	req.Header.Set(middleware.FingerprintHeader, "fp-host")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)
}

func TestMutationsRequireFingerprint(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, nil)

	for _, path := range []string{
		"/api/rooms",
		roomPath(room.RoomID, "join"),
		roomPath(room.RoomID, "start"),
		roomPath(room.RoomID, "vote"),
		roomPath(room.RoomID, "reset"),
		roomPath(room.RoomID, "generate-order"),
	} {
		rr := ts.request(http.MethodPost, path, map[string]any{}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rr).Error, path)
	}

	// Reads stay open
	rr := ts.request(http.MethodGet, roomPath(room.RoomID, ""), nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodGet, roomPath("nope", ""), nil, "fp1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", decodeError(t, rr).Error)
}

func TestVotingRoundOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A", "B"}})
	id := room.RoomID

	rr := ts.request(http.MethodPost, roomPath(id, "start"), nil, "fp-host")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "voting", decodeRoom(t, rr).State)

	// Starting again is a harmless retry
	rr = ts.request(http.MethodPost, roomPath(id, "start"), nil, "fp-host")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "voting", decodeRoom(t, rr).State)

	rr = ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 1, "username": "Alice"}, "fp1")
	require.Equal(t, http.StatusOK, rr.Code)
	voting := decodeRoom(t, rr)
	assert.Equal(t, "voting", voting.State)
	assert.Equal(t, 1, voting.VotesCast)
	assert.Equal(t, []string{"Alice"}, voting.VotedUsernames)
	require.NotNil(t, voting.MyVote)
	assert.Equal(t, 1, *voting.MyVote)
	assert.Empty(t, voting.VoteCounts, "tallies stay hidden until the round completes")
	assert.True(t, voting.Players[0].IsYou)

	// Another caller cannot see fp1's ballot
	rr = ts.request(http.MethodGet, roomPath(id, ""), nil, "fp2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeRoom(t, rr).MyVote)

	rr = ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 1}, "fp2")
	require.Equal(t, http.StatusOK, rr.Code)
	done := decodeRoom(t, rr)
	assert.Equal(t, "completed", done.State)
	assert.Equal(t, []int{1}, done.Winners)
	require.Len(t, done.VoteCounts, 1, "only winners are shown by default")
	assert.Equal(t, 2, done.VoteCounts[0].Votes)

	rr = ts.request(http.MethodPost, roomPath(id, "reset"), nil, "fp-host")
	require.Equal(t, http.StatusOK, rr.Code)
	reset := decodeRoom(t, rr)
	assert.Equal(t, "voting", reset.State)
	assert.Equal(t, 0, reset.VotesCast)
	assert.Len(t, reset.Players, 2)
}

func TestShowAllVoteCounts(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A", "B"}, "show_only_winner_votes": false})
	id := room.RoomID

	ts.request(http.MethodPost, roomPath(id, "start"), nil, "fp-host")
	ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 0}, "fp1")
	rr := ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 0}, "fp2")
	require.Equal(t, http.StatusOK, rr.Code)

	done := decodeRoom(t, rr)
	require.Len(t, done.VoteCounts, 2)
	assert.Equal(t, 0, done.VoteCounts[1].Votes)
}

func TestVoteErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A", "B"}})
	id := room.RoomID

	rr := ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 0}, "fp1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, rr).Error)

	ts.request(http.MethodPost, roomPath(id, "start"), nil, "fp-host")

	rr = ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"player_index": 5}, "fp1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_PLAYER_INDEX", decodeError(t, rr).Error)

	rr = ts.request(http.MethodPost, roomPath(id, "vote"), map[string]any{"username": "x"}, "fp1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)

	rr = ts.request(http.MethodGet, roomPath(id, ""), nil, "fp1")
	assert.Equal(t, int64(2), decodeRoom(t, rr).Version)
}

func TestStartEmptyRoom(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, nil)

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "EMPTY_ROOM", decodeError(t, rr).Error)
}

func TestJoinThenStart(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, nil)

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "join"), map[string]any{"username": "Alice"}, "fp1")
	require.Equal(t, http.StatusOK, rr.Code)
	joined := decodeRoom(t, rr)
	require.Len(t, joined.Players, 1)
	assert.Equal(t, "Alice", joined.Players[0].Username)
	assert.True(t, joined.Players[0].Claimed)

	rr = ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResetBeforeStart(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A"}})

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "reset"), nil, "fp-host")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, rr).Error)
}

func TestGenerateOrder(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A", "B", "C", "D"}})

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "generate-order"), nil, "fp-host")
	require.Equal(t, http.StatusOK, rr.Code)
	ordered := decodeRoom(t, rr)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, ordered.Order)
	assert.Equal(t, "created", ordered.State)
}

func TestGenerateOrderEmptyRoom(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, nil)

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "generate-order"), nil, "fp-host")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "EMPTY_ROOM", decodeError(t, rr).Error)
}

func TestCreatorControls(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A"}, "creator_controls": true})

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-guest")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "PERMISSION_DENIED", decodeError(t, rr).Error)

	rr = ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestVersionPrecondition(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A"}})

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host", "X-Room-Version", "99")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "VERSION_CONFLICT", decodeError(t, rr).Error)

	rr = ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host", "X-Room-Version", "abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host", "X-Room-Version", strconv.FormatInt(room.Version, 10))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, strconv.FormatInt(room.Version+1, 10), rr.Header().Get("X-Room-Version"))
}

func TestConcurrentVotesOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)
	players := make([]string, 16)
	for i := range players {
		players[i] = "P" + strconv.Itoa(i)
	}
	room := createRoom(t, ts, map[string]any{"players": players})
	ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host")

	var wg sync.WaitGroup
	codes := make([]int, len(players))
	for i := range players {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := ts.request(http.MethodPost, roomPath(room.RoomID, "vote"), map[string]any{"player_index": 0}, "fp"+strconv.Itoa(i))
			codes[i] = rr.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	rr := ts.request(http.MethodGet, roomPath(room.RoomID, ""), nil, "")
	final := decodeRoom(t, rr)
	assert.Equal(t, "completed", final.State)
	assert.Equal(t, len(players), final.VotesCast)
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewLimiter(middleware.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, clock.New())
	ts := newTestServer(t, limiter)

	for range 2 {
		rr := ts.request(http.MethodGet, "/api/health", nil, "fp-spam")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	rr := ts.request(http.MethodGet, "/api/health", nil, "fp-spam")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rr).Error)

	// Other callers have their own budget
	rr = ts.request(http.MethodGet, "/api/health", nil, "fp-other")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnmatchedRoutesReturnErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown action", http.MethodGet, "/api/rooms/abc/unknown", http.StatusNotFound, "NOT_FOUND"},
		{"unknown api path", http.MethodGet, "/api/nothing", http.StatusNotFound, "NOT_FOUND"},
		{"outside api", http.MethodGet, "/", http.StatusNotFound, "NOT_FOUND"},
		{"delete room", http.MethodDelete, "/api/rooms/abc", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"get vote", http.MethodGet, "/api/rooms/abc/vote", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"get rooms", http.MethodGet, "/api/rooms", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(tt.method, tt.path, nil, "fp-lost")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeError(t, rr).Error)
		})
	}
}

func TestUnmatchedRoutesAreRateLimited(t *testing.T) {
	limiter := middleware.NewLimiter(middleware.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, clock.New())
	ts := newTestServer(t, limiter)

	rr := ts.request(http.MethodGet, "/api/rooms/abc/unknown", nil, "fp-scan")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = ts.request(http.MethodGet, "/api/rooms/abc/unknown", nil, "fp-scan")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rr).Error)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodOptions, "/api/rooms/abc/vote", nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-User-Fingerprint")
}

func TestEvictedRoomIsGone(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, nil)

	ctx := t.Context()
	require.NoError(t, ts.app.RoomController.EvictRoom(ctx, "unknown"))
	require.NoError(t, ts.app.RoomController.EvictRoom(ctx, model.RoomID(room.RoomID)))

	rr := ts.request(http.MethodGet, roomPath(room.RoomID, ""), nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCancelledRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	room := createRoom(t, ts, map[string]any{"players": []string{"A"}})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	req := httptest.NewRequest(http.MethodPost, roomPath(room.RoomID, "start"), nil).WithContext(ctx)
	req.Header.Set(middleware.FingerprintHeader, "fp-host")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Either the room was already free and the start applied, or the
	// request was abandoned without touching the room.
	if rr.Code != http.StatusOK {
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "REQUEST_CANCELLED", decodeError(t, rr).Error)
	}
}

// readEvent returns the next server-sent event, skipping keepalive comments
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()

	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case line == "":
			if name != "" {
				return name, data
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data += strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestRoomEventStream(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	room := createRoom(t, ts, map[string]any{"players": []string{"A", "B"}})

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+roomPath(room.RoomID, "events"), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	name, data := readEvent(t, reader)
	assert.Equal(t, "room-updated", name)
	assert.JSONEq(t, `{"room_id":"`+room.RoomID+`","version":1,"state":"created","players":2,"votes_cast":0}`, data)

	rr := ts.request(http.MethodPost, roomPath(room.RoomID, "start"), nil, "fp-host")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, roomPath(room.RoomID, "vote"), map[string]any{"player_index": 1}, "fp-a")
	require.Equal(t, http.StatusOK, rr.Code)

	name, data = readEvent(t, reader)
	assert.Equal(t, "room-updated", name)
	assert.Contains(t, data, `"version":2`)
	assert.Contains(t, data, `"state":"voting"`)

	// Ballots never appear on the stream, only the count
	name, data = readEvent(t, reader)
	assert.Equal(t, "room-updated", name)
	assert.Contains(t, data, `"version":3`)
	assert.Contains(t, data, `"votes_cast":1`)
	assert.NotContains(t, data, "player_index")

	require.NoError(t, ts.app.RoomController.EvictRoom(ctx, model.RoomID(room.RoomID)))
	name, _ = readEvent(t, reader)
	assert.Equal(t, "room-closed", name)
}

func TestRoomEventStreamMissingRoom(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.request(http.MethodGet, roomPath("missing", "events"), nil, "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", decodeError(t, rr).Error)
}
