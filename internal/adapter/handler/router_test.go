package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/adapter/repository/memory"
	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/broadcast"
	httpmw "github.com/KiiTuNp/SUPERvote/internal/infrastructure/http/middleware"
	pollUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/poll"
	roomUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/room"
	"github.com/KiiTuNp/SUPERvote/pkg/clock"
	"github.com/KiiTuNp/SUPERvote/pkg/idgen"
	"github.com/KiiTuNp/SUPERvote/pkg/jwt"
	"github.com/KiiTuNp/SUPERvote/pkg/middleware"
	"github.com/KiiTuNp/SUPERvote/pkg/validator"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	e   *echo.Echo
	hub *broadcast.Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	hub := broadcast.NewHub(broadcast.Options{MaxConnsPerAddr: 2}, zap.NewNop(), nil)
	t.Cleanup(hub.Close)

	clk := clock.NewMock(t0)
	ids := &idgen.Sequence{}
	tokens := jwt.NewManager("test-secret", time.Hour).WithClock(clk.Now)

	rooms := roomUsecase.NewRoomService(store, hub, clk, ids, zap.NewNop(),
		roomUsecase.WithTokenIssuer(tokens),
		roomUsecase.WithConnectionCounter(hub),
	)
	polls := pollUsecase.NewPollService(store, hub, clk, ids, zap.NewNop(), nil)

	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	ipExtractor, err := NewIPExtractor(nil)
	require.NoError(t, err)
	e.IPExtractor = ipExtractor

	NewRouter(
		NewRoomHandler(rooms, tokens.GetExpiry(), nil),
		NewPollHandler(polls, nil),
		NewRealtimeHandler(hub, rooms, RealtimeOptions{WriteTimeout: time.Second}, nil),
		NewHealthHandler("test", nil, nil),
		httpmw.EchoOrganizerAuth(tokens),
	).Setup(e)

	return &testAPI{e: e, hub: hub}
}

type envelope struct {
	Code    json.RawMessage   `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func participant(token string) map[string]string {
	return map[string]string{middleware.ParticipantTokenHeader: token}
}

type createdRoom struct {
	Room struct {
		ID string `json:"room_id"`
	} `json:"room"`
	OrganizerToken string `json:"organizer_token"`
	ExpiresIn      int64  `json:"expires_in"`
}

type joined struct {
	Participant struct {
		ID             string `json:"participant_id"`
		ApprovalStatus string `json:"approval_status"`
	} `json:"participant"`
	ParticipantToken string `json:"participant_token"`
}

type pollBody struct {
	ID      string `json:"poll_id"`
	Status  string `json:"status"`
	Options []struct {
		ID   string `json:"option_id"`
		Text string `json:"text"`
	} `json:"options"`
	StopReason *string `json:"stop_reason"`
}

type resultsBody struct {
	Status  string `json:"status"`
	Results []struct {
		Text  string `json:"text"`
		Votes int64  `json:"votes"`
	} `json:"results"`
	TotalVotes int64 `json:"total_votes"`
}

func (a *testAPI) createRoom(t *testing.T, body map[string]string) createdRoom {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/v1/rooms", body, nil)
	require.Equal(t, http.StatusCreated, status, env.Message)
	return decode[createdRoom](t, env.Data)
}

func (a *testAPI) join(t *testing.T, roomID, name string) joined {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/v1/rooms/"+roomID+"/join", map[string]string{"participant_name": name}, nil)
	require.Equal(t, http.StatusCreated, status, env.Message)
	return decode[joined](t, env.Data)
}

func TestAPI_VotingFlow(t *testing.T) {
	api := newTestAPI(t)

	room := api.createRoom(t, map[string]string{"organizer_name": "Alice", "room_id": "abc123"})
	assert.Equal(t, "ABC123", room.Room.ID)
	assert.NotEmpty(t, room.OrganizerToken)
	assert.Equal(t, int64(3600), room.ExpiresIn)
	org := bearer(room.OrganizerToken)

	bob := api.join(t, "ABC123", "Bob")
	assert.Equal(t, "pending", bob.Participant.ApprovalStatus)
	assert.NotEmpty(t, bob.ParticipantToken)

	status, env := api.do(t, http.MethodPost, "/v1/rooms/ABC123/participants/"+bob.Participant.ID+"/approve", nil, org)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = api.do(t, http.MethodPost, "/v1/rooms/ABC123/polls", map[string]any{
		"question": "Lunch?",
		"options":  []string{"Pizza", "Sushi"},
	}, org)
	require.Equal(t, http.StatusCreated, status, env.Message)
	poll := decode[pollBody](t, env.Data)
	assert.Equal(t, "created", poll.Status)
	require.Len(t, poll.Options, 2)

	// voting before start is a conflict
	status, _ = api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", map[string]string{"option_id": poll.Options[0].ID}, participant(bob.ParticipantToken))
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(t, http.MethodPost, "/v1/rooms/ABC123/polls/"+poll.ID+"/start", nil, org)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", map[string]string{"option_id": poll.Options[1].ID}, participant(bob.ParticipantToken))
	require.Equal(t, http.StatusCreated, status, env.Message)
	results := decode[resultsBody](t, env.Data)
	assert.Equal(t, int64(1), results.TotalVotes)
	assert.Equal(t, "Sushi", results.Results[1].Text)
	assert.Equal(t, int64(1), results.Results[1].Votes)

	status, env = api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", map[string]string{"option_id": poll.Options[0].ID}, participant(bob.ParticipantToken))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, `"VOTE_ALREADY_CAST"`, string(env.Code))

	status, env = api.do(t, http.MethodPost, "/v1/rooms/ABC123/polls/"+poll.ID+"/stop", nil, org)
	require.Equal(t, http.StatusOK, status)
	stopped := decode[pollBody](t, env.Data)
	assert.Equal(t, "completed", stopped.Status)
	require.NotNil(t, stopped.StopReason)
	assert.Equal(t, "manual", *stopped.StopReason)

	status, env = api.do(t, http.MethodGet, "/v1/polls/"+poll.ID+"/results", nil, nil)
	require.Equal(t, http.StatusOK, status)
	final := decode[resultsBody](t, env.Data)
	assert.Equal(t, "completed", final.Status)
	assert.Equal(t, int64(1), final.TotalVotes)

	status, env = api.do(t, http.MethodGet, "/v1/rooms/ABC123", nil, nil)
	require.Equal(t, http.StatusOK, status)
	roomStatus := decode[struct {
		Participants struct {
			Approved int64 `json:"approved"`
		} `json:"participants"`
		Polls struct {
			Completed int64 `json:"completed"`
		} `json:"polls"`
	}](t, env.Data)
	assert.Equal(t, int64(1), roomStatus.Participants.Approved)
	assert.Equal(t, int64(1), roomStatus.Polls.Completed)
}

func TestAPI_OrganizerRoutesRequireRoomToken(t *testing.T) {
	api := newTestAPI(t)
	first := api.createRoom(t, map[string]string{"organizer_name": "Alice"})
	second := api.createRoom(t, map[string]string{"organizer_name": "Eve"})

	path := "/v1/rooms/" + first.Room.ID + "/participants"

	status, env := api.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, `"UNAUTHENTICATED"`, string(env.Code))

	status, env = api.do(t, http.MethodGet, path, nil, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, `"AUTH_INVALID_TOKEN"`, string(env.Code))

	status, env = api.do(t, http.MethodGet, path, nil, bearer(second.OrganizerToken))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, `"ROOM_ACCESS_DENIED"`, string(env.Code))

	status, _ = api.do(t, http.MethodGet, path, nil, bearer(first.OrganizerToken))
	assert.Equal(t, http.StatusOK, status)

	// lower-case room codes address the same room
	status, _ = api.do(t, http.MethodGet, "/v1/rooms/"+strings.ToLower(first.Room.ID)+"/participants", nil, bearer(first.OrganizerToken))
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_UnknownTokenLooksLikeMissingParticipant(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom(t, map[string]string{"organizer_name": "Alice"})
	carol := api.join(t, room.Room.ID, "Carol")

	status, env := api.do(t, http.MethodPost, "/v1/rooms/"+room.Room.ID+"/polls", map[string]any{
		"question": "Q?",
		"options":  []string{"A", "B"},
	}, bearer(room.OrganizerToken))
	require.Equal(t, http.StatusCreated, status)
	poll := decode[pollBody](t, env.Data)
	status, _ = api.do(t, http.MethodPost, "/v1/rooms/"+room.Room.ID+"/polls/"+poll.ID+"/start", nil, bearer(room.OrganizerToken))
	require.Equal(t, http.StatusOK, status)

	vote := map[string]string{"option_id": poll.Options[0].ID}

	status, unknown := api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", vote, participant("no-such-token"))
	assert.Equal(t, http.StatusNotFound, status)

	// pending participants are rejected with the same body
	status, pending := api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", vote, participant(carol.ParticipantToken))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, unknown.Code, pending.Code)
	assert.Equal(t, unknown.Message, pending.Message)

	status, _ = api.do(t, http.MethodPost, "/v1/polls/"+poll.ID+"/votes", vote, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = api.do(t, http.MethodGet, "/v1/participants/me", nil, participant(carol.ParticipantToken))
	require.Equal(t, http.StatusOK, status)
	me := decode[struct {
		ID string `json:"participant_id"`
	}](t, env.Data)
	assert.Equal(t, carol.Participant.ID, me.ID)

	status, _ = api.do(t, http.MethodGet, "/v1/participants/me", nil, participant("no-such-token"))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_ValidationAndConflicts(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodPost, "/v1/rooms", map[string]string{"organizer_name": "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "organizer_name", env.Details["field"])

	status, _ = api.do(t, http.MethodPost, "/v1/rooms", map[string]string{"organizer_name": "Alice", "room_id": "AB"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	room := api.createRoom(t, map[string]string{"organizer_name": "Alice", "room_id": "TEAM1"})
	status, env = api.do(t, http.MethodPost, "/v1/rooms", map[string]string{"organizer_name": "Mallory", "room_id": "team1"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, `"ROOM_ALREADY_EXISTS"`, string(env.Code))

	api.join(t, room.Room.ID, "Bob")
	status, env = api.do(t, http.MethodPost, "/v1/rooms/TEAM1/join", map[string]string{"participant_name": "bob"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, `"PARTICIPANT_NAME_TAKEN"`, string(env.Code))

	status, _ = api.do(t, http.MethodPost, "/v1/rooms/NOPE/join", map[string]string{"participant_name": "Bob"}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = api.do(t, http.MethodPost, "/v1/rooms/TEAM1/polls", map[string]any{
		"question": "Q?",
		"options":  []string{"Same", "Same"},
	}, bearer(room.OrganizerToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "options", env.Details["field"])

	status, env = api.do(t, http.MethodPost, "/v1/rooms/TEAM1/polls", map[string]any{
		"question":      "Q?",
		"options":       []string{"A", "B"},
		"timer_minutes": 0,
	}, bearer(room.OrganizerToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "timer_minutes", env.Details["field"])

	status, _ = api.do(t, http.MethodGet, "/v1/polls/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_DeleteRoom(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom(t, map[string]string{"organizer_name": "Alice"})
	api.join(t, room.Room.ID, "Bob")

	status, _ := api.do(t, http.MethodDelete, "/v1/rooms/"+room.Room.ID, nil, bearer(room.OrganizerToken))
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(t, http.MethodGet, "/v1/rooms/"+room.Room.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func dialRoom(t *testing.T, srv *httptest.Server, roomID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return dialRoomWithHeader(t, srv, roomID, nil)
}

func dialRoomWithHeader(t *testing.T, srv *httptest.Server, roomID string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/rooms/" + roomID + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, ws *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var e events.Event
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestAPI_WebsocketReceivesRoomEvents(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	room := api.createRoom(t, map[string]string{"organizer_name": "Alice"})

	ws, _, err := dialRoom(t, srv, room.Room.ID)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return api.hub.ConnectionCount(room.Room.ID) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))

	api.join(t, room.Room.ID, "Bob")
	e := readEvent(t, ws)
	assert.Equal(t, events.TypeParticipantJoined, e.Type)
	assert.Equal(t, room.Room.ID, e.RoomID)

	// closing the room notifies then disconnects
	status, _ := api.do(t, http.MethodDelete, "/v1/rooms/"+room.Room.ID, nil, bearer(room.OrganizerToken))
	require.Equal(t, http.StatusOK, status)
	e = readEvent(t, ws)
	assert.Equal(t, events.TypeRoomClosed, e.Type)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestAPI_WebsocketRejections(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	_, resp, err := dialRoom(t, srv, "NOPE")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	room := api.createRoom(t, map[string]string{"organizer_name": "Alice"})

	// the test hub allows two connections per address
	for i := 0; i < 2; i++ {
		ws, _, err := dialRoom(t, srv, room.Room.ID)
		require.NoError(t, err)
		defer ws.Close()
	}
	require.Eventually(t, func() bool { return api.hub.ConnectionCount(room.Room.ID) == 2 }, time.Second, 10*time.Millisecond)

	third, _, err := dialRoom(t, srv, room.Room.ID)
	require.NoError(t, err)
	defer third.Close()

	require.NoError(t, third.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = third.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Equal(t, 2, api.hub.ConnectionCount(room.Room.ID))
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	status, _ := api.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}
