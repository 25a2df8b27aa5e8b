package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewIPExtractor(t *testing.T) {
	request := func(remote, forwarded string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set(echo.HeaderXForwardedFor, forwarded)
			req.Header.Set(echo.HeaderXRealIP, forwarded)
		}
		return req
	}

	t.Run("without trusted proxies forwarding headers are ignored", func(t *testing.T) {
		extract, err := NewIPExtractor(nil)
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.7", extract(request("198.51.100.7:4000", "203.0.113.9")))
		assert.Equal(t, "10.0.0.5", extract(request("10.0.0.5:4000", "203.0.113.9")))
	})

	t.Run("forwarded address is used only behind a trusted proxy", func(t *testing.T) {
		extract, err := NewIPExtractor([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.9", extract(request("10.1.2.3:4000", "203.0.113.9")))
		assert.Equal(t, "198.51.100.7", extract(request("198.51.100.7:4000", "203.0.113.9")))
		assert.Equal(t, "127.0.0.1", extract(request("127.0.0.1:4000", "203.0.113.9")))
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := NewIPExtractor([]string{"not-a-cidr"})
		assert.Error(t, err)
	})
}

func TestRateLimiter_AllowsTheMinuteAllowanceAsBurst(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	extract, err := NewIPExtractor(nil)
	require.NoError(t, err)
	e.IPExtractor = extract
	e.Use(RateLimiter(10))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	send := func(remote, forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set(echo.HeaderXForwardedFor, forwarded)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusNoContent, send("192.0.2.1:5000", "").Code, "request %d", i+1)
	}

	rec := send("192.0.2.1:5000", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TOO_MANY_REQUESTS", body.Code)

	// a forged header does not buy a fresh allowance
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:5001", "203.0.113.50").Code)
	assert.Equal(t, http.StatusNoContent, send("192.0.2.2:5000", "").Code)
}

func TestAPI_WebsocketCapIgnoresForwardedHeaders(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	room := api.createRoom(t, map[string]string{"organizer_name": "Alice"})

	spoofed := func(i int) http.Header {
		header := http.Header{}
		header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i+1))
		header.Set(echo.HeaderXRealIP, fmt.Sprintf("198.51.100.%d", i+1))
		return header
	}

	// the test hub allows two connections per address
	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		ws, _, err := dialRoomWithHeader(t, srv, room.Room.ID, spoofed(i))
		require.NoError(t, err)
		defer ws.Close()
	}
	require.Eventually(t, func() bool { return api.hub.ConnectionCount(room.Room.ID) == 2 }, time.Second, 10*time.Millisecond)

	for i := 2; i < 6; i++ {
		ws, _, err := dialRoomWithHeader(t, srv, room.Room.ID, spoofed(i))
		require.NoError(t, err)
		defer ws.Close()
		conns = append(conns, ws)
	}

	for _, ws := range conns {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := ws.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	}
	assert.Equal(t, 2, api.hub.ConnectionCount(room.Room.ID))
	assert.Equal(t, 2, api.hub.AddrCount("127.0.0.1"))
}
