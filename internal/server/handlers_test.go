package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendog/following-api/internal/config"
	"github.com/bendog/following-api/internal/hub"
	"github.com/bendog/following-api/internal/ledger"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	return testServerWithLimit(t, 0)
}

func testServerWithLimit(t *testing.T, maxConnections int) (*Server, *httptest.Server) {
	t.Helper()

	clock := clockwork.NewRealClock()
	cfg := &config.Config{
		AppEnv:        "test",
		WebsocketHost: "ws://localhost:8000",
		HistoryLimit:  100,
	}

	chatHub := hub.New("chat", clock, cfg.HistoryLimit, maxConnections)
	statusLedger := ledger.New(clock, cfg.HistoryLimit, maxConnections)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:            e,
		config:          cfg,
		chatHub:         chatHub,
		ledger:          statusLedger,
		indexTemplate:   template.Must(template.New("index.html").Parse(`<html>chat {{ .WebsocketHost }}</html>`)),
		monitorTemplate: template.Must(template.New("monitor.html").Parse(`<html>monitor {{ .WebsocketHost }}</html>`)),
		startTime:       time.Now(),
	}
	srv.registerRoutes()

	ts := httptest.NewServer(e)
	t.Cleanup(func() {
		ts.Close()
		chatHub.Stop()
		statusLedger.Stop()
	})

	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *ws.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func waitFor(cond func() bool) bool {
	for i := 0; i < 100; i++ {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestIndexPage(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "ws://localhost:8000")
}

func TestMonitorPage(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/mon/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "monitor")
}

func TestLiveness(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
}

func TestChatEchoAndBroadcast(t *testing.T) {
	srv, ts := testServer(t)

	alice := dialWS(t, ts, "/ws/alice")
	bob := dialWS(t, ts, "/ws/bob")
	require.True(t, waitFor(func() bool { return srv.chatHub.ChannelCount() == 2 }))

	require.NoError(t, alice.WriteMessage(ws.TextMessage, []byte("hello world")))

	assert.Equal(t, "You wrote: hello world", readText(t, alice))
	assert.Equal(t, "Client #alice says: hello world", readText(t, alice))
	assert.Equal(t, "Client #alice says: hello world", readText(t, bob))
}

func TestChatStatusUpdate(t *testing.T) {
	srv, ts := testServer(t)

	monitor := dialWS(t, ts, "/mon/ws")
	alice := dialWS(t, ts, "/ws/alice")
	require.True(t, waitFor(func() bool { return srv.chatHub.ChannelCount() == 1 }))

	require.NoError(t, alice.WriteMessage(ws.TextMessage, []byte("5")))

	assert.Equal(t, "You wrote: 5", readText(t, alice))
	assert.Equal(t, "Client #alice adjusted their score to: 5", readText(t, alice))
	assert.Equal(t, "Following Value is 5.0", readText(t, alice))

	var snapshot ledger.Snapshot
	require.NoError(t, json.Unmarshal([]byte(readText(t, monitor)), &snapshot))
	assert.Equal(t, map[string]int{"alice": 5}, snapshot.Detail)
	assert.Equal(t, 5.0, snapshot.Mean)
	assert.Equal(t, 5, snapshot.Median)
}

func TestChatMalformedPayloadFallsBackToPlainChat(t *testing.T) {
	srv, ts := testServer(t)

	monitor := dialWS(t, ts, "/mon/ws")
	alice := dialWS(t, ts, "/ws/alice")
	require.True(t, waitFor(func() bool { return srv.chatHub.ChannelCount() == 1 }))

	require.NoError(t, alice.WriteMessage(ws.TextMessage, []byte("not-a-number")))

	assert.Equal(t, "You wrote: not-a-number", readText(t, alice))
	assert.Equal(t, "Client #alice says: not-a-number", readText(t, alice))

	// The ledger is untouched and no aggregate reaches the monitor.
	score, err := srv.ledger.ClientStatus("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	monitor.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = monitor.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectBroadcastsLeaveAndClearsLedger(t *testing.T) {
	srv, ts := testServer(t)

	alice := dialWS(t, ts, "/ws/alice")
	bob := dialWS(t, ts, "/ws/bob")
	require.True(t, waitFor(func() bool { return srv.chatHub.ChannelCount() == 2 }))

	alice.Close()

	assert.Equal(t, "Client #alice left the chat", readText(t, bob))
	require.True(t, waitFor(func() bool {
		_, err := srv.ledger.ClientStatus("alice")
		return err != nil
	}))
}

func TestChatJoinFailureClosesConnection(t *testing.T) {
	srv, ts := testServerWithLimit(t, 1)

	dialWS(t, ts, "/ws/alice")
	require.True(t, waitFor(func() bool { return srv.chatHub.ChannelCount() == 1 }))

	// The second join is rejected; the handler must close the upgraded
	// socket rather than abandon it.
	rejected := dialWS(t, ts, "/ws/bob")
	rejected.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := rejected.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout())
	}

	assert.Equal(t, 1, srv.chatHub.ChannelCount())
	_, err = srv.ledger.ClientStatus("bob")
	assert.Error(t, err)
}

func TestMonitorFramesAreDiscarded(t *testing.T) {
	srv, ts := testServer(t)

	monitor := dialWS(t, ts, "/mon/ws")
	require.True(t, waitFor(func() bool { return srv.ledger.MonitorCount() == 1 }))

	// Monitor input must not surface anywhere: nothing is published and the
	// chat hub history stays empty.
	require.NoError(t, monitor.WriteMessage(ws.TextMessage, []byte("42")))

	monitor.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := monitor.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, srv.chatHub.HistoryLength())
}
