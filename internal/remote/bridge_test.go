package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/orientation"
)

const waitFor = 2 * time.Second

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newServer(t *testing.T) (*Bridge, *httptest.Server) {
	t.Helper()
	b := New(model.RemoteConfig{})
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return b, srv
}

func TestBridgeStreamsSamples(t *testing.T) {
	// Given: a phone connected to the bridge
	b, srv := newServer(t)
	conn := dial(t, srv)
	samples, err := b.Open(context.Background())
	require.NoError(t, err)

	// When: the phone reports a reading, a missing reading and garbage
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"orientation","gamma":12.5}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"orientation","gamma":null}`)))

	// Then: both readings arrive in order and the connection survives
	var got []model.Sample
	require.Eventually(t, func() bool {
		select {
		case s := <-samples:
			got = append(got, s)
		default:
		}
		return len(got) == 2
	}, waitFor, time.Millisecond)
	require.NotNil(t, got[0].Gamma)
	assert.InDelta(t, 12.5, *got[0].Gamma, 1e-9)
	assert.Nil(t, got[1].Gamma)
}

func TestBridgePermissionAnswer(t *testing.T) {
	b, srv := newServer(t)
	conn := dial(t, srv)
	perm := b.Permission()
	require.True(t, perm.Async())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "permission", "state": "denied"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "permission", "state": "granted"}))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	state, err := perm.Request(ctx)
	require.NoError(t, err)
	if state == orientation.PermissionDenied {
		// The first answer may have been consumed before the second arrived.
		state, err = perm.Request(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, orientation.PermissionGranted, state)
}

func TestBridgePermissionCancelled(t *testing.T) {
	b := New(model.RemoteConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := b.Permission().Request(ctx)

	assert.Equal(t, orientation.PermissionDenied, state)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridgeBroadcastsState(t *testing.T) {
	b, srv := newServer(t)
	s := model.SessionState{
		Category:      model.Category{Name: "Movies"},
		Words:         []model.WordEntry{{Value: "Alien", Correct: true}, {Value: "Heat"}},
		CurrentIndex:  1,
		HasStarted:    true,
		TimeRemaining: 12,
		PlayTime:      30,
		Timer:         "t1",
	}
	s.CalibrationComplete = true

	// Given: a snapshot published before the phone connects
	b.Broadcast(s)
	conn := dial(t, srv)

	// Then: the phone receives it on connect
	var msg StateMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StateMessage{
		Type:          "state",
		Phase:         "playing",
		Category:      "Movies",
		Word:          "Heat",
		TimeRemaining: 12,
		Correct:       1,
		Total:         1,
	}, msg)

	// When: the round moves on, the phone is told
	s.CurrentIndex = 2
	s.IsOver = true
	b.Broadcast(s)
	var over StateMessage
	require.NoError(t, conn.ReadJSON(&over))
	assert.Equal(t, StateMessage{
		Type:          "state",
		Phase:         "over",
		Category:      "Movies",
		TimeRemaining: 12,
		Correct:       1,
		Total:         2,
	}, over)
}

func TestBridgeServesPages(t *testing.T) {
	_, srv := newServer(t)

	for path, want := range map[string]string{
		"/":        "<title>tiltup</title>",
		"/app.js":  "deviceorientation",
		"/healthz": "ok",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

func TestBridgeServeUntilCancelled(t *testing.T) {
	b := New(model.RemoteConfig{Bind: "127.0.0.1", Port: 0})
	ln, err := b.Listen()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.URL(), "http://127.0.0.1:"))
	assert.NotEqual(t, "http://127.0.0.1:0/", b.URL())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(b.URL() + "healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, waitFor, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("bridge did not stop")
	}
}

func TestBridgeQR(t *testing.T) {
	b := New(model.RemoteConfig{Bind: "192.168.1.20", Port: 8642})
	assert.Equal(t, "http://192.168.1.20:8642/", b.URL())

	qr, err := b.QR()
	require.NoError(t, err)
	assert.Greater(t, strings.Count(qr, "\n"), 10)
}
