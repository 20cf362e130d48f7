package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"schoolpulse/internal/dataset"
	"schoolpulse/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(Options{PingPeriod: time.Hour, PongWait: 2 * time.Hour}, logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func connect(t *testing.T, hub *Hub) (*Client, *MockConnection) {
	t.Helper()
	conn := NewMockConnection()
	client := NewClient(hub, conn, "trace-"+t.Name())
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return client, conn
}

func decode(t *testing.T, raw []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func waitForMessages(t *testing.T, conn *MockConnection, n int) [][]byte {
	t.Helper()
	require.Eventually(t, func() bool { return len(conn.TextMessages()) >= n },
		time.Second, 5*time.Millisecond)
	return conn.TextMessages()
}

func TestHub_RegisterSendsConnectionMessage(t *testing.T) {
	hub := newTestHub(t)
	client, conn := connect(t, hub)

	msgs := waitForMessages(t, conn, 1)
	msg := decode(t, msgs[0])
	assert.Equal(t, TypeConnection, msg.Type)
	assert.Equal(t, "trace-"+t.Name(), msg.TraceID)
	assert.Equal(t, client.ID(), msg.Data.(map[string]interface{})["client_id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_DatasetReloadedBroadcast(t *testing.T) {
	hub := newTestHub(t)
	_, first := connect(t, hub)
	_, second := connect(t, hub)
	waitForMessages(t, first, 1)
	waitForMessages(t, second, 1)

	hub.DatasetReloaded(context.Background(), dataset.Snapshot{
		Loaded:      true,
		Rows:        9,
		Years:       []int{2022, 2023, 2024},
		Fingerprint: "abc",
		LoadedAt:    time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	})

	for _, conn := range []*MockConnection{first, second} {
		msgs := waitForMessages(t, conn, 2)
		msg := decode(t, msgs[1])
		assert.Equal(t, TypeDatasetReloaded, msg.Type)

		data := msg.Data.(map[string]interface{})
		assert.EqualValues(t, 9, data["rows"])
		assert.Equal(t, "abc", data["fingerprint"])
		assert.Equal(t, "2024-04-01T09:00:00Z", data["loaded_at"])
	}
}

func TestHub_DatasetFailedBroadcast(t *testing.T) {
	hub := newTestHub(t)
	_, conn := connect(t, hub)
	waitForMessages(t, conn, 1)

	hub.DatasetFailed(context.Background(), errors.New("admissions data unavailable: year 2023"))

	msg := decode(t, waitForMessages(t, conn, 2)[1])
	assert.Equal(t, TypeDatasetError, msg.Type)
	assert.Contains(t, msg.Data.(map[string]interface{})["message"], "2023")
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := newTestHub(t)
	_, conn := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_HeartbeatIgnored(t *testing.T) {
	hub := newTestHub(t)
	_, conn := connect(t, hub)
	waitForMessages(t, conn, 1)

	conn.Push(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))
	conn.Push(websocket.TextMessage, []byte(`hello`))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
	assert.Len(t, conn.TextMessages(), 1)
}

func TestHub_StopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(Options{}, logger, nil)
	hub.Start()

	_, conn := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()

	assert.Eventually(t, conn.IsClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())

	// Nothing blocks once the hub is gone.
	hub.Broadcast(context.Background(), TypeDatasetReloaded, nil)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(configWith(0, 0))
	assert.Equal(t, 60*time.Second, opts.PongWait)
	assert.Equal(t, 54*time.Second, opts.PingPeriod)

	opts = OptionsFromConfig(configWith(20*time.Second, 10*time.Second))
	assert.Equal(t, 9*time.Second, opts.PingPeriod, "ping period must stay below pong wait")
}

func TestServeWS_RealConnection(t *testing.T) {
	hub := newTestHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn, "")
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, TypeConnection, msg.Type)

	hub.DatasetReloaded(context.Background(), dataset.Snapshot{Rows: 3})
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, TypeDatasetReloaded, msg.Type)
}
