package presentation

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-map/internal/domain"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readScene(t *testing.T, conn *websocket.Conn) Scene {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var scene Scene
	require.NoError(t, json.Unmarshal(msg, &scene))
	return scene
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func sampleScene(id string) *Scene {
	return NewAdapter(DefaultStyle()).Render(domain.LayoutResult{
		WalletNodes: []domain.LayoutNode{{ID: id, Label: id, Type: domain.NodeTypeWallet}},
	})
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	defer h.Close()

	conn := dialHub(t, h)
	waitClients(t, h, 1)

	require.NoError(t, h.Broadcast(sampleScene("w1")))

	scene := readScene(t, conn)
	require.Len(t, scene.Nodes, 1)
	assert.Equal(t, "w1", scene.Nodes[0].ID)
}

func TestHub_LatestOnConnect(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	defer h.Close()

	require.NoError(t, h.Broadcast(sampleScene("first")))
	require.NoError(t, h.Broadcast(sampleScene("second")))

	conn := dialHub(t, h)

	scene := readScene(t, conn)
	require.Len(t, scene.Nodes, 1)
	assert.Equal(t, "second", scene.Nodes[0].ID)
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	defer h.Close()

	conn := dialHub(t, h)
	waitClients(t, h, 1)

	conn.Close()
	waitClients(t, h, 0)
}

func TestHub_BroadcastAfterClose(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.Error(t, h.Broadcast(sampleScene("w")))
}
