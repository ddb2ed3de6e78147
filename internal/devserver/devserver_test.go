package devserver

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomweave/loom/internal/logging"
)

func TestHandler_ServesDistDirFiles(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("hello loom"), 0o644))

	s := New(dist, logging.Default())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func dialReload(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/__loom/reload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestBroadcast_DeliversReloadToConnectedClients(t *testing.T) {
	s := New(t.TempDir(), logging.Default())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialReload(t, srv)
	defer conn.Close()

	// Give the server a moment to register the connection before we
	// broadcast, since the upgrade handshake completes asynchronously
	// from the client's point of view.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 1
	}, time.Second, 10*time.Millisecond)

	s.Broadcast()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}

func TestAddClient_RetainsOnlyTheMostRecentMaxClients(t *testing.T) {
	s := New(t.TempDir(), logging.Default())
	for i := 0; i < maxClients+3; i++ {
		s.addClient(&client{id: string(rune('a' + i))})
	}
	assert.Len(t, s.clients, maxClients)
	assert.Equal(t, string(rune('a'+maxClients+3-1)), s.clients[len(s.clients)-1].id)
}

func TestRemoveClient_DropsOnlyTheMatchingID(t *testing.T) {
	s := New(t.TempDir(), logging.Default())
	a := &client{id: "a"}
	b := &client{id: "b"}
	s.addClient(a)
	s.addClient(b)

	s.removeClient(a)

	require.Len(t, s.clients, 1)
	assert.Equal(t, "b", s.clients[0].id)
}

func TestListen_FallsBackToOSAssignedPortWhenPreferredIsTaken(t *testing.T) {
	first, err := Listen(0)
	require.NoError(t, err)
	defer first.Close()

	taken := first.Addr().(*net.TCPAddr).Port
	second, err := Listen(taken)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, taken, second.Addr().(*net.TCPAddr).Port)
}
