// Package devserver serves dist/ over HTTP and pushes live-reload
// notifications over a WebSocket endpoint (spec.md §6 "Dev server").
package devserver

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/loomweave/loom/internal/logging"
)

// maxClients is the most recently connected live-reload clients the
// server keeps broadcasting to; older ones are dropped as new ones
// arrive (spec.md §6 "retain at most the last 10 connected clients").
const maxClients = 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the built site and brokers live-reload notifications.
type Server struct {
	distDir string
	log     *logging.Logger

	mu      sync.Mutex
	clients []*client
}

type client struct {
	id   string
	conn *websocket.Conn
}

// New returns a Server rooted at distDir.
func New(distDir string, log *logging.Logger) *Server {
	return &Server{distDir: distDir, log: log}
}

// Handler returns the http.Handler serving static files and the
// /__loom/reload WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.distDir)))
	mux.HandleFunc("/__loom/reload", s.handleReloadSocket)
	return mux
}

func (s *Server) handleReloadSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("devserver: websocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.New().String(), conn: conn}
	s.addClient(c)
	s.log.Debug("devserver: live-reload client connected", "client", c.id)

	defer func() {
		s.removeClient(c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, c)
	if len(s.clients) > maxClients {
		s.clients = s.clients[len(s.clients)-maxClients:]
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.clients {
		if existing.id == c.id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return
		}
	}
}

// Broadcast sends the literal "reload" message to every connected
// client, pruning any that have since disconnected.
func (s *Server) Broadcast() {
	s.mu.Lock()
	clients := append([]*client(nil), s.clients...)
	s.mu.Unlock()

	var dead []*client
	for _, c := range clients {
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			dead = append(dead, c)
		}
	}
	if len(dead) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range dead {
		for i, existing := range s.clients {
			if existing.id == d.id {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
	}
}

// Listen binds to the preferred port, falling back to an OS-assigned
// port if it is unavailable (spec.md §6 "preferring port 1337 and
// falling back to an OS-assigned port").
func Listen(preferredPort int) (net.Listener, error) {
	addr := ":0"
	if preferredPort > 0 {
		addr = ":" + strconv.Itoa(preferredPort)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil && preferredPort > 0 {
		return net.Listen("tcp", ":0")
	}
	return ln, err
}
