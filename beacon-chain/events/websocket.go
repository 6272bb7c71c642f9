package events

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WebsocketServer broadcasts chain events as strings to every connected
// websocket subscriber.
type WebsocketServer struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	srv      *http.Server
	addr     net.Addr
}

// NewWebsocketServer starts listening on the given address and accepts
// subscriber connections on /.
func NewWebsocketServer(addr string) (*WebsocketServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "could not listen for websocket subscribers")
	}
	s := &WebsocketServer{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// Subscribers are local tooling; the event stream carries no
			// node-controlling surface.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		addr: ln.Addr(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.subscribe)
	s.srv = &http.Server{Handler: mux}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Websocket server failed")
		}
	}()
	log.WithField("address", s.addr.String()).Info("Websocket event server started")
	return s, nil
}

// Addr the server is listening on.
func (s *WebsocketServer) Addr() net.Addr {
	return s.addr
}

func (s *WebsocketServer) subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("Could not upgrade websocket subscriber")
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	// Drain (and ignore) anything the subscriber writes so pings are answered.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(conn)
				return
			}
		}
	}()
}

func (s *WebsocketServer) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("Could not close websocket subscriber")
	}
}

// SendString broadcasts the message to every connected subscriber, dropping
// subscribers whose connection has failed.
func (s *WebsocketServer) SendString(msg string) error {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			log.WithError(err).Debug("Dropping websocket subscriber")
			s.dropClient(conn)
		}
	}
	return nil
}

// Close shuts the server down and disconnects all subscribers.
func (s *WebsocketServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	// Shutdown does not touch hijacked connections, so subscribers are
	// closed here.
	s.mu.Lock()
	for conn := range s.clients {
		if cerr := conn.Close(); cerr != nil {
			log.WithError(cerr).Debug("Could not close websocket subscriber")
		}
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	return err
}

// WebsocketHandler serializes events into the canonical tag/data JSON form
// and forwards them to the websocket broadcast server as opaque strings.
type WebsocketHandler struct {
	Server *WebsocketServer
}

var _ EventHandler = (*WebsocketHandler)(nil)

// Register implements EventHandler.
func (h *WebsocketHandler) Register(kind EventKind) error {
	b, err := MarshalEvent(kind)
	if err != nil {
		return errors.Wrap(err, "unable to serialize event")
	}
	return h.Server.SendString(string(b))
}
