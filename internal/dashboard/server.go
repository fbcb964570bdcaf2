// Package dashboard provides a real-time WebSocket server for the roster.
//
// The dashboard broadcasts people, task, and assignment changes to
// connected WebSocket clients so external tools can mirror the database
// without polling it.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds every single WebSocket write. A stalled client
// must not hold up delivery to the others.
const writeTimeout = 5 * time.Second

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypePersonUpdate indicates a person was added or removed
	MessageTypePersonUpdate MessageType = "person_update"

	// MessageTypeTaskUpdate indicates a task was added, completed, or removed
	MessageTypeTaskUpdate MessageType = "task_update"

	// MessageTypeAssignmentUpdate indicates a person was linked to or
	// unlinked from a task
	MessageTypeAssignmentUpdate MessageType = "assignment_update"

	// MessageTypeStats indicates updated aggregate counts
	MessageTypeStats MessageType = "stats"

	// MessageTypeSnapshot carries a full roster snapshot, sent after the
	// database file changes on disk
	MessageTypeSnapshot MessageType = "snapshot"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PersonUpdateData contains person change information
type PersonUpdateData struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Action string `json:"action"` // added, removed
}

// TaskUpdateData contains task change information
type TaskUpdateData struct {
	Tag        string `json:"tag"`
	Action     string `json:"action"` // added, completed, removed
	Title      string `json:"title,omitempty"`
	Deadline   string `json:"deadline,omitempty"`
	Importance int    `json:"importance,omitempty"`
}

// AssignmentUpdateData contains assignment change information
type AssignmentUpdateData struct {
	Email  string `json:"email"`
	Tag    string `json:"tag"`
	Role   string `json:"role,omitempty"`
	Action string `json:"action"` // linked, unlinked
}

// Server accepts WebSocket clients and fans broadcast messages out to
// all of them. Delivery is best effort: a full queue drops the message
// and a failed write drops the client.
type Server struct {
	addr     string
	listener net.Listener
	httpSrv  *http.Server

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	hello   func() (Message, bool)

	queue chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8080)
	Port int

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:   8080,
		Logger: log.Default(),
	}
}

// NewServer creates a new dashboard WebSocket server
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:    fmt.Sprintf(":%d", config.Port),
		clients: make(map[*websocket.Conn]struct{}),
		queue:   make(chan Message, 100),
		ctx:     ctx,
		cancel:  cancel,
		logger:  config.Logger,
	}
}

// Start binds the listener and begins serving WebSocket upgrades.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.httpSrv = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(2)
	go s.pump()
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard server listening on %s", s.addr)
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop disconnects every client and shuts the HTTP server down.
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard server")

	s.cancel()

	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()

	s.logger.Println("Dashboard server stopped")
	return nil
}

// SetHello installs the greeting sent to each client on connect. The
// callback returns false to skip the greeting, for example when the
// payload cannot be built.
func (s *Server) SetHello(fn func() (Message, bool)) {
	s.mu.Lock()
	s.hello = fn
	s.mu.Unlock()
}

// Broadcast queues a message for delivery to all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.queue <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("Warning: broadcast queue full, dropping message")
	}
}

// pump drains the queue and delivers each message in turn.
func (s *Server) pump() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.queue:
			s.deliver(msg)
		}
	}
}

// deliver writes one message to every client, dropping clients whose
// write fails. The client set is copied first so slow writes do not
// block concurrent connects.
func (s *Server) deliver(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Printf("Failed to marshal message: %v", err)
		return
	}

	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		if err := s.writeRaw(conn, data); err != nil {
			s.logger.Printf("Failed to send to client: %v", err)
			s.removeClient(conn)
		}
	}
}

func (s *Server) writeRaw(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// handleWebSocket upgrades the connection, registers the client, and
// sends the greeting before the client joins the broadcast set's
// normal flow.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Allow all origins for development
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	hello := s.hello
	s.mu.Unlock()

	s.logger.Printf("Client connected (total: %d)", count)

	if hello != nil {
		if msg, ok := hello(); ok {
			if data, err := json.Marshal(msg); err == nil {
				_ = s.writeRaw(conn, data)
			}
		}
	}

	go s.readLoop(conn)
}

// readLoop consumes client frames until the connection dies. Client
// messages carry no meaning, reading just surfaces disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	_, known := s.clients[conn]
	delete(s.clients, conn)
	count := len(s.clients)
	s.mu.Unlock()

	if known {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", count)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Halcom Dashboard</title>
</head>
<body>
    <h1>Halcom Dashboard Server</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a></p>
    <p>Connect a WebSocket client to receive real-time roster updates.</p>
</body>
</html>`, r.Host)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
