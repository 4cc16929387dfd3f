package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"devchallenge-api/metrics"
)

// Keepalive cadence and the idle cutoff after which a silent connection is
// force-closed.
const (
	pingInterval = 30 * time.Second
	idleTimeout  = 90 * time.Second
)

// Conn is the subset of the websocket connection the hub needs. Narrowed to
// an interface so hub tests run against in-memory fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Envelope is the wire format in both directions.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type client struct {
	userID   string
	rooms    map[string]bool
	lastSeen time.Time
}

// Hub is the connection registry: it tracks authenticated users, challenge
// rooms, and owns every outbound write so connection writes never race.
type Hub struct {
	mu      sync.Mutex
	clients map[Conn]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]*client)}
}

// Register adds a fresh, unauthenticated connection and greets it. The
// welcome frame goes out immediately on connect, before any auth exchange.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = &client{rooms: make(map[string]bool), lastSeen: time.Now()}
	metrics.WSConnections.Inc()
	h.send(c, Envelope{Type: "welcome", Payload: map[string]interface{}{
		"message":   "Connected to DevChallenge live updates",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}})
}

// Unregister drops the connection from the registry.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.WSConnections.Dec()
	}
}

// Touch refreshes the idle clock. Called on every inbound frame.
func (h *Hub) Touch(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[c]; ok {
		cl.lastSeen = time.Now()
	}
}

// Auth binds a user id to the connection.
func (h *Hub) Auth(c Conn, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[c]; ok {
		cl.userID = userID
	}
}

// Join subscribes the connection to a challenge room.
func (h *Hub) Join(c Conn, challengeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[c]; ok {
		cl.rooms[challengeID] = true
	}
}

// Leave unsubscribes the connection from a challenge room.
func (h *Hub) Leave(c Conn, challengeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[c]; ok {
		delete(cl.rooms, challengeID)
	}
}

// Typing relays a typing indicator to everyone else in the room. Requires an
// authenticated sender.
func (h *Hub) Typing(c Conn, challengeID string, isTyping bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sender, ok := h.clients[c]
	if !ok || sender.userID == "" {
		return
	}
	h.broadcast(challengeID, Envelope{
		Type: "user_typing",
		Payload: map[string]interface{}{
			"userId":      sender.userID,
			"challengeId": challengeID,
			"isTyping":    isTyping,
		},
	}, c)
}

// BroadcastChallengeStats pushes a fresh submission count to a challenge
// room. Satisfies services.Broadcaster.
func (h *Hub) BroadcastChallengeStats(challengeID string, submissionCount int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(challengeID, Envelope{
		Type: "challenge_stats",
		Payload: map[string]interface{}{
			"challengeId":     challengeID,
			"submissionCount": submissionCount,
		},
	}, nil)
}

// BroadcastMatchResult announces a settled match to the challenge room.
func (h *Hub) BroadcastMatchResult(challengeID string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(challengeID, Envelope{Type: "match_result", Payload: payload}, nil)
}

// broadcast writes to every room member except the excluded connection.
// Callers must hold h.mu.
func (h *Hub) broadcast(challengeID string, env Envelope, except Conn) {
	for c, cl := range h.clients {
		if c == except || !cl.rooms[challengeID] {
			continue
		}
		h.send(c, env)
	}
}

// send writes one envelope; a failed write drops the connection. Callers
// must hold h.mu.
func (h *Hub) send(c Conn, env Envelope) {
	if err := c.WriteJSON(env); err != nil {
		c.Close()
		delete(h.clients, c)
		metrics.WSConnections.Dec()
	}
}

// Run drives keepalive: pings every connection on a 30s cadence and
// force-closes connections silent past the idle cutoff.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(time.Now())
		}
	}
}

func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c, cl := range h.clients {
		if now.Sub(cl.lastSeen) > idleTimeout {
			log.Printf("🔁 [WS] closing idle connection (user %q)", cl.userID)
			c.Close()
			delete(h.clients, c)
			metrics.WSConnections.Dec()
			continue
		}
		h.send(c, Envelope{Type: "ping"})
	}
}

// ConnectionCount reports how many connections are registered.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
