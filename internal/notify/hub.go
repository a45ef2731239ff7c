package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one connected UI websocket, owned by exactly one user.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to this one session, per §5
}

func (s *session) send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(event); err != nil {
		return err
	}
	if event.Type == EventPing {
		// A client never frames anything back per §6, so without this the
		// read deadline set in HandleWebSocket/SetPongHandler would expire
		// 60s after attach even on a healthy connection. The app-level ping
		// this client receives every 30s stands in for a pong.
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	return nil
}

// Hub is the process-wide singleton Notification Hub (§4.7, §9 "Global
// state" — reified here as an explicit object owned by the Coordinator
// rather than a module-level variable).
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*session]bool
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*session]bool),
		log:      log.With().Str("component", "notification_hub").Logger(),
	}
}

// HandleWebSocket upgrades one HTTP request into a session attached to
// userID, and blocks until the connection closes.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := &session{conn: conn}
	h.attach(userID, sess)
	defer func() {
		h.detach(userID, sess)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Client-to-server messages are ignored per §6; this loop exists only
	// to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) attach(userID uuid.UUID, sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*session]bool)
	}
	h.sessions[userID][sess] = true
	h.log.Debug().Str("user_id", userID.String()).Msg("session attached")
}

func (h *Hub) detach(userID uuid.UUID, sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions[userID], sess)
	if len(h.sessions[userID]) == 0 {
		delete(h.sessions, userID)
	}
	h.log.Debug().Str("user_id", userID.String()).Msg("session detached")
}

// BroadcastToUser delivers event to every session owned by userID. A
// send error logs and drops that one session (at-most-once delivery, §4.7).
func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for sess := range h.sessions[userID] {
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.send(event); err != nil {
			h.log.Warn().Err(err).Str("user_id", userID.String()).Msg("session send failed, dropping")
			h.detach(userID, sess)
		}
	}
}

// BroadcastToAll delivers event to every connected session regardless of
// owner, used for process-wide log/status events.
func (h *Hub) BroadcastToAll(event Event) {
	h.mu.RLock()
	userIDs := make([]uuid.UUID, 0, len(h.sessions))
	for userID := range h.sessions {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	for _, userID := range userIDs {
		h.BroadcastToUser(userID, event)
	}
}

// HeartbeatJob emits a periodic ping to every connected session, keeping
// sessions warm per §4.7. It satisfies scheduler.Job.
type HeartbeatJob struct {
	hub *Hub
}

func NewHeartbeatJob(hub *Hub) *HeartbeatJob { return &HeartbeatJob{hub: hub} }

func (j *HeartbeatJob) Name() string { return "notification_hub_heartbeat" }

func (j *HeartbeatJob) Run() error {
	j.hub.BroadcastToAll(Event{Type: EventPing})
	return nil
}
